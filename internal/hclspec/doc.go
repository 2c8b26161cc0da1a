// Package hclspec loads declarative architecture documents.
//
// A document describes a node tree in HCL: exactly one top-level `node`
// block (the root), with nested `node` blocks as its children in
// declaration order. Optional `defaults` and `override` blocks carry
// network-level hyperparameters. Node bodies decode into plain Go values
// and are handed to the registered factory for the node's type, so the
// loader itself knows nothing about individual node semantics.
package hclspec
