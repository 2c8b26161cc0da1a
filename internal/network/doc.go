// Package network builds architecture trees into frozen computation
// graphs.
//
// A Network wraps a root node and drives the build: the architecture tree
// is expanded into a graph, every node wires its long-range dependencies
// and then initializes its state, the graph freezes, outputs are computed
// in dependency order and update deltas are accumulated. After a build the
// network is immutable apart from the values held in shared cells, and
// callable functions can be compiled from it.
//
// Nodes observe the network through a View bound to their own name. The
// view scopes variable creation, data storage and hyperparameter
// resolution to that node, so the same node implementation behaves the
// same wherever it sits in a tree.
package network
