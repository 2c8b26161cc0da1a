// Package nodes provides the built-in node types architecture trees are
// assembled from: the input placeholder, linear algebra leaves, wrapper
// containers and the update-rule nodes.
//
// Every type embeds a shared base that answers hyperparameter queries from
// the values fixed at construction and forwards its input unchanged when
// the type declares no computation of its own. Types are registered with
// the node type registry through Module, so architecture documents can
// refer to them by name.
package nodes
