// Package graph holds the dual structure at the center of a network build:
// one set of named vertices carrying two edge sets.
//
// The containment edges form the architecture tree, the parent/child
// nesting declared by the nodes themselves. The dependency edges form the
// computation DAG; each carries a (fromKey, toKey) port pair naming which
// output of the upstream node feeds which input of the downstream one.
//
// The two edge sets are deliberately independent: a container and its
// children are related in the tree but exchange values only through
// explicit dependency edges. Tree traversals (RootToLeaves, LeavesToRoot)
// drive the phases where nesting order matters; Topological drives output
// computation, where only data dependencies matter.
//
// Dependency edges may be edited only while the graph is mutable. Freeze is
// a one-way transition taken before outputs are computed, so the topology
// cannot shift under a traversal already in progress.
package graph
