package network

import (
	"github.com/vk/arbor/internal/update"
	"github.com/vk/arbor/internal/variable"
)

// Node is one element of an architecture tree. Implementations hold only
// their construction-time configuration; everything a node learns during a
// build lives in its per-node state record, reached through the View.
type Node interface {
	// Name returns the node's name, unique within one tree.
	Name() string

	// HyperparameterNames lists the hyperparameter keys this node reads or
	// provides. Resolution only consults a node's provided values for keys
	// it declares here.
	HyperparameterNames() []string

	// ArchitectureChildren returns the node's children in declaration
	// order. Leaf nodes return nil.
	ArchitectureChildren() []Node

	// InputKeys lists the input ports whose dependencies must resolve
	// before ComputeOutput runs. Inputs are passed in this order.
	InputKeys(vw *View) []string

	// ComputeOutput creates the node's output variables from its resolved
	// inputs. Every node must end up owning a variable named DefaultKey.
	ComputeOutput(vw *View, inputs []*variable.Variable) error
}

// LongRangeInitializer is implemented by nodes that wire dependencies
// spanning more than a parent-child link. It runs before any state
// initialization, root to leaves.
type LongRangeInitializer interface {
	InitLongRangeDependencies(vw *View) error
}

// StateInitializer is implemented by nodes that allocate variables or wire
// local dependencies. It runs after long-range initialization, root to
// leaves.
type StateInitializer interface {
	InitState(vw *View) error
}

// UpdateMutator is implemented by nodes that contribute update deltas. It
// runs after output computation, root to leaves, so a rule set deeper in
// the tree replaces a shallower rule for the same variable.
type UpdateMutator interface {
	MutateUpdateDeltas(vw *View, deltas *update.Deltas) error
}

// HyperparameterProvider is implemented by nodes that answer
// hyperparameter queries, typically from values given at construction.
// The view belongs to the node that started the resolution, not to the
// provider.
type HyperparameterProvider interface {
	ProvidedHyperparameter(vw *View, key string) (any, bool)
}
