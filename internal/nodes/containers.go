package nodes

import (
	"maps"
	"slices"

	"github.com/vk/arbor/internal/network"
)

// Sequential chains its children: every child feeds the next, the
// container's own input (if any) feeds the first child and the last
// child's output becomes the container's output.
type Sequential struct {
	container
}

// NewSequential creates a sequential container over children.
func NewSequential(name string, children []network.Node) *Sequential {
	return &Sequential{container: container{
		node:     newNode("sequential", name, nil, nil),
		children: children,
	}}
}

func (n *Sequential) InitState(vw *network.View) error {
	for i := 0; i+1 < len(n.children); i++ {
		err := vw.AddDependency(n.children[i].Name(), n.children[i+1].Name(), network.DefaultKey, network.DefaultKey)
		if err != nil {
			return err
		}
	}
	return n.container.InitState(vw)
}

// Hyperparameters wraps a single child and answers hyperparameter queries
// from its subtree with the entries of its map.
type Hyperparameters struct {
	container
}

// NewHyperparameters creates a hyperparameters wrapper around child. Every
// key of hp becomes a declared, provided hyperparameter.
func NewHyperparameters(name string, hp HP, child network.Node) *Hyperparameters {
	declared := slices.Sorted(maps.Keys(hp))
	return &Hyperparameters{container: container{
		node:     newNode("hyperparameters", name, declared, hp),
		children: []network.Node{child},
	}}
}
