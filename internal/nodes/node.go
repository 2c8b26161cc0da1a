package nodes

import (
	"fmt"
	"slices"

	"github.com/vk/arbor/internal/network"
	"github.com/vk/arbor/internal/variable"
)

// HP is the bag of hyperparameter values fixed on a node at construction.
// Constructors only accept keys the node type declares.
type HP map[string]any

// node carries what every node type shares: the type tag, the instance
// name, the declared hyperparameter names and the construction-time values.
type node struct {
	kind     string
	name     string
	declared []string
	hp       HP
}

func newNode(kind, name string, declared []string, hp HP) node {
	if hp == nil {
		hp = HP{}
	}
	for key := range hp {
		if !slices.Contains(declared, key) {
			panic(fmt.Sprintf("node '%s' does not declare hyperparameter '%s'", name, key))
		}
	}
	return node{kind: kind, name: name, declared: declared, hp: hp}
}

func (n *node) Name() string { return n.name }

// Kind returns the node's type tag, the same name the type registers under.
func (n *node) Kind() string { return n.kind }

func (n *node) HyperparameterNames() []string { return n.declared }

func (n *node) ProvidedHyperparameter(_ *network.View, key string) (any, bool) {
	v, ok := n.hp[key]
	return v, ok
}

func (n *node) ArchitectureChildren() []network.Node { return nil }

func (n *node) InputKeys(*network.View) []string {
	return []string{network.DefaultKey}
}

// ComputeOutput is the pass-through default: the first input is copied to
// the default output.
func (n *node) ComputeOutput(vw *network.View, inputs []*variable.Variable) error {
	if len(inputs) == 0 {
		return fmt.Errorf("nodes: %q has no input to forward", n.name)
	}
	_, err := vw.CopyVariable(network.DefaultKey, inputs[0], "output")
	return err
}

// finalChildOutputKey is the port a wrapper consumes its last child's
// output on. It is distinct from the default key so the edge never clashes
// with the wrapper's own default input.
const finalChildOutputKey = "final_child_output"

// container is the shared wrapper behavior: expose the children, forward
// the wrapper's own input to the first child and surface the last child's
// output as the wrapper's default output.
type container struct {
	node
	children []network.Node
}

func (c *container) ArchitectureChildren() []network.Node { return c.children }

func (c *container) InputKeys(*network.View) []string {
	return []string{finalChildOutputKey}
}

func (c *container) InitState(vw *network.View) error {
	if len(c.children) == 0 {
		return fmt.Errorf("nodes: container %q has no children", c.name)
	}
	first := c.children[0].Name()
	last := c.children[len(c.children)-1].Name()
	if err := vw.ForwardInputTo(first, network.DefaultKey, network.DefaultKey, true); err != nil {
		return err
	}
	return vw.TakeOutputFrom(last, network.DefaultKey, finalChildOutputKey)
}
