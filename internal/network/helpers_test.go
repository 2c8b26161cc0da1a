package network_test

import (
	"fmt"

	"github.com/vk/arbor/internal/expr"
	"github.com/vk/arbor/internal/network"
	"github.com/vk/arbor/internal/update"
	"github.com/vk/arbor/internal/variable"
)

// testNode is a configurable node for exercising the build machinery
// without pulling in the real node library. Nil hooks are no-ops; the
// default ComputeOutput copies the first input to the default key.
type testNode struct {
	name      string
	declared  []string
	provided  map[string]any
	children  []network.Node
	inputKeys []string

	onLongRange func(vw *network.View) error
	onInitState func(vw *network.View) error
	onCompute   func(vw *network.View, inputs []*variable.Variable) error
	onUpdates   func(vw *network.View, deltas *update.Deltas) error
}

func (n *testNode) Name() string { return n.name }

func (n *testNode) HyperparameterNames() []string { return n.declared }

func (n *testNode) ArchitectureChildren() []network.Node { return n.children }

func (n *testNode) InputKeys(*network.View) []string { return n.inputKeys }

func (n *testNode) ComputeOutput(vw *network.View, inputs []*variable.Variable) error {
	if n.onCompute != nil {
		return n.onCompute(vw, inputs)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("test node %q has no input", n.name)
	}
	_, err := vw.CopyVariable(network.DefaultKey, inputs[0])
	return err
}

func (n *testNode) InitLongRangeDependencies(vw *network.View) error {
	if n.onLongRange == nil {
		return nil
	}
	return n.onLongRange(vw)
}

func (n *testNode) InitState(vw *network.View) error {
	if n.onInitState == nil {
		return nil
	}
	return n.onInitState(vw)
}

func (n *testNode) MutateUpdateDeltas(vw *network.View, deltas *update.Deltas) error {
	if n.onUpdates == nil {
		return nil
	}
	return n.onUpdates(vw, deltas)
}

func (n *testNode) ProvidedHyperparameter(_ *network.View, key string) (any, bool) {
	v, ok := n.provided[key]
	return v, ok
}

// sourceNode creates a placeholder-backed default output of the given
// shape. It has no input ports.
func sourceNode(name string, shape []int) *testNode {
	return &testNode{
		name: name,
		onCompute: func(vw *network.View, _ []*variable.Variable) error {
			_, err := vw.CreateVariable(network.DefaultKey, network.VarSpec{
				Shape: shape,
				Tags:  []string{"input"},
				Expr:  expr.NewPlaceholder(variable.FullName(name, network.DefaultKey), shape),
			})
			return err
		},
	}
}

// passNode copies its default input to its default output.
func passNode(name string) *testNode {
	return &testNode{name: name, inputKeys: []string{network.DefaultKey}}
}

// chainNode wires its children into a chain, forwards its own default
// input (when connected) to the first child and surfaces the last child's
// output on a private port.
func chainNode(name string, children ...network.Node) *testNode {
	n := &testNode{
		name:      name,
		children:  children,
		inputKeys: []string{"inner"},
	}
	n.onInitState = func(vw *network.View) error {
		for i := 0; i+1 < len(children); i++ {
			err := vw.AddDependency(children[i].Name(), children[i+1].Name(), network.DefaultKey, network.DefaultKey)
			if err != nil {
				return err
			}
		}
		if err := vw.ForwardInputTo(children[0].Name(), network.DefaultKey, network.DefaultKey, true); err != nil {
			return err
		}
		return vw.TakeOutputFrom(children[len(children)-1].Name(), network.DefaultKey, "inner")
	}
	return n
}
