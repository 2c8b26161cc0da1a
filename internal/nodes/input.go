package nodes

import (
	"fmt"

	"github.com/vk/arbor/internal/expr"
	"github.com/vk/arbor/internal/network"
	"github.com/vk/arbor/internal/variable"
)

var inputHyperparameters = []string{"shape"}

// Input introduces an externally supplied value into the graph. Its
// default output is a placeholder that compiled functions bind call
// arguments to. The shape resolves through the hyperparameter search, so
// an ancestor may decide it instead of the node itself.
type Input struct {
	node
}

// NewInput creates an input node. hp may carry "shape" ([]int).
func NewInput(name string, hp HP) *Input {
	return &Input{node: newNode("input", name, inputHyperparameters, hp)}
}

func (n *Input) InputKeys(*network.View) []string { return nil }

func (n *Input) ComputeOutput(vw *network.View, _ []*variable.Variable) error {
	raw, err := vw.FindHyperparameter("shape")
	if err != nil {
		return err
	}
	shape, err := toShape(raw)
	if err != nil {
		return fmt.Errorf("nodes: input %q: %w", n.name, err)
	}
	ph := expr.NewPlaceholder(variable.FullName(n.name, network.DefaultKey), shape)
	_, err = vw.CreateVariable(network.DefaultKey, network.VarSpec{
		Shape: shape,
		Tags:  []string{"input"},
		Expr:  ph,
	})
	return err
}
