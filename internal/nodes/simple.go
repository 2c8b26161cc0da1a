package nodes

import (
	"fmt"
	"slices"

	"github.com/vk/arbor/internal/expr"
	"github.com/vk/arbor/internal/network"
	"github.com/vk/arbor/internal/tensor"
	"github.com/vk/arbor/internal/variable"
)

// Identity passes its input through untouched.
type Identity struct {
	node
}

// NewIdentity creates an identity node.
func NewIdentity(name string) *Identity {
	return &Identity{node: newNode("identity", name, nil, nil)}
}

var linearMappingHyperparameters = []string{"output_dim", "inits"}

// LinearMapping multiplies its input by a learned weight matrix. The
// matrix maps the input's last axis onto "output_dim" units.
type LinearMapping struct {
	node
}

// NewLinearMapping creates a linear mapping node. hp may carry
// "output_dim" (int) and "inits" (initializer list).
func NewLinearMapping(name string, hp HP) *LinearMapping {
	return &LinearMapping{node: newNode("linear_mapping", name, linearMappingHyperparameters, hp)}
}

func (n *LinearMapping) ComputeOutput(vw *network.View, inputs []*variable.Variable) error {
	in := inputs[0]
	if len(in.Shape) == 0 {
		return fmt.Errorf("nodes: linear_mapping %q needs a ranked input", n.name)
	}
	raw, err := vw.FindHyperparameter("output_dim")
	if err != nil {
		return err
	}
	outputDim, err := toInt(raw)
	if err != nil {
		return fmt.Errorf("nodes: linear_mapping %q: %w", n.name, err)
	}
	initList, err := collectInits(vw)
	if err != nil {
		return fmt.Errorf("nodes: linear_mapping %q: %w", n.name, err)
	}

	numInputs := in.Shape[len(in.Shape)-1]
	w, err := vw.CreateVariable("weight", network.VarSpec{
		Shape: []int{numInputs, outputDim},
		Tags:  []string{"parameter", "weight"},
		Inits: initList,
	})
	if err != nil {
		return err
	}
	out, err := expr.Dot(in.Expr, w.Expr)
	if err != nil {
		return err
	}
	_, err = vw.CreateVariable(network.DefaultKey, network.VarSpec{
		Tags: []string{"output"},
		Expr: out,
	})
	return err
}

var addBiasHyperparameters = []string{"inits", "batch_axis"}

// AddBias adds a learned bias to its input. For matrix inputs the bias
// spans the non-batch axis and broadcasts over the batch.
type AddBias struct {
	node
}

// NewAddBias creates an add-bias node. hp may carry "inits" (initializer
// list).
func NewAddBias(name string, hp HP) *AddBias {
	return &AddBias{node: newNode("add_bias", name, addBiasHyperparameters, hp)}
}

func (n *AddBias) ComputeOutput(vw *network.View, inputs []*variable.Variable) error {
	in := inputs[0]
	rawAxis, err := vw.FindHyperparameter("batch_axis")
	if err != nil {
		return err
	}
	batchAxis, err := toInt(rawAxis)
	if err != nil {
		return fmt.Errorf("nodes: add_bias %q: %w", n.name, err)
	}
	biasShape := slices.Clone(in.Shape)
	if len(biasShape) == 2 {
		if batchAxis != 0 {
			return fmt.Errorf("nodes: add_bias %q supports batch axis 0, got %d", n.name, batchAxis)
		}
		biasShape = biasShape[1:]
	}
	initList, err := collectInits(vw)
	if err != nil {
		return fmt.Errorf("nodes: add_bias %q: %w", n.name, err)
	}

	b, err := vw.CreateVariable("bias", network.VarSpec{
		Shape: biasShape,
		Tags:  []string{"parameter", "bias"},
		Inits: initList,
	})
	if err != nil {
		return err
	}
	out, err := expr.Add(in.Expr, b.Expr)
	if err != nil {
		return err
	}
	_, err = vw.CreateVariable(network.DefaultKey, network.VarSpec{
		Tags: []string{"output"},
		Expr: out,
	})
	return err
}

// Apply wraps an arbitrary elementwise computation. It can only be
// constructed in Go: its parameters are functions, which an architecture
// document cannot express.
type Apply struct {
	node
	fn      func(*tensor.Tensor) (*tensor.Tensor, error)
	shapeFn func([]int) []int
}

// NewApply creates an apply node. A nil shapeFn keeps the input shape.
func NewApply(name string, fn func(*tensor.Tensor) (*tensor.Tensor, error), shapeFn func([]int) []int) *Apply {
	return &Apply{node: newNode("apply", name, nil, nil), fn: fn, shapeFn: shapeFn}
}

func (n *Apply) ComputeOutput(vw *network.View, inputs []*variable.Variable) error {
	in := inputs[0]
	shape := in.Shape
	if n.shapeFn != nil {
		shape = n.shapeFn(in.Shape)
	}
	out := expr.Apply(n.name, shape, func(args ...*tensor.Tensor) (*tensor.Tensor, error) {
		return n.fn(args[0])
	}, in.Expr)
	_, err := vw.CreateVariable(network.DefaultKey, network.VarSpec{
		Shape: shape,
		Tags:  []string{"output"},
		Expr:  out,
	})
	return err
}
