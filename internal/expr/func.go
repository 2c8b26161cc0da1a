package expr

import (
	"fmt"
	"slices"

	"github.com/vk/arbor/internal/tensor"
)

// Update is one compiled state-update rule: after a call, Target holds the
// evaluated Value.
type Update struct {
	Target *Shared
	Value  Expr
}

// Func is a compiled callable over the expression DAG.
type Func struct {
	inputs  []*Placeholder
	outputs []Expr
	updates []Update
	givens  map[Expr]*tensor.Tensor
}

// NewFunc compiles inputs, outputs and update rules into a callable. Givens
// substitute fixed tensors for arbitrary expressions (matched by identity)
// during every call. Update values and given tensors are shape-checked here
// so that a malformed function fails at compile time.
func NewFunc(inputs []*Placeholder, outputs []Expr, updates []Update, givens map[Expr]*tensor.Tensor) (*Func, error) {
	for _, u := range updates {
		if !slices.Equal(u.Target.Shape(), u.Value.Shape()) {
			return nil, fmt.Errorf("expr: update for cell %q has shape %v, want %v", u.Target.Name(), u.Value.Shape(), u.Target.Shape())
		}
	}
	for e, t := range givens {
		if !slices.Equal(e.Shape(), t.Shape()) {
			return nil, fmt.Errorf("expr: given for %s has shape %v, want %v", e, t.Shape(), e.Shape())
		}
	}
	return &Func{
		inputs:  slices.Clone(inputs),
		outputs: slices.Clone(outputs),
		updates: slices.Clone(updates),
		givens:  givens,
	}, nil
}

// NumInputs returns the number of input placeholders.
func (f *Func) NumInputs() int { return len(f.inputs) }

// NumOutputs returns the number of output expressions.
func (f *Func) NumOutputs() int { return len(f.outputs) }

// Call binds args to the input placeholders, evaluates every output and
// update value against the current state of all shared cells, then commits
// the updates together. Outputs are returned in declaration order.
func (f *Func) Call(args ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	if len(args) != len(f.inputs) {
		return nil, fmt.Errorf("expr: function takes %d inputs, got %d", len(f.inputs), len(args))
	}
	ec := newEvalCtx()
	for i, in := range f.inputs {
		if !slices.Equal(in.Shape(), args[i].Shape()) {
			return nil, fmt.Errorf("expr: input %q has shape %v, got %v", in.Name(), in.Shape(), args[i].Shape())
		}
		ec.bind(in, args[i])
	}
	for e, t := range f.givens {
		ec.bind(e, t)
	}

	outs := make([]*tensor.Tensor, len(f.outputs))
	for i, out := range f.outputs {
		v, err := ec.eval(out)
		if err != nil {
			return nil, err
		}
		outs[i] = v.Clone()
	}

	// Evaluate all update values before committing any of them, so every
	// rule sees the pre-update state.
	newValues := make([]*tensor.Tensor, len(f.updates))
	for i, u := range f.updates {
		v, err := ec.eval(u.Value)
		if err != nil {
			return nil, err
		}
		newValues[i] = v
	}
	for i, u := range f.updates {
		if err := u.Target.SetValue(newValues[i]); err != nil {
			return nil, err
		}
	}
	return outs, nil
}
