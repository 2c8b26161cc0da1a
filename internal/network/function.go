package network

import (
	"fmt"

	"github.com/vk/arbor/internal/expr"
	"github.com/vk/arbor/internal/graph"
	"github.com/vk/arbor/internal/tensor"
	"github.com/vk/arbor/internal/update"
	"github.com/vk/arbor/internal/variable"
)

// Ref names a variable by node name and local variable key. An empty Key
// refers to the node's default output.
type Ref struct {
	Name string
	Key  string
}

func (r Ref) local() string {
	if r.Key == "" {
		return DefaultKey
	}
	return r.Key
}

// Given fixes a variable to a constant tensor for every call of a
// compiled function, overriding whatever the variable would otherwise
// evaluate to.
type Given struct {
	Ref   Ref
	Value *tensor.Tensor
}

// FunctionOpts tunes function compilation beyond inputs and outputs.
type FunctionOpts struct {
	// IncludeUpdates compiles the network's accumulated update deltas into
	// the function, so every call advances shared state.
	IncludeUpdates bool
	// ExtraDeltas are merged over the accumulated deltas before
	// compilation, replacing any rule for the same variable.
	ExtraDeltas *update.Deltas
	// Givens fix variables to constant tensors during evaluation.
	Givens []Given
}

// Lookup resolves a variable reference against the built network.
func (n *Network) Lookup(ref Ref) (*variable.Variable, error) {
	if !n.built {
		return nil, ErrNotBuilt
	}
	rec, ok := n.states.Record(ref.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", graph.ErrUnknownNode, ref.Name)
	}
	v, ok := rec.CurrentVariables[ref.local()]
	if !ok {
		return nil, fmt.Errorf("network: node %q has no variable %q", ref.Name, ref.local())
	}
	return v, nil
}

// Function compiles a callable over the built network. Inputs must be
// placeholder-backed variables; they bind to call arguments in order.
// Outputs are evaluated and returned in order on every call.
func (n *Network) Function(inputs, outputs []Ref, opts *FunctionOpts) (*expr.Func, error) {
	if !n.built {
		return nil, ErrNotBuilt
	}
	if opts == nil {
		opts = &FunctionOpts{}
	}

	placeholders := make([]*expr.Placeholder, 0, len(inputs))
	for _, ref := range inputs {
		v, err := n.Lookup(ref)
		if err != nil {
			return nil, err
		}
		ph, ok := v.Expr.(*expr.Placeholder)
		if !ok {
			return nil, fmt.Errorf("network: function input %q is not a placeholder", v.Name)
		}
		placeholders = append(placeholders, ph)
	}

	exprs := make([]expr.Expr, 0, len(outputs))
	for _, ref := range outputs {
		v, err := n.Lookup(ref)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, v.Expr)
	}

	deltas := update.New()
	if opts.IncludeUpdates {
		deltas = n.deltas.Clone()
	}
	if opts.ExtraDeltas != nil {
		deltas.Merge(opts.ExtraDeltas)
	}
	var updates []expr.Update
	if deltas.Len() > 0 {
		var err error
		updates, err = deltas.Updates()
		if err != nil {
			return nil, err
		}
	}

	var givens map[expr.Expr]*tensor.Tensor
	if len(opts.Givens) > 0 {
		givens = make(map[expr.Expr]*tensor.Tensor, len(opts.Givens))
		for _, g := range opts.Givens {
			v, err := n.Lookup(g.Ref)
			if err != nil {
				return nil, err
			}
			givens[v.Expr] = g.Value
		}
	}
	return expr.NewFunc(placeholders, exprs, updates, givens)
}
