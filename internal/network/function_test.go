package network_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/arbor/internal/expr"
	"github.com/vk/arbor/internal/network"
	"github.com/vk/arbor/internal/tensor"
	"github.com/vk/arbor/internal/update"
	"github.com/vk/arbor/internal/variable"
)

// scaleNode multiplies its default input by k.
func scaleNode(name string, k float64) *testNode {
	return &testNode{
		name:      name,
		inputKeys: []string{network.DefaultKey},
		onCompute: func(vw *network.View, inputs []*variable.Variable) error {
			_, err := vw.CreateVariable(network.DefaultKey, network.VarSpec{
				Tags: []string{"output"},
				Expr: expr.Scale(inputs[0].Expr, k),
			})
			return err
		},
	}
}

// counterNode owns a shared scalar cell and adds a constant delta for it
// during update accumulation.
func counterNode(name string, delta float64) *testNode {
	n := sourceNode(name, []int{1})
	n.onUpdates = func(vw *network.View, deltas *update.Deltas) error {
		v, err := vw.CreateVariable("count", network.VarSpec{Shape: []int{1}})
		if err != nil {
			return err
		}
		return deltas.Set(v, expr.NewConst(tensor.Fill([]int{1}, delta)))
	}
	return n
}

func TestLookup(t *testing.T) {
	net := network.New(chainNode("root", sourceNode("x", []int{2})), network.Options{})
	require.NoError(t, net.Build(context.Background()))

	t.Run("empty key means default", func(t *testing.T) {
		v, err := net.Lookup(network.Ref{Name: "x"})
		require.NoError(t, err)
		assert.Equal(t, "x:default", v.Name)
	})

	t.Run("explicit key", func(t *testing.T) {
		v, err := net.Lookup(network.Ref{Name: "x", Key: "default"})
		require.NoError(t, err)
		assert.Equal(t, "x:default", v.Name)
	})

	t.Run("unknown node", func(t *testing.T) {
		_, err := net.Lookup(network.Ref{Name: "dne"})
		assert.ErrorContains(t, err, `"dne"`)
	})

	t.Run("unknown variable", func(t *testing.T) {
		_, err := net.Lookup(network.Ref{Name: "x", Key: "weight"})
		assert.ErrorContains(t, err, `no variable "weight"`)
	})
}

func TestFunctionCall(t *testing.T) {
	root := chainNode("root", sourceNode("x", []int{3}), scaleNode("double", 2))
	net := network.New(root, network.Options{})
	require.NoError(t, net.Build(context.Background()))

	fn, err := net.Function(
		[]network.Ref{{Name: "x"}},
		[]network.Ref{{Name: "double"}, {Name: "root"}},
		nil,
	)
	require.NoError(t, err)

	in, err := tensor.New([]int{3}, []float64{1, 2, 3})
	require.NoError(t, err)
	outs, err := fn.Call(in)
	require.NoError(t, err)
	require.Len(t, outs, 2)
	assert.Equal(t, []float64{2, 4, 6}, outs[0].Data())
	assert.Equal(t, []float64{2, 4, 6}, outs[1].Data(), "the wrapper surfaces its child's output")
}

func TestFunctionInputMustBePlaceholder(t *testing.T) {
	root := chainNode("root", sourceNode("x", []int{1}), scaleNode("s", 2))
	net := network.New(root, network.Options{})
	require.NoError(t, net.Build(context.Background()))

	_, err := net.Function([]network.Ref{{Name: "s"}}, []network.Ref{{Name: "root"}}, nil)
	assert.ErrorContains(t, err, "not a placeholder")
}

func TestFunctionIncludeUpdates(t *testing.T) {
	net := network.New(chainNode("root", counterNode("c", 2)), network.Options{})
	require.NoError(t, net.Build(context.Background()))

	count, err := net.Lookup(network.Ref{Name: "c", Key: "count"})
	require.NoError(t, err)
	cell, ok := count.Cell()
	require.True(t, ok)

	t.Run("updates excluded by default", func(t *testing.T) {
		fn, err := net.Function(nil, []network.Ref{{Name: "root"}}, nil)
		require.NoError(t, err)
		_, err = fn.Call()
		require.NoError(t, err)
		assert.Equal(t, []float64{0}, cell.Value().Data())
	})

	t.Run("included updates advance state per call", func(t *testing.T) {
		fn, err := net.Function(nil, []network.Ref{{Name: "root"}}, &network.FunctionOpts{
			IncludeUpdates: true,
		})
		require.NoError(t, err)

		_, err = fn.Call()
		require.NoError(t, err)
		assert.Equal(t, []float64{2}, cell.Value().Data())

		_, err = fn.Call()
		require.NoError(t, err)
		assert.Equal(t, []float64{4}, cell.Value().Data())
	})
}

func TestFunctionExtraDeltas(t *testing.T) {
	net := network.New(chainNode("root", counterNode("c", 2)), network.Options{})
	require.NoError(t, net.Build(context.Background()))

	count, err := net.Lookup(network.Ref{Name: "c", Key: "count"})
	require.NoError(t, err)
	cell, ok := count.Cell()
	require.True(t, ok)

	// The extra delta replaces the accumulated rule for the same variable.
	extra := update.New()
	require.NoError(t, extra.Set(count, expr.NewConst(tensor.Fill([]int{1}, 10))))

	fn, err := net.Function(nil, []network.Ref{{Name: "root"}}, &network.FunctionOpts{
		IncludeUpdates: true,
		ExtraDeltas:    extra,
	})
	require.NoError(t, err)
	_, err = fn.Call()
	require.NoError(t, err)
	assert.Equal(t, []float64{10}, cell.Value().Data())

	t.Run("extra deltas apply without IncludeUpdates", func(t *testing.T) {
		require.NoError(t, cell.SetValue(tensor.Zeros([]int{1})))
		fn, err := net.Function(nil, []network.Ref{{Name: "root"}}, &network.FunctionOpts{
			ExtraDeltas: extra,
		})
		require.NoError(t, err)
		_, err = fn.Call()
		require.NoError(t, err)
		assert.Equal(t, []float64{10}, cell.Value().Data())
	})
}

func TestDescendantUpdateOverridesAncestor(t *testing.T) {
	// Both the wrapper and its inner wrapper write a rule for the same
	// shared variable; the deeper node runs later and must win.
	leaf := sourceNode("leaf", []int{1})
	leaf.onInitState = func(vw *network.View) error {
		_, err := vw.CreateVariable("count", network.VarSpec{Shape: []int{1}})
		return err
	}

	setRule := func(n *testNode, delta float64) {
		n.onUpdates = func(vw *network.View, deltas *update.Deltas) error {
			shared := true
			for _, v := range vw.FindVariablesInSubtree(network.SubtreeFilter{Shared: &shared}) {
				if err := deltas.Set(v, expr.NewConst(tensor.Fill(v.Shape, delta))); err != nil {
					return err
				}
			}
			return nil
		}
	}

	inner := chainNode("inner", leaf)
	setRule(inner, 5)
	outer := chainNode("outer", inner)
	setRule(outer, 1)

	net := network.New(outer, network.Options{})
	require.NoError(t, net.Build(context.Background()))

	count, err := net.Lookup(network.Ref{Name: "leaf", Key: "count"})
	require.NoError(t, err)
	delta, ok := net.UpdateDeltas().Get(count)
	require.True(t, ok)

	fn, err := expr.NewFunc(nil, []expr.Expr{delta}, nil, nil)
	require.NoError(t, err)
	outs, err := fn.Call()
	require.NoError(t, err)
	assert.Equal(t, []float64{5}, outs[0].Data(), "the deeper rule replaces the outer one")
}

func TestFunctionGivens(t *testing.T) {
	root := chainNode("root", sourceNode("x", []int{2}), scaleNode("s", 3))
	net := network.New(root, network.Options{})
	require.NoError(t, net.Build(context.Background()))

	t.Run("substitutes an intermediate value", func(t *testing.T) {
		fn, err := net.Function(
			[]network.Ref{{Name: "x"}},
			[]network.Ref{{Name: "root"}},
			&network.FunctionOpts{Givens: []network.Given{
				{Ref: network.Ref{Name: "s"}, Value: tensor.Fill([]int{2}, 9)},
			}},
		)
		require.NoError(t, err)

		in, err := tensor.New([]int{2}, []float64{1, 2})
		require.NoError(t, err)
		outs, err := fn.Call(in)
		require.NoError(t, err)
		assert.Equal(t, []float64{9, 9}, outs[0].Data(), "the scaled value is never computed")
	})

	t.Run("given ref must resolve", func(t *testing.T) {
		_, err := net.Function(nil, []network.Ref{{Name: "root"}}, &network.FunctionOpts{
			Givens: []network.Given{{Ref: network.Ref{Name: "dne"}, Value: tensor.Zeros([]int{2})}},
		})
		assert.ErrorContains(t, err, `"dne"`)
	})
}
