package nodes

import (
	"fmt"

	"github.com/vk/arbor/internal/expr"
	"github.com/vk/arbor/internal/network"
	"github.com/vk/arbor/internal/tensor"
	"github.com/vk/arbor/internal/update"
)

var constantUpdaterHyperparameters = []string{"value"}

// ConstantUpdater wraps a child and, during update accumulation, gives
// every shared variable in its subtree the constant delta "value". Nested
// updaters override each other bottom-up: the one closest to a variable
// wins.
type ConstantUpdater struct {
	container
}

// NewConstantUpdater creates a constant updater around child. hp may carry
// "value" (number).
func NewConstantUpdater(name string, hp HP, child network.Node) *ConstantUpdater {
	return &ConstantUpdater{container: container{
		node:     newNode("constant_updater", name, constantUpdaterHyperparameters, hp),
		children: []network.Node{child},
	}}
}

func (n *ConstantUpdater) MutateUpdateDeltas(vw *network.View, deltas *update.Deltas) error {
	raw, err := vw.FindHyperparameter("value")
	if err != nil {
		return err
	}
	value, err := toFloat(raw)
	if err != nil {
		return fmt.Errorf("nodes: constant_updater %q: %w", n.name, err)
	}
	shared := true
	for _, v := range vw.FindVariablesInSubtree(network.SubtreeFilter{Shared: &shared}) {
		if err := deltas.Set(v, expr.NewConst(tensor.Fill(v.Shape, value))); err != nil {
			return err
		}
	}
	return nil
}
