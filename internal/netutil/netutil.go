// Package netutil provides the value-dictionary interface over built
// networks: collecting shared variables, exporting and importing their
// values and handing their storage to newly built networks.
package netutil

import (
	"fmt"
	"maps"
	"slices"

	"github.com/vk/arbor/internal/expr"
	"github.com/vk/arbor/internal/inits"
	"github.com/vk/arbor/internal/network"
	"github.com/vk/arbor/internal/tensor"
	"github.com/vk/arbor/internal/variable"
)

// SharedDict returns every shared variable of the built network, keyed by
// full variable name.
func SharedDict(net *network.Network) (map[string]*variable.Variable, error) {
	if !net.Built() {
		return nil, network.ErrNotBuilt
	}
	shared := true
	out := make(map[string]*variable.Variable)
	for _, v := range net.Variables(network.SubtreeFilter{Shared: &shared}) {
		out[v.Name] = v
	}
	return out, nil
}

// CellDict returns the backing cell of every shared variable, keyed by
// full variable name.
func CellDict(net *network.Network) (map[string]*expr.Shared, error) {
	vars, err := SharedDict(net)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*expr.Shared, len(vars))
	for name, v := range vars {
		cell, ok := v.Cell()
		if !ok {
			return nil, fmt.Errorf("netutil: %q has no backing cell", name)
		}
		out[name] = cell
	}
	return out, nil
}

// ValueDict copies the current value of every shared variable, keyed by
// full variable name.
func ValueDict(net *network.Network) (map[string]*tensor.Tensor, error) {
	cells, err := CellDict(net)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*tensor.Tensor, len(cells))
	for name, cell := range cells {
		out[name] = cell.Value().Clone()
	}
	return out, nil
}

// LoadValueDict assigns values to the network's shared variables. The
// dictionary must cover exactly the network's shared variables: unknown
// names, missing names and shape mismatches all fail, and nothing is
// assigned until everything validates. Values are copied in sorted name
// order.
func LoadValueDict(net *network.Network, values map[string]*tensor.Tensor) error {
	cells, err := CellDict(net)
	if err != nil {
		return err
	}
	for _, name := range slices.Sorted(maps.Keys(values)) {
		if _, ok := cells[name]; !ok {
			return fmt.Errorf("netutil: network has no shared variable %q", name)
		}
	}
	names := slices.Sorted(maps.Keys(cells))
	for _, name := range names {
		value, ok := values[name]
		if !ok {
			return fmt.Errorf("netutil: no value provided for shared variable %q", name)
		}
		if !slices.Equal(value.Shape(), cells[name].Shape()) {
			return fmt.Errorf("netutil: value for %q has shape %v, want %v", name, value.Shape(), cells[name].Shape())
		}
	}
	for _, name := range names {
		if err := cells[name].SetValue(values[name]); err != nil {
			return fmt.Errorf("netutil: loading %q: %w", name, err)
		}
	}
	return nil
}

// PreallocatedInit returns an initializer handing out the network's own
// cells, so a network built with it shares parameter storage with this
// one.
func PreallocatedInit(net *network.Network) (inits.Initializer, error) {
	cells, err := CellDict(net)
	if err != nil {
		return nil, err
	}
	return inits.Preallocated(cells), nil
}
