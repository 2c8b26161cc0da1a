// Package inits provides the initializers that seed shared variables with
// their first values. When a shared variable is created, the candidate
// initializers are tried in order and the first one that accepts the
// variable wins; when none accepts, the variable starts at zero.
package inits

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/vk/arbor/internal/expr"
	"github.com/vk/arbor/internal/tensor"
	"github.com/vk/arbor/internal/variable"
)

// Initializer seeds the backing cell of a newly created shared variable.
type Initializer interface {
	// CanInitialize reports whether this initializer applies to v, based
	// on its tags, shape or name.
	CanInitialize(v *variable.Variable) bool
	// Initialize returns the cell for v. Most initializers create a fresh
	// cell; a preallocated initializer may return an existing one so that
	// two networks share storage.
	Initialize(v *variable.Variable) (*expr.Shared, error)
}

// Apply tries each candidate in order and applies the first one accepting
// v. With no accepting candidate the variable is zero-initialized.
func Apply(candidates []Initializer, v *variable.Variable) (*expr.Shared, error) {
	for _, init := range candidates {
		if init.CanInitialize(v) {
			return init.Initialize(v)
		}
	}
	return Zeros().Initialize(v)
}

type constantInit struct {
	value float64
}

// Constant returns an initializer filling any variable with the value c.
func Constant(c float64) Initializer {
	return &constantInit{value: c}
}

func (i *constantInit) CanInitialize(*variable.Variable) bool { return true }

func (i *constantInit) Initialize(v *variable.Variable) (*expr.Shared, error) {
	return expr.NewShared(v.Name, tensor.Fill(v.Shape, i.value)), nil
}

type zerosInit struct{}

// Zeros returns an initializer filling any variable with zeros. It is also
// the fallback when no other initializer accepts a variable.
func Zeros() Initializer { return zerosInit{} }

func (zerosInit) CanInitialize(*variable.Variable) bool { return true }

func (zerosInit) Initialize(v *variable.Variable) (*expr.Shared, error) {
	return expr.NewShared(v.Name, tensor.Zeros(v.Shape)), nil
}

type normalInit struct {
	gain float64
}

// Normal returns an initializer drawing weight-tagged variables from a
// normal distribution scaled by gain over the square root of the fan-in
// (the variable's first axis).
func Normal(gain float64) Initializer {
	return &normalInit{gain: gain}
}

func (i *normalInit) CanInitialize(v *variable.Variable) bool {
	return v.Tags.Has("weight")
}

func (i *normalInit) Initialize(v *variable.Variable) (*expr.Shared, error) {
	fanIn := 1
	if len(v.Shape) > 0 {
		fanIn = v.Shape[0]
	}
	if fanIn < 1 {
		fanIn = 1
	}
	std := i.gain / math.Sqrt(float64(fanIn))
	data := make([]float64, count(v.Shape))
	for j := range data {
		data[j] = rand.NormFloat64() * std
	}
	t, err := tensor.New(v.Shape, data)
	if err != nil {
		return nil, err
	}
	return expr.NewShared(v.Name, t), nil
}

func count(shape []int) int {
	n := 1
	for _, dim := range shape {
		n *= dim
	}
	return n
}

type preallocatedInit struct {
	cells map[string]*expr.Shared
}

// Preallocated returns an initializer handing out existing cells by full
// variable name. A variable initialized from it shares storage with
// whatever network owns the cells, so updates on either side are visible
// to both.
func Preallocated(cells map[string]*expr.Shared) Initializer {
	return &preallocatedInit{cells: cells}
}

func (i *preallocatedInit) CanInitialize(v *variable.Variable) bool {
	_, ok := i.cells[v.Name]
	return ok
}

func (i *preallocatedInit) Initialize(v *variable.Variable) (*expr.Shared, error) {
	cell := i.cells[v.Name]
	if !slices.Equal(cell.Shape(), v.Shape) {
		return nil, fmt.Errorf("inits: preallocated cell %q has shape %v, variable wants %v", v.Name, cell.Shape(), v.Shape)
	}
	return cell, nil
}
