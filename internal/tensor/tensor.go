// Package tensor implements the dense numeric values flowing through
// compiled dataflow functions. It supports scalars, vectors and matrices;
// matrix products are delegated to gonum.
package tensor

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Tensor is a dense, row-major float64 value of rank 0 (scalar), 1 (vector)
// or 2 (matrix). The zero value is not usable; use one of the constructors.
type Tensor struct {
	shape []int
	data  []float64
}

// New creates a tensor with the given shape and data. The data slice is
// copied. The data length must match the shape's element count.
func New(shape []int, data []float64) (*Tensor, error) {
	if err := validateShape(shape); err != nil {
		return nil, err
	}
	if len(data) != elemCount(shape) {
		return nil, fmt.Errorf("tensor: shape %v needs %d elements, got %d", shape, elemCount(shape), len(data))
	}
	return &Tensor{shape: slices.Clone(shape), data: slices.Clone(data)}, nil
}

// Zeros creates a zero-filled tensor with the given shape.
func Zeros(shape []int) *Tensor {
	return mustFill(shape, 0)
}

// Fill creates a tensor with the given shape where every element is v.
func Fill(shape []int, v float64) *Tensor {
	return mustFill(shape, v)
}

// Scalar creates a rank-0 tensor holding v.
func Scalar(v float64) *Tensor {
	return &Tensor{shape: []int{}, data: []float64{v}}
}

func mustFill(shape []int, v float64) *Tensor {
	if err := validateShape(shape); err != nil {
		panic(err)
	}
	data := make([]float64, elemCount(shape))
	for i := range data {
		data[i] = v
	}
	return &Tensor{shape: slices.Clone(shape), data: data}
}

func validateShape(shape []int) error {
	if len(shape) > 2 {
		return fmt.Errorf("tensor: rank %d not supported (max 2)", len(shape))
	}
	for _, dim := range shape {
		if dim < 0 {
			return fmt.Errorf("tensor: negative dimension in shape %v", shape)
		}
	}
	return nil
}

func elemCount(shape []int) int {
	n := 1
	for _, dim := range shape {
		n *= dim
	}
	return n
}

// Shape returns the tensor's shape. The returned slice must not be mutated.
func (t *Tensor) Shape() []int { return t.shape }

// Rank returns the number of axes.
func (t *Tensor) Rank() int { return len(t.shape) }

// Data returns the underlying row-major data. The returned slice must not
// be mutated; use Clone for a private copy.
func (t *Tensor) Data() []float64 { return t.data }

// Clone returns a deep copy of t.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{shape: slices.Clone(t.shape), data: slices.Clone(t.data)}
}

// SameShape reports whether t and other have identical shapes.
func (t *Tensor) SameShape(other *Tensor) bool {
	return slices.Equal(t.shape, other.shape)
}

// At returns the element at the given indices. The number of indices must
// equal the rank.
func (t *Tensor) At(indices ...int) float64 {
	return t.data[t.offset(indices)]
}

func (t *Tensor) offset(indices []int) int {
	if len(indices) != len(t.shape) {
		panic(fmt.Sprintf("tensor: %d indices for rank-%d tensor", len(indices), len(t.shape)))
	}
	off := 0
	for axis, idx := range indices {
		if idx < 0 || idx >= t.shape[axis] {
			panic(fmt.Sprintf("tensor: index %d out of range for axis %d of shape %v", idx, axis, t.shape))
		}
		off = off*t.shape[axis] + idx
	}
	return off
}

// Dot computes the tensor product of a and b:
//
//	vector · vector -> scalar
//	vector · matrix -> vector
//	matrix · matrix -> matrix
//	matrix · vector -> vector
//
// The inner dimensions must agree.
func Dot(a, b *Tensor) (*Tensor, error) {
	switch {
	case a.Rank() == 1 && b.Rank() == 1:
		if a.shape[0] != b.shape[0] {
			return nil, dotShapeError(a, b)
		}
		v := mat.Dot(mat.NewVecDense(a.shape[0], a.data), mat.NewVecDense(b.shape[0], b.data))
		return Scalar(v), nil

	case a.Rank() == 1 && b.Rank() == 2:
		if a.shape[0] != b.shape[0] {
			return nil, dotShapeError(a, b)
		}
		var out mat.Dense
		out.Mul(mat.NewDense(1, a.shape[0], a.data), mat.NewDense(b.shape[0], b.shape[1], b.data))
		return New([]int{b.shape[1]}, mat.Row(nil, 0, &out))

	case a.Rank() == 2 && b.Rank() == 1:
		if a.shape[1] != b.shape[0] {
			return nil, dotShapeError(a, b)
		}
		var out mat.VecDense
		out.MulVec(mat.NewDense(a.shape[0], a.shape[1], a.data), mat.NewVecDense(b.shape[0], b.data))
		return New([]int{a.shape[0]}, mat.Col(nil, 0, &out))

	case a.Rank() == 2 && b.Rank() == 2:
		if a.shape[1] != b.shape[0] {
			return nil, dotShapeError(a, b)
		}
		var out mat.Dense
		out.Mul(mat.NewDense(a.shape[0], a.shape[1], a.data), mat.NewDense(b.shape[0], b.shape[1], b.data))
		data := make([]float64, a.shape[0]*b.shape[1])
		for i := 0; i < a.shape[0]; i++ {
			mat.Row(data[i*b.shape[1]:(i+1)*b.shape[1]], i, &out)
		}
		return New([]int{a.shape[0], b.shape[1]}, data)

	default:
		return nil, dotShapeError(a, b)
	}
}

func dotShapeError(a, b *Tensor) error {
	return fmt.Errorf("tensor: cannot multiply shapes %v and %v", a.shape, b.shape)
}

// Add computes the elementwise sum of a and b. When a is a matrix and b a
// vector matching a's last axis, b is broadcast over a's rows.
func Add(a, b *Tensor) (*Tensor, error) {
	if a.SameShape(b) {
		out := a.Clone()
		for i, v := range b.data {
			out.data[i] += v
		}
		return out, nil
	}
	if a.Rank() == 2 && b.Rank() == 1 && a.shape[1] == b.shape[0] {
		out := a.Clone()
		for row := 0; row < a.shape[0]; row++ {
			for col := 0; col < a.shape[1]; col++ {
				out.data[row*a.shape[1]+col] += b.data[col]
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("tensor: cannot add shapes %v and %v", a.shape, b.shape)
}

// Scale returns t with every element multiplied by k.
func Scale(t *Tensor, k float64) *Tensor {
	out := t.Clone()
	for i := range out.data {
		out.data[i] *= k
	}
	return out
}

// Map returns a tensor of the same shape with fn applied to every element.
func Map(t *Tensor, fn func(float64) float64) *Tensor {
	out := t.Clone()
	for i := range out.data {
		out.data[i] = fn(out.data[i])
	}
	return out
}

// Equal reports whether a and b have the same shape and identical elements.
func Equal(a, b *Tensor) bool {
	return a.SameShape(b) && slices.Equal(a.data, b.data)
}

// String renders the shape and data for debugging and error messages.
func (t *Tensor) String() string {
	return fmt.Sprintf("tensor%v%v", t.shape, t.data)
}
