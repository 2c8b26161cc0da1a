package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("valid matrix", func(t *testing.T) {
		m, err := New([]int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3}, m.Shape())
		assert.Equal(t, 2, m.Rank())
		assert.Equal(t, 6.0, m.At(1, 2))
	})

	t.Run("data length mismatch", func(t *testing.T) {
		_, err := New([]int{2, 2}, []float64{1, 2, 3})
		assert.ErrorContains(t, err, "needs 4 elements")
	})

	t.Run("rank above two rejected", func(t *testing.T) {
		_, err := New([]int{2, 2, 2}, make([]float64, 8))
		assert.ErrorContains(t, err, "rank 3 not supported")
	})

	t.Run("negative dimension rejected", func(t *testing.T) {
		_, err := New([]int{-1}, nil)
		assert.ErrorContains(t, err, "negative dimension")
	})

	t.Run("data is copied", func(t *testing.T) {
		data := []float64{1, 2}
		v, err := New([]int{2}, data)
		require.NoError(t, err)
		data[0] = 99
		assert.Equal(t, 1.0, v.At(0))
	})
}

func TestConstructors(t *testing.T) {
	z := Zeros([]int{2, 2})
	assert.Equal(t, []float64{0, 0, 0, 0}, z.Data())

	f := Fill([]int{3}, 1.5)
	assert.Equal(t, []float64{1.5, 1.5, 1.5}, f.Data())

	s := Scalar(7)
	assert.Equal(t, 0, s.Rank())
	assert.Equal(t, 7.0, s.At())
}

func TestDot(t *testing.T) {
	vec3 := func(a, b, c float64) *Tensor {
		v, err := New([]int{3}, []float64{a, b, c})
		require.NoError(t, err)
		return v
	}

	t.Run("vector dot vector", func(t *testing.T) {
		out, err := Dot(vec3(1, 2, 3), vec3(4, 5, 6))
		require.NoError(t, err)
		assert.Equal(t, 0, out.Rank())
		assert.Equal(t, 32.0, out.At())
	})

	t.Run("vector dot matrix", func(t *testing.T) {
		m, err := New([]int{3, 2}, []float64{1, 2, 3, 4, 5, 6})
		require.NoError(t, err)
		out, err := Dot(vec3(1, 1, 1), m)
		require.NoError(t, err)
		assert.Equal(t, []int{2}, out.Shape())
		assert.Equal(t, []float64{9, 12}, out.Data())
	})

	t.Run("matrix dot vector", func(t *testing.T) {
		m, err := New([]int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
		require.NoError(t, err)
		out, err := Dot(m, vec3(1, 0, 1))
		require.NoError(t, err)
		assert.Equal(t, []int{2}, out.Shape())
		assert.Equal(t, []float64{4, 10}, out.Data())
	})

	t.Run("matrix dot matrix", func(t *testing.T) {
		a, err := New([]int{2, 2}, []float64{1, 2, 3, 4})
		require.NoError(t, err)
		b, err := New([]int{2, 2}, []float64{5, 6, 7, 8})
		require.NoError(t, err)
		out, err := Dot(a, b)
		require.NoError(t, err)
		assert.Equal(t, []float64{19, 22, 43, 50}, out.Data())
	})

	t.Run("inner dimension mismatch", func(t *testing.T) {
		m, err := New([]int{2, 2}, []float64{1, 2, 3, 4})
		require.NoError(t, err)
		_, err = Dot(vec3(1, 2, 3), m)
		assert.ErrorContains(t, err, "cannot multiply")
	})

	t.Run("scalar operand rejected", func(t *testing.T) {
		_, err := Dot(Scalar(1), Scalar(2))
		assert.ErrorContains(t, err, "cannot multiply")
	})
}

func TestAdd(t *testing.T) {
	t.Run("same shape", func(t *testing.T) {
		a := Fill([]int{2, 2}, 1)
		b := Fill([]int{2, 2}, 2)
		out, err := Add(a, b)
		require.NoError(t, err)
		assert.Equal(t, []float64{3, 3, 3, 3}, out.Data())
		// Operands are untouched.
		assert.Equal(t, []float64{1, 1, 1, 1}, a.Data())
	})

	t.Run("broadcast vector over matrix rows", func(t *testing.T) {
		m, err := New([]int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
		require.NoError(t, err)
		b, err := New([]int{3}, []float64{10, 20, 30})
		require.NoError(t, err)
		out, err := Add(m, b)
		require.NoError(t, err)
		assert.Equal(t, []float64{11, 22, 33, 14, 25, 36}, out.Data())
	})

	t.Run("shape mismatch", func(t *testing.T) {
		_, err := Add(Fill([]int{2}, 1), Fill([]int{3}, 1))
		assert.ErrorContains(t, err, "cannot add")
	})
}

func TestScaleAndMap(t *testing.T) {
	v, err := New([]int{3}, []float64{1, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, []float64{2, 4, 6}, Scale(v, 2).Data())
	assert.Equal(t, []float64{2, 3, 4}, Map(v, func(x float64) float64 { return x + 1 }).Data())
	assert.Equal(t, []float64{1, 2, 3}, v.Data())
}

func TestEqualAndClone(t *testing.T) {
	a := Fill([]int{2}, 1)
	b := Fill([]int{2}, 1)
	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, Fill([]int{3}, 1)))
	assert.False(t, Equal(a, Fill([]int{2}, 2)))

	c := a.Clone()
	c.data[0] = 9
	assert.Equal(t, 1.0, a.At(0))
}
