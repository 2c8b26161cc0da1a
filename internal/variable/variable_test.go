package variable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/arbor/internal/expr"
	"github.com/vk/arbor/internal/tensor"
)

func TestTags(t *testing.T) {
	tags := NewTags("parameter", "weight")

	assert.True(t, tags.Has("weight"))
	assert.False(t, tags.Has("bias"))
	assert.True(t, tags.HasAll(NewTags("parameter")))
	assert.True(t, tags.HasAll(NewTags()))
	assert.False(t, tags.HasAll(NewTags("parameter", "bias")))
	assert.Equal(t, []string{"parameter", "weight"}, tags.List(), "List is sorted")
	assert.Equal(t, "[parameter weight]", tags.String())
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "lm:weight", FullName("lm", "weight"))
}

func TestNew(t *testing.T) {
	cell := expr.NewShared("lm:weight", tensor.Zeros([]int{3, 2}))

	t.Run("valid shared variable", func(t *testing.T) {
		v, err := New("lm", "weight", []int{3, 2}, NewTags("parameter", "weight"), true, cell)
		require.NoError(t, err)
		assert.Equal(t, "lm:weight", v.Name)
		assert.Equal(t, "lm", v.Owner)
		assert.True(t, v.Shared)

		got, ok := v.Cell()
		require.True(t, ok)
		assert.Same(t, cell, got)
	})

	t.Run("nil tags become empty set", func(t *testing.T) {
		v, err := New("lm", "weight", []int{3, 2}, nil, true, cell)
		require.NoError(t, err)
		assert.NotNil(t, v.Tags)
		assert.Empty(t, v.Tags.List())
	})

	t.Run("empty local name", func(t *testing.T) {
		_, err := New("lm", "", []int{3, 2}, nil, true, cell)
		assert.ErrorContains(t, err, "empty local name")
	})

	t.Run("nil expression", func(t *testing.T) {
		_, err := New("lm", "weight", []int{3, 2}, nil, true, nil)
		assert.ErrorContains(t, err, "has no expression")
	})

	t.Run("shape must match expression", func(t *testing.T) {
		_, err := New("lm", "weight", []int{2, 2}, nil, true, cell)
		assert.ErrorContains(t, err, "declared shape")
	})

	t.Run("non-cell expression has no cell", func(t *testing.T) {
		ph := expr.NewPlaceholder("x:default", []int{4})
		v, err := New("x", "default", []int{4}, NewTags("input"), false, ph)
		require.NoError(t, err)
		_, ok := v.Cell()
		assert.False(t, ok)
	})
}
