package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTree assembles the shared fixture:
//
//	root
//	├── a
//	│   ├── a1
//	│   └── a2
//	└── b
func buildTree(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, name := range []string{"root", "a", "a1", "a2", "b"} {
		require.NoError(t, g.AddNode(name))
	}
	require.NoError(t, g.AddChild("root", "a"))
	require.NoError(t, g.AddChild("a", "a1"))
	require.NoError(t, g.AddChild("a", "a2"))
	require.NoError(t, g.AddChild("root", "b"))
	return g
}

func TestAddNode(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode("root"))
	assert.Equal(t, "root", g.Root(), "first vertex becomes the root")
	assert.True(t, g.Contains("root"))
	assert.Equal(t, 1, g.Len())

	err := g.AddNode("root")
	assert.ErrorIs(t, err, ErrDuplicateNode)

	err = g.AddNode("")
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestAddChild(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode("root"))
	require.NoError(t, g.AddNode("a"))

	assert.ErrorIs(t, g.AddChild("dne", "a"), ErrUnknownNode)
	assert.ErrorIs(t, g.AddChild("root", "dne"), ErrUnknownNode)

	require.NoError(t, g.AddChild("root", "a"))
	err := g.AddChild("root", "a")
	assert.ErrorIs(t, err, ErrDuplicateNode, "a vertex has at most one parent")
}

func TestTreeTraversals(t *testing.T) {
	g := buildTree(t)

	assert.Equal(t, []string{"root", "a", "a1", "a2", "b"}, g.RootToLeaves())
	assert.Equal(t, []string{"b", "a2", "a1", "a", "root"}, g.LeavesToRoot())
	assert.Equal(t, []string{"a", "a1", "a2"}, g.SubtreeNames("a"))
	assert.Equal(t, []string{"a1", "a2"}, g.Children("a"))
	assert.Empty(t, g.Children("b"))
	assert.Equal(t, []string{"a", "root"}, g.Ancestors("a1"), "closest ancestor first")
	assert.Empty(t, g.Ancestors("root"))
	assert.Nil(t, g.SubtreeNames("dne"))
}

func TestAddDependency(t *testing.T) {
	t.Run("records keyed edges", func(t *testing.T) {
		g := buildTree(t)
		require.NoError(t, g.AddDependency("a1", "a2", "default", "default"))

		edge, ok := g.InputEdge("a2", "default")
		require.True(t, ok)
		assert.Equal(t, "a1", edge.From)
		assert.Equal(t, "default", edge.FromKey)
	})

	t.Run("re-adding a pair replaces its keys", func(t *testing.T) {
		g := buildTree(t)
		require.NoError(t, g.AddDependency("a1", "a2", "default", "default"))
		require.NoError(t, g.AddDependency("a1", "a2", "out", "in"))

		edges := g.Edges()
		require.Len(t, edges, 1)
		assert.Equal(t, "out", edges[0].FromKey)
		assert.Equal(t, "in", edges[0].ToKey)
	})

	t.Run("unknown vertices", func(t *testing.T) {
		g := buildTree(t)
		assert.ErrorIs(t, g.AddDependency("dne", "a", "default", "default"), ErrUnknownNode)
		assert.ErrorIs(t, g.AddDependency("a", "dne", "default", "default"), ErrUnknownNode)
	})

	t.Run("rejects self edge", func(t *testing.T) {
		g := buildTree(t)
		assert.ErrorIs(t, g.AddDependency("a", "a", "default", "default"), ErrDependencyCycle)
	})

	t.Run("rejects cycle", func(t *testing.T) {
		g := buildTree(t)
		require.NoError(t, g.AddDependency("a1", "a2", "default", "default"))
		require.NoError(t, g.AddDependency("a2", "b", "default", "default"))
		assert.ErrorIs(t, g.AddDependency("b", "a1", "default", "default"), ErrDependencyCycle)
	})
}

func TestRemoveDependency(t *testing.T) {
	g := buildTree(t)
	require.NoError(t, g.AddDependency("a1", "a2", "default", "default"))

	assert.ErrorIs(t, g.RemoveDependency("a2", "a1"), ErrNoSuchEdge)
	require.NoError(t, g.RemoveDependency("a1", "a2"))
	_, ok := g.InputEdge("a2", "default")
	assert.False(t, ok)
}

func TestFreeze(t *testing.T) {
	g := buildTree(t)
	require.NoError(t, g.AddDependency("a1", "a2", "default", "default"))
	assert.False(t, g.Frozen())

	g.Freeze()
	assert.True(t, g.Frozen())

	assert.ErrorIs(t, g.AddDependency("a2", "b", "default", "default"), ErrFrozenGraph)
	assert.ErrorIs(t, g.RemoveDependency("a1", "a2"), ErrFrozenGraph)

	// Reads still work on a frozen graph.
	_, ok := g.InputEdge("a2", "default")
	assert.True(t, ok)
}

func TestInputEdgeFirstDeclaredWins(t *testing.T) {
	g := buildTree(t)
	require.NoError(t, g.AddDependency("a1", "b", "default", "in"))
	require.NoError(t, g.AddDependency("a2", "b", "default", "in"))

	edge, ok := g.InputEdge("b", "in")
	require.True(t, ok)
	assert.Equal(t, "a1", edge.From)

	assert.Len(t, g.InputEdges("b"), 2)
}

func TestTopological(t *testing.T) {
	t.Run("no edges keeps declaration order", func(t *testing.T) {
		g := buildTree(t)
		assert.Equal(t, []string{"root", "a", "a1", "a2", "b"}, g.Topological())
	})

	t.Run("edges order dependencies first", func(t *testing.T) {
		g := buildTree(t)
		// b feeds a1, so b must come before a1 despite later declaration.
		require.NoError(t, g.AddDependency("b", "a1", "default", "default"))
		order := g.Topological()
		assert.Equal(t, []string{"root", "a", "a2", "b", "a1"}, order)
	})

	t.Run("ties break by declaration order", func(t *testing.T) {
		g := New()
		for _, name := range []string{"z", "m", "a"} {
			require.NoError(t, g.AddNode(name))
		}
		assert.Equal(t, []string{"z", "m", "a"}, g.Topological())
	})
}
