package graph

import (
	"errors"
	"fmt"
	"slices"
)

// Sentinel errors for graph operations. Callers match them with errors.Is.
var (
	ErrDuplicateNode   = errors.New("duplicate node name")
	ErrUnknownNode     = errors.New("unknown node name")
	ErrFrozenGraph     = errors.New("graph is frozen")
	ErrDependencyCycle = errors.New("dependency would create a cycle")
	ErrNoSuchEdge      = errors.New("no such dependency edge")
)

// state is the graph's mutability. There are exactly two states and the
// transition is one-way.
type state int

const (
	stateMutable state = iota
	stateFrozen
)

// Edge is one dependency edge in the computation DAG. FromKey names the
// output of From that feeds the ToKey input of To.
type Edge struct {
	From    string
	To      string
	FromKey string
	ToKey   string
}

// Graph is the dual architecture-tree / computation-DAG structure. It is
// not safe for concurrent use; a build is a single linear pass.
type Graph struct {
	state state

	// names holds every vertex in declaration order. Declaration order
	// breaks ties in Topological, which keeps builds deterministic.
	names    []string
	present  map[string]struct{}
	root     string
	parent   map[string]string
	children map[string][]string

	// edges holds dependency edges in declaration order. Re-adding an
	// existing (from, to) pair replaces its port keys in place.
	edges []*Edge
}

// New creates an empty, mutable graph.
func New() *Graph {
	return &Graph{
		present:  make(map[string]struct{}),
		parent:   make(map[string]string),
		children: make(map[string][]string),
	}
}

// AddNode registers a vertex. The first vertex added becomes the root of
// the architecture tree. Names must be unique.
func (g *Graph) AddNode(name string) error {
	if name == "" {
		return fmt.Errorf("graph: %w: empty name", ErrUnknownNode)
	}
	if _, ok := g.present[name]; ok {
		return fmt.Errorf("graph: %w: %q", ErrDuplicateNode, name)
	}
	if len(g.names) == 0 {
		g.root = name
	}
	g.names = append(g.names, name)
	g.present[name] = struct{}{}
	return nil
}

// AddChild records a containment edge from parent to child. Both vertices
// must already exist and the child must not have a parent yet.
func (g *Graph) AddChild(parent, child string) error {
	if err := g.checkKnown(parent); err != nil {
		return err
	}
	if err := g.checkKnown(child); err != nil {
		return err
	}
	if _, ok := g.parent[child]; ok {
		return fmt.Errorf("graph: %w: %q already has a parent", ErrDuplicateNode, child)
	}
	g.parent[child] = parent
	g.children[parent] = append(g.children[parent], child)
	return nil
}

func (g *Graph) checkKnown(name string) error {
	if _, ok := g.present[name]; !ok {
		return fmt.Errorf("graph: %w: %q", ErrUnknownNode, name)
	}
	return nil
}

// Contains reports whether the named vertex exists.
func (g *Graph) Contains(name string) bool {
	_, ok := g.present[name]
	return ok
}

// Root returns the root of the architecture tree.
func (g *Graph) Root() string { return g.root }

// Len returns the number of vertices.
func (g *Graph) Len() int { return len(g.names) }

// Frozen reports whether the dependency edges are locked.
func (g *Graph) Frozen() bool { return g.state == stateFrozen }

// Freeze locks the dependency edges. The transition is one-way; every
// later edit fails with ErrFrozenGraph.
func (g *Graph) Freeze() { g.state = stateFrozen }

// RootToLeaves returns all vertices in architecture-tree pre-order: every
// parent before any of its children, children in declaration order.
func (g *Graph) RootToLeaves() []string {
	if g.root == "" {
		return nil
	}
	return g.SubtreeNames(g.root)
}

// LeavesToRoot returns all vertices in architecture-tree post-order: every
// child before its parent.
func (g *Graph) LeavesToRoot() []string {
	pre := g.RootToLeaves()
	slices.Reverse(pre)
	return pre
}

// SubtreeNames returns the names in the architecture subtree rooted at
// name, in pre-order, starting with name itself.
func (g *Graph) SubtreeNames(name string) []string {
	if !g.Contains(name) {
		return nil
	}
	var out []string
	var walk func(n string)
	walk = func(n string) {
		out = append(out, n)
		for _, child := range g.children[n] {
			walk(child)
		}
	}
	walk(name)
	return out
}

// Children returns the direct children of name in declaration order.
func (g *Graph) Children(name string) []string {
	return slices.Clone(g.children[name])
}

// Ancestors returns the chain of ancestors of name, closest first, ending
// at the root. The node itself is not included.
func (g *Graph) Ancestors(name string) []string {
	var out []string
	for {
		p, ok := g.parent[name]
		if !ok {
			return out
		}
		out = append(out, p)
		name = p
	}
}

// AddDependency records a dependency edge from -> to carrying the given
// port pair. Adding an edge for an existing (from, to) pair replaces its
// port keys. Fails on a frozen graph, on unknown vertices, and on any edge
// that would close a cycle (including self-edges).
func (g *Graph) AddDependency(from, to, fromKey, toKey string) error {
	if g.Frozen() {
		return fmt.Errorf("graph: %w: cannot add dependency %s -> %s", ErrFrozenGraph, from, to)
	}
	if err := g.checkKnown(from); err != nil {
		return err
	}
	if err := g.checkKnown(to); err != nil {
		return err
	}
	if existing := g.findEdge(from, to); existing != nil {
		existing.FromKey = fromKey
		existing.ToKey = toKey
		return nil
	}
	if from == to || g.reachable(to, from) {
		return fmt.Errorf("graph: %w: %s -> %s", ErrDependencyCycle, from, to)
	}
	g.edges = append(g.edges, &Edge{From: from, To: to, FromKey: fromKey, ToKey: toKey})
	return nil
}

// RemoveDependency deletes the dependency edge from -> to. Fails on a
// frozen graph or when the edge does not exist.
func (g *Graph) RemoveDependency(from, to string) error {
	if g.Frozen() {
		return fmt.Errorf("graph: %w: cannot remove dependency %s -> %s", ErrFrozenGraph, from, to)
	}
	for i, e := range g.edges {
		if e.From == from && e.To == to {
			g.edges = slices.Delete(g.edges, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("graph: %w: %s -> %s", ErrNoSuchEdge, from, to)
}

func (g *Graph) findEdge(from, to string) *Edge {
	for _, e := range g.edges {
		if e.From == from && e.To == to {
			return e
		}
	}
	return nil
}

// reachable reports whether to can be reached from from along dependency
// edges.
func (g *Graph) reachable(from, to string) bool {
	seen := make(map[string]struct{})
	var visit func(n string) bool
	visit = func(n string) bool {
		if n == to {
			return true
		}
		if _, ok := seen[n]; ok {
			return false
		}
		seen[n] = struct{}{}
		for _, e := range g.edges {
			if e.From == n && visit(e.To) {
				return true
			}
		}
		return false
	}
	return visit(from)
}

// InputEdge returns the dependency edge feeding the toKey input port of
// to, or false when the port is unconnected. With multiple edges on the
// same port, the first declared wins.
func (g *Graph) InputEdge(to, toKey string) (*Edge, bool) {
	for _, e := range g.edges {
		if e.To == to && e.ToKey == toKey {
			return e, true
		}
	}
	return nil, false
}

// InputEdges returns all dependency edges into to, in declaration order.
func (g *Graph) InputEdges(to string) []*Edge {
	var out []*Edge
	for _, e := range g.edges {
		if e.To == to {
			out = append(out, e)
		}
	}
	return out
}

// Edges returns all dependency edges in declaration order.
func (g *Graph) Edges() []*Edge {
	return slices.Clone(g.edges)
}

// Topological returns every vertex ordered so that for each dependency
// edge u -> v, u appears before v. Vertices that tie are emitted in
// declaration order, so the result is stable across builds.
func (g *Graph) Topological() []string {
	indegree := make(map[string]int, len(g.names))
	for _, name := range g.names {
		indegree[name] = 0
	}
	for _, e := range g.edges {
		indegree[e.To]++
	}

	out := make([]string, 0, len(g.names))
	emitted := make(map[string]struct{}, len(g.names))
	for len(out) < len(g.names) {
		progressed := false
		for _, name := range g.names {
			if _, done := emitted[name]; done {
				continue
			}
			if indegree[name] > 0 {
				continue
			}
			emitted[name] = struct{}{}
			out = append(out, name)
			for _, e := range g.edges {
				if e.From == name {
					indegree[e.To]--
				}
			}
			progressed = true
			break
		}
		if !progressed {
			// Unreachable: AddDependency rejects cycles.
			panic("graph: cycle in dependency edges")
		}
	}
	return out
}
