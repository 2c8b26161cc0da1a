package network

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/vk/arbor/internal/ctxlog"
	"github.com/vk/arbor/internal/graph"
	"github.com/vk/arbor/internal/nodestate"
	"github.com/vk/arbor/internal/update"
	"github.com/vk/arbor/internal/variable"
)

// DefaultKey is the variable name and port key used when none is given.
// Every node owns a variable with this name after its output computation.
const DefaultKey = "default"

// Options configures hyperparameter sources outside the architecture tree.
type Options struct {
	// OverrideHyperparameters win over every value found in the tree.
	OverrideHyperparameters map[string]any
	// DefaultHyperparameters are consulted last, after tree values and
	// caller fallbacks. "batch_axis" defaults to 0 unless set here.
	DefaultHyperparameters map[string]any
}

// Network drives the build of an architecture tree and owns the result:
// the frozen graph, per-node state and accumulated update deltas.
type Network struct {
	root      Node
	overrides map[string]any
	defaults  map[string]any

	graph  *graph.Graph
	states *nodestate.Store
	nodes  map[string]Node
	deltas *update.Deltas
	built  bool
}

// New creates an unbuilt network around root. It panics on a nil root,
// which is always a programming error.
func New(root Node, opts Options) *Network {
	if root == nil {
		panic("network: nil root node")
	}
	defaults := map[string]any{"batch_axis": 0}
	maps.Copy(defaults, opts.DefaultHyperparameters)
	overrides := make(map[string]any, len(opts.OverrideHyperparameters))
	maps.Copy(overrides, opts.OverrideHyperparameters)
	return &Network{
		root:      root,
		overrides: overrides,
		defaults:  defaults,
	}
}

// Build runs the full build sequence. It is idempotent: once a build has
// succeeded, further calls return nil without touching any state. A failed
// build leaves the network unbuilt and a later call starts over.
func (n *Network) Build(ctx context.Context) error {
	if n.built {
		return nil
	}
	log := ctxlog.FromContext(ctx)

	log.Debug("Expanding architecture tree", "root", n.root.Name())
	if err := n.initGraph(); err != nil {
		return err
	}
	log.Debug("Initializing long-range dependencies", "nodes", n.graph.Len())
	if err := n.initLongRangeDependencies(); err != nil {
		return err
	}
	log.Debug("Initializing node state")
	if err := n.initState(); err != nil {
		return err
	}
	n.graph.Freeze()
	log.Debug("Computing outputs")
	if err := n.computeOutputs(ctx); err != nil {
		return err
	}
	log.Debug("Accumulating update deltas")
	if err := n.accumulateUpdates(); err != nil {
		return err
	}
	n.built = true
	log.Debug("Network built", "nodes", n.graph.Len(), "updates", n.deltas.Len())
	return nil
}

// initGraph expands the architecture tree into a fresh graph and allocates
// a state record per node. Node names must be unique across the whole tree
// and must not contain the variable name separator.
func (n *Network) initGraph() error {
	g := graph.New()
	states := nodestate.New()
	nodes := make(map[string]Node)

	var register func(parent string, nd Node) error
	register = func(parent string, nd Node) error {
		name := nd.Name()
		if name == "" || strings.Contains(name, variable.Separator) {
			return fmt.Errorf("network: invalid node name %q", name)
		}
		if err := g.AddNode(name); err != nil {
			return err
		}
		if parent != "" {
			if err := g.AddChild(parent, name); err != nil {
				return err
			}
		}
		nodes[name] = nd
		states.Allocate(name)
		for _, child := range nd.ArchitectureChildren() {
			if err := register(name, child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := register("", n.root); err != nil {
		return err
	}

	n.graph = g
	n.states = states
	n.nodes = nodes
	n.deltas = update.New()
	return nil
}

func (n *Network) initLongRangeDependencies() error {
	for _, name := range n.graph.RootToLeaves() {
		init, ok := n.nodes[name].(LongRangeInitializer)
		if !ok {
			continue
		}
		if err := init.InitLongRangeDependencies(n.view(name)); err != nil {
			return fmt.Errorf("network: long-range init of %q: %w", name, err)
		}
	}
	return nil
}

func (n *Network) initState() error {
	for _, name := range n.graph.RootToLeaves() {
		init, ok := n.nodes[name].(StateInitializer)
		if !ok {
			continue
		}
		if err := init.InitState(n.view(name)); err != nil {
			return fmt.Errorf("network: state init of %q: %w", name, err)
		}
	}
	return nil
}

// computeOutputs visits nodes in dependency order, resolves the inputs
// each node asked for and lets the node build its outputs.
func (n *Network) computeOutputs(ctx context.Context) error {
	log := ctxlog.FromContext(ctx)
	for _, name := range n.graph.Topological() {
		node := n.nodes[name]
		vw := n.view(name)
		rec, _ := n.states.Record(name)

		keys := node.InputKeys(vw)
		inputs := make([]*variable.Variable, 0, len(keys))
		resolved := make(map[string]*variable.Variable, len(keys))
		for _, key := range keys {
			edge, ok := n.graph.InputEdge(name, key)
			if !ok {
				return fmt.Errorf("%w: node %q has no dependency for input key %q", ErrUnresolvedInput, name, key)
			}
			sender, _ := n.states.Record(edge.From)
			v, ok := sender.CurrentVariables[edge.FromKey]
			if !ok {
				return fmt.Errorf("%w: node %q has no output %q wanted by %q", ErrUnresolvedInput, edge.From, edge.FromKey, name)
			}
			inputs = append(inputs, v)
			resolved[key] = v
		}
		vw.StoreInputs(resolved)

		log.Debug("Computing node output", "node", name, "inputs", len(inputs))
		if err := node.ComputeOutput(vw, inputs); err != nil {
			return fmt.Errorf("network: computing output of %q: %w", name, err)
		}
		if _, ok := rec.CurrentVariables[DefaultKey]; !ok {
			return fmt.Errorf("%w: node %q computed no %q output", ErrInvariantViolation, name, DefaultKey)
		}
	}
	return nil
}

// accumulateUpdates collects update deltas root to leaves. Later visits
// are deeper in the tree, so a descendant's rule for a variable replaces
// an ancestor's.
func (n *Network) accumulateUpdates() error {
	deltas := update.New()
	for _, name := range n.graph.RootToLeaves() {
		mut, ok := n.nodes[name].(UpdateMutator)
		if !ok {
			continue
		}
		if err := mut.MutateUpdateDeltas(n.view(name), deltas); err != nil {
			return fmt.Errorf("network: update deltas of %q: %w", name, err)
		}
	}
	n.deltas = deltas
	return nil
}

func (n *Network) view(name string) *View {
	return &View{net: n, name: name}
}

// View returns a view bound to the named node. The network must be built.
func (n *Network) View(name string) (*View, error) {
	if !n.built {
		return nil, ErrNotBuilt
	}
	if !n.graph.Contains(name) {
		return nil, fmt.Errorf("%w: %q", graph.ErrUnknownNode, name)
	}
	return n.view(name), nil
}

// Root returns the architecture root node.
func (n *Network) Root() Node { return n.root }

// Built reports whether a build has completed.
func (n *Network) Built() bool { return n.built }

// Graph returns the computation graph. It is nil before the first Build
// call and frozen after a successful one.
func (n *Network) Graph() *graph.Graph { return n.graph }

// UpdateDeltas returns the update rules accumulated by the build.
func (n *Network) UpdateDeltas() *update.Deltas { return n.deltas }

// Variables returns every current variable in the network accepted by the
// filter. It is empty until the network is built.
func (n *Network) Variables(filter SubtreeFilter) []*variable.Variable {
	if !n.built {
		return nil
	}
	return n.view(n.graph.Root()).FindVariablesInSubtree(filter)
}
