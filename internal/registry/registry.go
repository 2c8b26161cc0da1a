package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/arbor/internal/network"
)

// ErrUnknownType marks a node type name with no registered factory.
var ErrUnknownType = errors.New("unknown node type")

// Module is the interface that all core modules must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Spec carries everything a factory may need to build one node instance.
type Spec struct {
	// Name is the instance name, unique within an architecture tree.
	Name string
	// Attrs holds the decoded manifest attributes for the instance.
	Attrs map[string]any
	// Children are the already-built child nodes, in declaration order.
	Children []network.Node
}

// Factory builds a node instance from its spec.
type Factory func(spec Spec) (network.Node, error)

// RegisteredNodeType holds the compiled Go parts of one node type.
type RegisteredNodeType struct {
	New Factory
}

// Registry holds all registered node types for a single application
// instance.
type Registry struct {
	NodeTypeRegistry map[string]*RegisteredNodeType
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		NodeTypeRegistry: make(map[string]*RegisteredNodeType),
	}
}

// RegisterNodeType registers the factory for a node type.
func (r *Registry) RegisterNodeType(name string, t *RegisteredNodeType) {
	if _, exists := r.NodeTypeRegistry[name]; exists {
		panic(fmt.Sprintf("node type with name '%s' already registered", name))
	}
	slog.Debug("Registering node type.", "name", name)
	r.NodeTypeRegistry[name] = t
}

// NewNode builds a node instance of the named type.
func (r *Registry) NewNode(typeName string, spec Spec) (network.Node, error) {
	t, ok := r.NodeTypeRegistry[typeName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}
	return t.New(spec)
}

// Types returns all registered type names, sorted.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.NodeTypeRegistry))
	for name := range r.NodeTypeRegistry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
