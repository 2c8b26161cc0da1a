package nodes

import (
	"fmt"
	"slices"

	"github.com/vk/arbor/internal/network"
	"github.com/vk/arbor/internal/registry"
)

// Module implements the registry.Module interface for the core node types.
type Module struct{}

// Register registers every core node type with the registry. Apply is
// deliberately absent: its parameters are functions, which a document
// cannot declare.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterNodeType("input", &registry.RegisteredNodeType{New: newInputNode})
	r.RegisterNodeType("identity", &registry.RegisteredNodeType{New: newIdentityNode})
	r.RegisterNodeType("linear_mapping", &registry.RegisteredNodeType{New: newLinearMappingNode})
	r.RegisterNodeType("add_bias", &registry.RegisteredNodeType{New: newAddBiasNode})
	r.RegisterNodeType("sequential", &registry.RegisteredNodeType{New: newSequentialNode})
	r.RegisterNodeType("hyperparameters", &registry.RegisteredNodeType{New: newHyperparametersNode})
	r.RegisterNodeType("constant_updater", &registry.RegisteredNodeType{New: newConstantUpdaterNode})
}

func checkAttrs(typeName string, spec registry.Spec, declared []string) error {
	for key := range spec.Attrs {
		if !slices.Contains(declared, key) {
			return fmt.Errorf("nodes: %s %q: unknown attribute %q", typeName, spec.Name, key)
		}
	}
	return nil
}

func checkLeaf(typeName string, spec registry.Spec) error {
	if len(spec.Children) != 0 {
		return fmt.Errorf("nodes: %s %q takes no child nodes", typeName, spec.Name)
	}
	return nil
}

func onlyChild(typeName string, spec registry.Spec) (network.Node, error) {
	if len(spec.Children) != 1 {
		return nil, fmt.Errorf("nodes: %s %q takes exactly one child node, got %d", typeName, spec.Name, len(spec.Children))
	}
	return spec.Children[0], nil
}

func newInputNode(spec registry.Spec) (network.Node, error) {
	if err := checkLeaf("input", spec); err != nil {
		return nil, err
	}
	if err := checkAttrs("input", spec, inputHyperparameters); err != nil {
		return nil, err
	}
	return NewInput(spec.Name, HP(spec.Attrs)), nil
}

func newIdentityNode(spec registry.Spec) (network.Node, error) {
	if err := checkLeaf("identity", spec); err != nil {
		return nil, err
	}
	if err := checkAttrs("identity", spec, nil); err != nil {
		return nil, err
	}
	return NewIdentity(spec.Name), nil
}

func newLinearMappingNode(spec registry.Spec) (network.Node, error) {
	if err := checkLeaf("linear_mapping", spec); err != nil {
		return nil, err
	}
	if err := checkAttrs("linear_mapping", spec, linearMappingHyperparameters); err != nil {
		return nil, err
	}
	return NewLinearMapping(spec.Name, HP(spec.Attrs)), nil
}

func newAddBiasNode(spec registry.Spec) (network.Node, error) {
	if err := checkLeaf("add_bias", spec); err != nil {
		return nil, err
	}
	if err := checkAttrs("add_bias", spec, addBiasHyperparameters); err != nil {
		return nil, err
	}
	return NewAddBias(spec.Name, HP(spec.Attrs)), nil
}

func newSequentialNode(spec registry.Spec) (network.Node, error) {
	if err := checkAttrs("sequential", spec, nil); err != nil {
		return nil, err
	}
	if len(spec.Children) == 0 {
		return nil, fmt.Errorf("nodes: sequential %q needs at least one child node", spec.Name)
	}
	return NewSequential(spec.Name, spec.Children), nil
}

func newHyperparametersNode(spec registry.Spec) (network.Node, error) {
	child, err := onlyChild("hyperparameters", spec)
	if err != nil {
		return nil, err
	}
	return NewHyperparameters(spec.Name, HP(spec.Attrs), child), nil
}

func newConstantUpdaterNode(spec registry.Spec) (network.Node, error) {
	child, err := onlyChild("constant_updater", spec)
	if err != nil {
		return nil, err
	}
	if err := checkAttrs("constant_updater", spec, constantUpdaterHyperparameters); err != nil {
		return nil, err
	}
	return NewConstantUpdater(spec.Name, HP(spec.Attrs), child), nil
}
