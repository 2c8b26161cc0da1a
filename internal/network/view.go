package network

import (
	"fmt"
	"slices"

	"github.com/vk/arbor/internal/expr"
	"github.com/vk/arbor/internal/graph"
	"github.com/vk/arbor/internal/inits"
	"github.com/vk/arbor/internal/nodestate"
	"github.com/vk/arbor/internal/variable"
)

// View is a node's window onto the network during and after a build.
// Variable creation, auxiliary data and hyperparameter resolution are all
// scoped to the bound node.
type View struct {
	net  *Network
	name string
}

// Name returns the name of the bound node.
func (vw *View) Name() string { return vw.name }

// Node returns the bound node.
func (vw *View) Node() Node { return vw.net.nodes[vw.name] }

func (vw *View) rec() *nodestate.Record {
	rec, ok := vw.net.states.Record(vw.name)
	if !ok {
		panic(fmt.Sprintf("network: no state record for node %q", vw.name))
	}
	return rec
}

// VarSpec describes a variable to create on a node.
type VarSpec struct {
	// Shape is the value shape. It may be left nil when Expr is set, in
	// which case the expression's shape is used.
	Shape []int
	// Tags label the variable for subtree searches.
	Tags []string
	// Expr wraps an existing expression as the variable's value. When nil
	// a fresh shared cell is allocated instead.
	Expr expr.Expr
	// Inits are the candidate initializers for a fresh shared cell, tried
	// in order. With none accepting, the cell starts at zero.
	Inits []inits.Initializer
}

func (vw *View) buildVariable(local string, spec VarSpec) (*variable.Variable, error) {
	tags := variable.NewTags(spec.Tags...)
	if spec.Expr != nil {
		shape := spec.Shape
		if shape == nil {
			shape = spec.Expr.Shape()
		}
		_, shared := spec.Expr.(*expr.Shared)
		return variable.New(vw.name, local, shape, tags, shared, spec.Expr)
	}
	proto := &variable.Variable{
		Name:  variable.FullName(vw.name, local),
		Owner: vw.name,
		Shape: slices.Clone(spec.Shape),
		Tags:  tags,
	}
	cell, err := inits.Apply(spec.Inits, proto)
	if err != nil {
		return nil, fmt.Errorf("network: initializing %q: %w", proto.Name, err)
	}
	return variable.New(vw.name, local, spec.Shape, tags, true, cell)
}

// CreateVariable creates a variable on the bound node and registers it
// under the local name.
func (vw *View) CreateVariable(local string, spec VarSpec) (*variable.Variable, error) {
	rec := vw.rec()
	if rec.HasVariable(local) {
		return nil, fmt.Errorf("%w: %q on node %q", ErrDuplicateVariable, local, vw.name)
	}
	v, err := vw.buildVariable(local, spec)
	if err != nil {
		return nil, err
	}
	rec.CurrentVariables[local] = v
	rec.OriginalVariables[local] = v
	return v, nil
}

// CopyVariable creates a variable on the bound node that evaluates to the
// same expression as src. With no tags given the source tags are kept.
func (vw *View) CopyVariable(local string, src *variable.Variable, tags ...string) (*variable.Variable, error) {
	rec := vw.rec()
	if rec.HasVariable(local) {
		return nil, fmt.Errorf("%w: %q on node %q", ErrDuplicateVariable, local, vw.name)
	}
	tagset := variable.NewTags(tags...)
	if len(tags) == 0 {
		tagset = variable.NewTags(src.Tags.List()...)
	}
	v, err := variable.New(vw.name, local, src.Shape, tagset, src.Shared, src.Expr)
	if err != nil {
		return nil, err
	}
	rec.CurrentVariables[local] = v
	rec.OriginalVariables[local] = v
	return v, nil
}

// ReplaceVariable swaps the current variable under the local name for a
// newly built one. The original stays recorded, so the audit trail of a
// build is never lost.
func (vw *View) ReplaceVariable(local string, spec VarSpec) (*variable.Variable, error) {
	rec := vw.rec()
	if _, ok := rec.OriginalVariables[local]; !ok {
		return nil, fmt.Errorf("network: cannot replace unknown variable %q on node %q", local, vw.name)
	}
	v, err := vw.buildVariable(local, spec)
	if err != nil {
		return nil, err
	}
	rec.CurrentVariables[local] = v
	return v, nil
}

// Variable returns the bound node's current variable under the local name.
func (vw *View) Variable(local string) (*variable.Variable, bool) {
	v, ok := vw.rec().CurrentVariables[local]
	return v, ok
}

// OriginalVariable returns the first variable ever created under the local
// name, regardless of later replacements.
func (vw *View) OriginalVariable(local string) (*variable.Variable, bool) {
	v, ok := vw.rec().OriginalVariables[local]
	return v, ok
}

// StoreInputs records the resolved input variables of the bound node. The
// build calls it once, just before output computation.
func (vw *View) StoreInputs(inputs map[string]*variable.Variable) {
	vw.rec().Inputs = inputs
}

// Inputs returns the variables routed into the bound node during the
// build, keyed by input port.
func (vw *View) Inputs() map[string]*variable.Variable {
	return vw.rec().Inputs
}

// SetData stores auxiliary state under key. Keys are append-only and share
// a namespace with the node's variable names, so a collision with either
// fails.
func (vw *View) SetData(key string, value any) error {
	rec := vw.rec()
	if key == "" {
		return fmt.Errorf("%w: empty key on node %q", ErrInvalidDataKey, vw.name)
	}
	if rec.HasVariable(key) {
		return fmt.Errorf("%w: %q collides with a variable on node %q", ErrInvalidDataKey, key, vw.name)
	}
	if _, ok := rec.AdditionalData[key]; ok {
		return fmt.Errorf("%w: %q already stored on node %q", ErrInvalidDataKey, key, vw.name)
	}
	rec.AdditionalData[key] = value
	return nil
}

// Data returns the auxiliary state stored under key.
func (vw *View) Data(key string) (any, error) {
	v, ok := vw.rec().AdditionalData[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q on node %q", ErrInvalidDataKey, key, vw.name)
	}
	return v, nil
}

// SetHyperparameter stores value for key, scoped to the target node. The
// value applies when the resolving node sits at or below target while the
// bound node is the resolving node itself or one of its ancestors.
func (vw *View) SetHyperparameter(target, key string, value any) error {
	if !vw.net.graph.Contains(target) {
		return fmt.Errorf("%w: %q", graph.ErrUnknownNode, target)
	}
	if key == "" {
		return fmt.Errorf("network: empty hyperparameter key pushed to node %q", target)
	}
	vw.rec().PushHyperparameter(target, key, value)
	return nil
}

// ForwardHyperparameter resolves fromKeys against the bound node and
// pushes the result onto target under toKey. With a fallback given, a
// missing hyperparameter forwards the fallback instead of failing.
func (vw *View) ForwardHyperparameter(target, toKey string, fromKeys []string, fallback ...any) error {
	var value any
	if len(fallback) > 0 {
		value = vw.FindHyperparameterOr(fallback[0], fromKeys...)
	} else {
		v, err := vw.FindHyperparameter(fromKeys...)
		if err != nil {
			return err
		}
		value = v
	}
	return vw.SetHyperparameter(target, toKey, value)
}

// AddDependency routes the fromKey output of node from into node to under
// input key toKey.
func (vw *View) AddDependency(from, to, fromKey, toKey string) error {
	return vw.net.graph.AddDependency(from, to, fromKey, toKey)
}

// TakeOutputFrom routes the named node's fromKey output into the bound
// node under toKey. Containers use it to surface a child's output as their
// own.
func (vw *View) TakeOutputFrom(name, fromKey, toKey string) error {
	return vw.net.graph.AddDependency(name, vw.name, fromKey, toKey)
}

// ForwardOutputTo routes the bound node's fromKey output into the named
// node under toKey.
func (vw *View) ForwardOutputTo(name, fromKey, toKey string) error {
	return vw.net.graph.AddDependency(vw.name, name, fromKey, toKey)
}

// RemoveDependency drops the dependency edge between from and to.
func (vw *View) RemoveDependency(from, to string) error {
	return vw.net.graph.RemoveDependency(from, to)
}

// ForwardInputTo reroutes whatever feeds the bound node's fromToKey input
// so that it also feeds the named node under toKey. Wrapper nodes use it
// to hand their own input to an inner child, which may legitimately not
// exist when the wrapper holds the input node itself; ignoreMissing makes
// that case a no-op.
func (vw *View) ForwardInputTo(name, fromToKey, toKey string, ignoreMissing bool) error {
	edge, ok := vw.net.graph.InputEdge(vw.name, fromToKey)
	if !ok {
		if ignoreMissing {
			return nil
		}
		return fmt.Errorf("%w: node %q has no input for key %q", graph.ErrNoSuchEdge, vw.name, fromToKey)
	}
	return vw.net.graph.AddDependency(edge.From, name, edge.FromKey, toKey)
}

// SubtreeFilter selects variables in a subtree search. The zero value
// matches every variable.
type SubtreeFilter struct {
	// Tags must all be present on a matching variable.
	Tags []string
	// Shared, when set, restricts the match to variables with (true) or
	// without (false) a backing cell.
	Shared *bool
}

func (f SubtreeFilter) matches(v *variable.Variable) bool {
	if !v.Tags.HasAll(variable.NewTags(f.Tags...)) {
		return false
	}
	if f.Shared != nil && v.Shared != *f.Shared {
		return false
	}
	return true
}

// FindNodesInSubtree returns the names of the bound node and all of its
// architecture descendants satisfying pred, in declaration order. A nil
// pred matches every node.
func (vw *View) FindNodesInSubtree(pred func(Node) bool) []string {
	var out []string
	for _, name := range vw.net.graph.SubtreeNames(vw.name) {
		if pred == nil || pred(vw.net.nodes[name]) {
			out = append(out, name)
		}
	}
	return out
}

// FindVariablesInSubtree returns every current variable in the bound
// node's subtree accepted by the filter, ordered by node declaration and
// then variable name.
func (vw *View) FindVariablesInSubtree(filter SubtreeFilter) []*variable.Variable {
	var out []*variable.Variable
	for _, name := range vw.net.graph.SubtreeNames(vw.name) {
		rec, ok := vw.net.states.Record(name)
		if !ok {
			continue
		}
		for _, local := range rec.VariableNames() {
			v, ok := rec.CurrentVariables[local]
			if !ok {
				continue
			}
			if filter.matches(v) {
				out = append(out, v)
			}
		}
	}
	return out
}
