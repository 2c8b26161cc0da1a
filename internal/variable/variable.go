// Package variable defines the named, tagged output values produced by
// nodes during a network build.
package variable

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/vk/arbor/internal/expr"
)

// Separator joins a node name and a local variable name into the composite
// variable name, e.g. "lm:weight".
const Separator = ":"

// Tags is a set of string labels attached to a variable, e.g. "parameter"
// or "weight". Searches match on tag supersets.
type Tags map[string]struct{}

// NewTags builds a tag set from the given labels.
func NewTags(labels ...string) Tags {
	t := make(Tags, len(labels))
	for _, label := range labels {
		t[label] = struct{}{}
	}
	return t
}

// Has reports whether the set contains label.
func (t Tags) Has(label string) bool {
	_, ok := t[label]
	return ok
}

// HasAll reports whether the set contains every tag in other.
func (t Tags) HasAll(other Tags) bool {
	for label := range other {
		if !t.Has(label) {
			return false
		}
	}
	return true
}

// List returns the tags in sorted order.
func (t Tags) List() []string {
	labels := make([]string, 0, len(t))
	for label := range t {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func (t Tags) String() string {
	return "[" + strings.Join(t.List(), " ") + "]"
}

// Variable is a single named output owned by exactly one node. The owner is
// recorded as a node name rather than a pointer so that variables can
// outlive any particular view of the network without creating reference
// cycles. Shape, tags and the underlying expression are fixed at creation.
type Variable struct {
	// Name is the composite "owner:local" name, unique within a build.
	Name string
	// Owner is the name of the node that created the variable.
	Owner string
	// Shape is the statically known value shape.
	Shape []int
	// Tags labels the variable for subtree searches.
	Tags Tags
	// Shared marks variables backed by a mutable cell that persists across
	// compiled-function calls.
	Shared bool
	// Expr computes the variable's value.
	Expr expr.Expr
}

// FullName joins a node name and a local variable name.
func FullName(owner, local string) string {
	return owner + Separator + local
}

// New creates a variable. The expression must already be constructed; its
// shape is authoritative and must match the given shape.
func New(owner, local string, shape []int, tags Tags, shared bool, e expr.Expr) (*Variable, error) {
	if local == "" {
		return nil, fmt.Errorf("variable: empty local name on node %q", owner)
	}
	if e == nil {
		return nil, fmt.Errorf("variable: %q has no expression", FullName(owner, local))
	}
	if !slices.Equal(shape, e.Shape()) {
		return nil, fmt.Errorf("variable: %q declared shape %v, expression has %v", FullName(owner, local), shape, e.Shape())
	}
	if tags == nil {
		tags = NewTags()
	}
	return &Variable{
		Name:   FullName(owner, local),
		Owner:  owner,
		Shape:  slices.Clone(shape),
		Tags:   tags,
		Shared: shared,
		Expr:   e,
	}, nil
}

// Cell returns the variable's backing shared cell, if it has one.
func (v *Variable) Cell() (*expr.Shared, bool) {
	cell, ok := v.Expr.(*expr.Shared)
	return cell, ok
}

func (v *Variable) String() string {
	return fmt.Sprintf("%s shape=%v shared=%t tags=%s", v.Name, v.Shape, v.Shared, v.Tags)
}
