// Package update accumulates state-update rules for shared variables during
// a network build. Each rule maps a shared variable to a delta expression;
// the compiled update assigns variable + delta back to the variable's cell.
package update

import (
	"fmt"
	"slices"
	"sort"

	"github.com/vk/arbor/internal/expr"
	"github.com/vk/arbor/internal/variable"
)

// Delta is one accumulated rule: Variable's next value is Variable + Expr.
type Delta struct {
	Variable *variable.Variable
	Expr     expr.Expr
}

// Deltas maps shared variables to their pending delta expressions. Setting
// a delta for a variable that already has one replaces it, which is how a
// more specific rule (set later, deeper in the architecture tree) overrides
// a more general one.
type Deltas struct {
	deltas map[*variable.Variable]expr.Expr
}

// New creates an empty delta set.
func New() *Deltas {
	return &Deltas{deltas: make(map[*variable.Variable]expr.Expr)}
}

// Set records delta as the pending update for v, replacing any existing
// rule. The variable must be shared and the delta must match its shape.
func (d *Deltas) Set(v *variable.Variable, delta expr.Expr) error {
	if !v.Shared {
		return fmt.Errorf("update: %q is not a shared variable", v.Name)
	}
	if !slices.Equal(v.Shape, delta.Shape()) {
		return fmt.Errorf("update: delta for %q has shape %v, want %v", v.Name, delta.Shape(), v.Shape)
	}
	d.deltas[v] = delta
	return nil
}

// Get returns the pending delta for v, if any.
func (d *Deltas) Get(v *variable.Variable) (expr.Expr, bool) {
	e, ok := d.deltas[v]
	return e, ok
}

// Len returns the number of pending rules.
func (d *Deltas) Len() int { return len(d.deltas) }

// Merge copies every rule from other into d, overwriting existing rules for
// the same variable. Merging is right-biased: other wins.
func (d *Deltas) Merge(other *Deltas) {
	for v, e := range other.deltas {
		d.deltas[v] = e
	}
}

// Clone returns an independent copy of the rule set. The expressions are
// shared; only the mapping is copied.
func (d *Deltas) Clone() *Deltas {
	out := New()
	out.Merge(d)
	return out
}

// List returns the rules sorted by variable name, so that compiled update
// order is deterministic.
func (d *Deltas) List() []Delta {
	out := make([]Delta, 0, len(d.deltas))
	for v, e := range d.deltas {
		out = append(out, Delta{Variable: v, Expr: e})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Variable.Name < out[j].Variable.Name })
	return out
}

// Updates compiles the rule set into assignment form: for every rule, the
// variable's cell receives variable + delta. Order follows List.
func (d *Deltas) Updates() ([]expr.Update, error) {
	list := d.List()
	out := make([]expr.Update, 0, len(list))
	for _, delta := range list {
		cell, ok := delta.Variable.Cell()
		if !ok {
			return nil, fmt.Errorf("update: %q has no backing cell", delta.Variable.Name)
		}
		value, err := expr.Add(delta.Variable.Expr, delta.Expr)
		if err != nil {
			return nil, fmt.Errorf("update: compiling rule for %q: %w", delta.Variable.Name, err)
		}
		out = append(out, expr.Update{Target: cell, Value: value})
	}
	return out, nil
}
