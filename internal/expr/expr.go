package expr

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vk/arbor/internal/tensor"
)

// Expr is a node in the symbolic expression DAG. Expressions are immutable
// after construction and compared by identity: building the same formula
// twice yields two distinct expressions.
type Expr interface {
	// Shape returns the statically known result shape. The returned slice
	// must not be mutated.
	Shape() []int
	// String renders a compact human-readable form for logs and errors.
	String() string

	eval(ec *evalCtx) (*tensor.Tensor, error)
}

// evalCtx memoizes one evaluation pass. Bindings for placeholders and given
// substitutions are seeded into the memo before evaluation starts, so every
// expression is computed at most once per pass.
type evalCtx struct {
	memo map[Expr]*tensor.Tensor
}

func newEvalCtx() *evalCtx {
	return &evalCtx{memo: make(map[Expr]*tensor.Tensor)}
}

func (ec *evalCtx) bind(e Expr, t *tensor.Tensor) {
	ec.memo[e] = t
}

func (ec *evalCtx) eval(e Expr) (*tensor.Tensor, error) {
	if t, ok := ec.memo[e]; ok {
		return t, nil
	}
	t, err := e.eval(ec)
	if err != nil {
		return nil, err
	}
	ec.memo[e] = t
	return t, nil
}

// Placeholder is a named input slot. It has no value of its own; a compiled
// function binds an argument tensor to it on every call.
type Placeholder struct {
	name  string
	shape []int
}

// NewPlaceholder creates a placeholder with the given name and shape.
func NewPlaceholder(name string, shape []int) *Placeholder {
	return &Placeholder{name: name, shape: slices.Clone(shape)}
}

// Name returns the placeholder's name.
func (p *Placeholder) Name() string { return p.name }

// Shape returns the declared input shape.
func (p *Placeholder) Shape() []int { return p.shape }

func (p *Placeholder) String() string { return p.name }

func (p *Placeholder) eval(*evalCtx) (*tensor.Tensor, error) {
	return nil, fmt.Errorf("expr: placeholder %q is not bound to a value", p.name)
}

// Shared is a named mutable cell. Its value persists across function calls
// and is replaced in bulk when a function commits its update rules.
type Shared struct {
	name  string
	value *tensor.Tensor
}

// NewShared creates a shared cell holding the given initial value.
func NewShared(name string, value *tensor.Tensor) *Shared {
	return &Shared{name: name, value: value.Clone()}
}

// Name returns the cell's name.
func (s *Shared) Name() string { return s.name }

// Value returns the cell's current value. The caller must not mutate it.
func (s *Shared) Value() *tensor.Tensor { return s.value }

// SetValue replaces the cell's value. The new value must keep the shape.
func (s *Shared) SetValue(v *tensor.Tensor) error {
	if !s.value.SameShape(v) {
		return fmt.Errorf("expr: cell %q has shape %v, cannot store %v", s.name, s.value.Shape(), v.Shape())
	}
	s.value = v.Clone()
	return nil
}

// Shape returns the shape of the stored value.
func (s *Shared) Shape() []int { return s.value.Shape() }

func (s *Shared) String() string { return s.name }

func (s *Shared) eval(*evalCtx) (*tensor.Tensor, error) {
	return s.value, nil
}

// Const wraps a fixed tensor value.
type Const struct {
	value *tensor.Tensor
}

// NewConst creates a constant expression from the given tensor.
func NewConst(v *tensor.Tensor) *Const {
	return &Const{value: v.Clone()}
}

// Shape returns the constant's shape.
func (c *Const) Shape() []int { return c.value.Shape() }

func (c *Const) String() string { return fmt.Sprintf("const%v", c.value.Shape()) }

func (c *Const) eval(*evalCtx) (*tensor.Tensor, error) {
	return c.value, nil
}

type dotExpr struct {
	a, b  Expr
	shape []int
}

// Dot builds the tensor product a · b. The inner dimensions of the operand
// shapes must agree; see tensor.Dot for the supported rank combinations.
func Dot(a, b Expr) (Expr, error) {
	shape, err := dotShape(a.Shape(), b.Shape())
	if err != nil {
		return nil, err
	}
	return &dotExpr{a: a, b: b, shape: shape}, nil
}

func dotShape(a, b []int) ([]int, error) {
	switch {
	case len(a) == 1 && len(b) == 1 && a[0] == b[0]:
		return []int{}, nil
	case len(a) == 1 && len(b) == 2 && a[0] == b[0]:
		return []int{b[1]}, nil
	case len(a) == 2 && len(b) == 1 && a[1] == b[0]:
		return []int{a[0]}, nil
	case len(a) == 2 && len(b) == 2 && a[1] == b[0]:
		return []int{a[0], b[1]}, nil
	}
	return nil, fmt.Errorf("expr: cannot multiply shapes %v and %v", a, b)
}

func (d *dotExpr) Shape() []int { return d.shape }

func (d *dotExpr) String() string { return fmt.Sprintf("dot(%s, %s)", d.a, d.b) }

func (d *dotExpr) eval(ec *evalCtx) (*tensor.Tensor, error) {
	av, err := ec.eval(d.a)
	if err != nil {
		return nil, err
	}
	bv, err := ec.eval(d.b)
	if err != nil {
		return nil, err
	}
	return tensor.Dot(av, bv)
}

type addExpr struct {
	a, b  Expr
	shape []int
}

// Add builds the elementwise sum a + b. The shapes must match, or b must be
// a vector matching the last axis of matrix a (row broadcast).
func Add(a, b Expr) (Expr, error) {
	shape, err := addShape(a.Shape(), b.Shape())
	if err != nil {
		return nil, err
	}
	return &addExpr{a: a, b: b, shape: shape}, nil
}

func addShape(a, b []int) ([]int, error) {
	if slices.Equal(a, b) {
		return slices.Clone(a), nil
	}
	if len(a) == 2 && len(b) == 1 && a[1] == b[0] {
		return slices.Clone(a), nil
	}
	return nil, fmt.Errorf("expr: cannot add shapes %v and %v", a, b)
}

func (a *addExpr) Shape() []int { return a.shape }

func (a *addExpr) String() string { return fmt.Sprintf("(%s + %s)", a.a, a.b) }

func (a *addExpr) eval(ec *evalCtx) (*tensor.Tensor, error) {
	av, err := ec.eval(a.a)
	if err != nil {
		return nil, err
	}
	bv, err := ec.eval(a.b)
	if err != nil {
		return nil, err
	}
	return tensor.Add(av, bv)
}

type scaleExpr struct {
	x Expr
	k float64
}

// Scale builds k * x.
func Scale(x Expr, k float64) Expr {
	return &scaleExpr{x: x, k: k}
}

func (s *scaleExpr) Shape() []int { return s.x.Shape() }

func (s *scaleExpr) String() string { return fmt.Sprintf("(%v * %s)", s.k, s.x) }

func (s *scaleExpr) eval(ec *evalCtx) (*tensor.Tensor, error) {
	xv, err := ec.eval(s.x)
	if err != nil {
		return nil, err
	}
	return tensor.Scale(xv, s.k), nil
}

type applyExpr struct {
	label string
	fn    func(args ...*tensor.Tensor) (*tensor.Tensor, error)
	shape []int
	args  []Expr
}

// Apply builds an opaque function application. The caller declares the
// result shape; fn receives the evaluated argument tensors and its result
// is checked against the declared shape.
func Apply(label string, shape []int, fn func(args ...*tensor.Tensor) (*tensor.Tensor, error), args ...Expr) Expr {
	return &applyExpr{label: label, fn: fn, shape: slices.Clone(shape), args: args}
}

func (a *applyExpr) Shape() []int { return a.shape }

func (a *applyExpr) String() string {
	parts := make([]string, len(a.args))
	for i, arg := range a.args {
		parts[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", a.label, strings.Join(parts, ", "))
}

func (a *applyExpr) eval(ec *evalCtx) (*tensor.Tensor, error) {
	vals := make([]*tensor.Tensor, len(a.args))
	for i, arg := range a.args {
		v, err := ec.eval(arg)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	out, err := a.fn(vals...)
	if err != nil {
		return nil, fmt.Errorf("expr: %s failed: %w", a.label, err)
	}
	if !slices.Equal(out.Shape(), a.shape) {
		return nil, fmt.Errorf("expr: %s produced shape %v, declared %v", a.label, out.Shape(), a.shape)
	}
	return out, nil
}
