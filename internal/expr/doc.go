// Package expr implements the symbolic expression DAG produced by network
// builds and consumed by compiled functions.
//
// An Expr describes how to compute one tensor from others. Leaf expressions
// are placeholders (named inputs bound at call time), shared cells (named
// mutable state surviving across calls) and constants. Composite expressions
// combine other expressions and carry their statically inferred shape, so a
// shape mismatch surfaces while the graph is being built rather than when it
// is first evaluated.
//
// A Func is the compiled form: a fixed list of input placeholders, output
// expressions and update rules. Calling it binds argument tensors to the
// placeholders, evaluates every output and update value against the
// pre-update state of all shared cells, then commits the updates together.
package expr
