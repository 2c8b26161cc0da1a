package network

import "errors"

var (
	// ErrNotBuilt marks operations that need a built network.
	ErrNotBuilt = errors.New("network is not built")

	// ErrMissingHyperparameter marks a resolution that exhausted every
	// source without finding a value or a fallback.
	ErrMissingHyperparameter = errors.New("missing hyperparameter")

	// ErrDuplicateVariable marks an attempt to create a second variable
	// under an already-used local name.
	ErrDuplicateVariable = errors.New("duplicate variable name")

	// ErrInvalidDataKey marks access to auxiliary data under an empty or
	// never-stored key.
	ErrInvalidDataKey = errors.New("invalid data key")

	// ErrUnresolvedInput marks an input key with no matching dependency
	// edge, or an edge whose sender never produced the referenced output.
	ErrUnresolvedInput = errors.New("unresolved input")

	// ErrInvariantViolation marks a node that broke the output contract
	// during a build.
	ErrInvariantViolation = errors.New("network invariant violated")
)
