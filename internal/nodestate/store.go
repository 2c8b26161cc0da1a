// Package nodestate keeps the per-node build state: created variables, an
// audit trail of their originals, auxiliary data and pushed-down
// hyperparameters.
//
// A build is a single linear pass, so records use plain maps with no
// locking. The hyperparameter search reads records while walking ancestor
// chains; callers must not mutate records while such a walk is in flight.
package nodestate

import (
	"sort"

	"github.com/vk/arbor/internal/variable"
)

// Record is the mutable build state of one node.
type Record struct {
	// CurrentVariables maps local variable names to the node's live
	// variables. Entries may be replaced to splice in a transformed
	// variable under the same name.
	CurrentVariables map[string]*variable.Variable
	// OriginalVariables keeps the first variable ever created under each
	// local name. Entries are never replaced; together with
	// CurrentVariables they form the replace audit trail.
	OriginalVariables map[string]*variable.Variable
	// AdditionalData is free-form auxiliary storage. Keys are disjoint
	// from variable names.
	AdditionalData map[string]any
	// SetHyperparameters holds values this node pushed down, keyed by
	// target node name and then hyperparameter key.
	SetHyperparameters map[string]map[string]any
	// Inputs holds the resolved input variables stored before the node's
	// output computation, keyed by input port name.
	Inputs map[string]*variable.Variable
}

func newRecord() *Record {
	return &Record{
		CurrentVariables:   make(map[string]*variable.Variable),
		OriginalVariables:  make(map[string]*variable.Variable),
		AdditionalData:     make(map[string]any),
		SetHyperparameters: make(map[string]map[string]any),
	}
}

// HasVariable reports whether local exists in either the current or the
// original variable map.
func (r *Record) HasVariable(local string) bool {
	if _, ok := r.CurrentVariables[local]; ok {
		return true
	}
	_, ok := r.OriginalVariables[local]
	return ok
}

// VariableNames returns the current local variable names in sorted order.
func (r *Record) VariableNames() []string {
	names := make([]string, 0, len(r.CurrentVariables))
	for name := range r.CurrentVariables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PushHyperparameter records a value this node pushes to the target node
// under the given key.
func (r *Record) PushHyperparameter(target, key string, value any) {
	m, ok := r.SetHyperparameters[target]
	if !ok {
		m = make(map[string]any)
		r.SetHyperparameters[target] = m
	}
	m[key] = value
}

// PushedHyperparameter returns the value this node pushed to the target
// node under the given key, if any.
func (r *Record) PushedHyperparameter(target, key string) (any, bool) {
	m, ok := r.SetHyperparameters[target]
	if !ok {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

// Store holds one record per node name.
type Store struct {
	records map[string]*Record
}

// New creates an empty store.
func New() *Store {
	return &Store{records: make(map[string]*Record)}
}

// Allocate creates the record for name. Allocating the same name twice
// returns the existing record.
func (s *Store) Allocate(name string) *Record {
	if rec, ok := s.records[name]; ok {
		return rec
	}
	rec := newRecord()
	s.records[name] = rec
	return rec
}

// Record returns the record for name, if allocated.
func (s *Store) Record(name string) (*Record, bool) {
	rec, ok := s.records[name]
	return rec, ok
}

// Len returns the number of allocated records.
func (s *Store) Len() int { return len(s.records) }
