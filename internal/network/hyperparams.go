package network

import (
	"fmt"
	"iter"
	"slices"
)

// Hyperparameter resolution walks a fixed precedence order and yields
// every match lazily:
//
//  1. Network-level overrides, checked key by key.
//  2. The ancestor chain of the bound node, closest first. For each chain
//     node, each key is checked against the values that node pushed onto
//     any already-visited chain member, and then against the values the
//     node provides itself for keys it declares.
//  3. The caller's fallback, when one was given.
//  4. Network-level defaults, checked key by key.
//
// The search is restartable: ranging over the sequence twice performs the
// walk twice against current state.
func (vw *View) hyperparameterSeq(keys []string, fallback any, hasFallback bool) iter.Seq[any] {
	return func(yield func(any) bool) {
		net := vw.net
		for _, key := range keys {
			if v, ok := net.overrides[key]; ok {
				if !yield(v) {
					return
				}
			}
		}

		chain := append([]string{vw.name}, net.graph.Ancestors(vw.name)...)
		visited := make([]string, 0, len(chain))
		for _, pusher := range chain {
			visited = append(visited, pusher)
			rec, ok := net.states.Record(pusher)
			if !ok {
				continue
			}
			node := net.nodes[pusher]
			declared := node.HyperparameterNames()
			provider, isProvider := node.(HyperparameterProvider)
			for _, key := range keys {
				for _, target := range visited {
					if v, ok := rec.PushedHyperparameter(target, key); ok {
						if !yield(v) {
							return
						}
					}
				}
				if isProvider && slices.Contains(declared, key) {
					if v, ok := provider.ProvidedHyperparameter(vw, key); ok {
						if !yield(v) {
							return
						}
					}
				}
			}
		}

		if hasFallback {
			if !yield(fallback) {
				return
			}
		}
		for _, key := range keys {
			if v, ok := net.defaults[key]; ok {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// FindHyperparameter resolves the first match for keys relative to the
// bound node.
func (vw *View) FindHyperparameter(keys ...string) (any, error) {
	for v := range vw.hyperparameterSeq(keys, nil, false) {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %v on node %q", ErrMissingHyperparameter, keys, vw.name)
}

// FindHyperparameterOr resolves the first match for keys, falling back to
// the given value when the tree and network defaults have none.
func (vw *View) FindHyperparameterOr(fallback any, keys ...string) any {
	for v := range vw.hyperparameterSeq(keys, fallback, true) {
		return v
	}
	return fallback
}

// Hyperparameters yields every match for keys in precedence order. Nodes
// that accumulate list-valued hyperparameters from all levels of the tree
// range over the full sequence.
func (vw *View) Hyperparameters(keys ...string) iter.Seq[any] {
	return vw.hyperparameterSeq(keys, nil, false)
}
