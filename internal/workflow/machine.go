// Package workflow provides the data-driven status machines that guard every
// document lifecycle: each entity type declares its allowed transitions as a
// table, and services consult the machine before writing a status change.
package workflow

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a transition is not in the table.
var ErrInvalidTransition = errors.New("invalid status transition")

// Machine validates transitions for one entity type.
type Machine[S ~string] struct {
	transitions map[S][]S
}

// New builds a machine from a transition table. The table is not copied;
// callers declare it as a package-level literal and never mutate it.
func New[S ~string](transitions map[S][]S) *Machine[S] {
	return &Machine[S]{transitions: transitions}
}

// CanTransition reports whether from -> to is allowed.
func (m *Machine[S]) CanTransition(from, to S) bool {
	for _, s := range m.transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Check returns ErrInvalidTransition (wrapped with both statuses) when
// from -> to is not allowed.
func (m *Machine[S]) Check(from, to S) error {
	if !m.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, string(from), string(to))
	}
	return nil
}

// AllowedFrom returns a copy of the transitions reachable from a status.
func (m *Machine[S]) AllowedFrom(from S) []S {
	allowed := m.transitions[from]
	out := make([]S, len(allowed))
	copy(out, allowed)
	return out
}

// States returns every status that appears in the table, sources first.
// Used by tests to enumerate the full graph.
func (m *Machine[S]) States() []S {
	seen := make(map[S]bool)
	var out []S
	add := func(s S) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for from := range m.transitions {
		add(from)
	}
	for _, tos := range m.transitions {
		for _, to := range tos {
			add(to)
		}
	}
	return out
}
