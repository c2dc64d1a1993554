package engine

import (
	"github.com/fieldwatch/fieldwatch/internal/field"
)

// Entity is a persistent object participating in lifecycle dispatch: a
// field.Object that also carries its per-instance lifecycle state and can
// name its schema. Embedding State in a struct satisfies the LifecycleState
// method automatically; Schema, Key, FieldValue and Relation are written by
// hand per type.
type Entity interface {
	field.Object

	// Schema returns the type's introspection schema.
	Schema() *field.Schema

	// LifecycleState returns the instance's lifecycle state. Provided by
	// embedding State.
	LifecycleState() *State
}

// State is the per-instance lifecycle state: the sparse snapshot of watched
// fields and the reentrant suppression counter. Embed it (by value) in every
// lifecycle-managed struct.
//
// State is exclusively owned by its instance. It is never shared across
// instances and is not safe for concurrent mutation; hosts that dispatch
// instances concurrently must confine each instance to one goroutine, the
// same discipline the rest of the object's fields already require.
type State struct {
	snapshot field.Snapshot
	suppress int
}

// LifecycleState makes any struct embedding State an Entity (together with
// its hand-written accessors).
func (s *State) LifecycleState() *State { return s }

// Suppressed reports whether dispatch is currently disabled for the
// instance.
func (s *State) Suppressed() bool { return s.suppress > 0 }

func (s *State) acquireSuppression() { s.suppress++ }

func (s *State) releaseSuppression() {
	s.suppress--
	if s.suppress < 0 {
		// A negative counter means a release without a matching acquire:
		// a control-flow bug in the caller, not a recoverable state.
		panic("engine: suppression scope released more times than acquired")
	}
}

// Suppress runs fn with dispatch disabled for the instance and guarantees
// the scope is released on every exit path, including panics. Scopes are
// reentrant: nesting increments the counter and dispatch resumes only after
// the outermost scope exits.
func Suppress(obj Entity, fn func() error) error {
	st := obj.LifecycleState()
	st.acquireSuppression()
	defer st.releaseSuppression()
	return fn()
}
