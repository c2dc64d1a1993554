package hook

import (
	"github.com/fieldwatch/fieldwatch/internal/condition"
	"github.com/fieldwatch/fieldwatch/internal/field"
)

// Descriptor is one declared hook: trigger, eligibility constraints,
// ordering metadata and the handler to invoke. Descriptors are immutable
// once the owning type's table is built and are shared by every instance of
// the type. Two descriptors never merge, even when they share a handler -
// stacked declarations each fire under their own trigger and condition.
type Descriptor struct {
	// Name identifies the hook in diagnostics and errors.
	Name string

	// Trigger is the lifecycle phase the hook attaches to.
	Trigger Trigger

	// Watch is the dotted path the simple constraints apply to, or "".
	Watch string

	// Priority orders hooks within a trigger; higher runs first. Ties are
	// broken by declaration order.
	Priority int

	// OnCommit defers execution until the ambient transaction commits.
	OnCommit bool

	// Handler is the behavior to invoke.
	Handler Handler

	was            any
	hasWas         bool
	isNow          any
	hasIsNow       bool
	requireChanged bool
	cond           *condition.Node

	// seq is the declaration-order counter assigned at registration,
	// monotonic per registry. It makes priority ties deterministic.
	seq int
}

// Async reports whether the handler body is asynchronous.
func (d *Descriptor) Async() bool { return d.Handler.Async() }

// Unconditional reports whether the descriptor carries no watch constraint
// and no condition tree; such hooks are always eligible for their trigger.
func (d *Descriptor) Unconditional() bool {
	return d.Watch == "" && d.cond == nil
}

// Condition returns the explicit condition tree, or nil.
func (d *Descriptor) Condition() *condition.Node { return d.cond }

// Eligible evaluates the descriptor's effective condition - the conjunction
// of the simple watch constraints and the explicit condition tree - against
// a change record. Omitted simple constraints (wildcards) contribute nothing.
func (d *Descriptor) Eligible(rec *field.ChangeRecord) bool {
	if d.Watch != "" {
		ch := rec.Lookup(d.Watch)
		if d.requireChanged && !ch.Changed {
			return false
		}
		if d.hasWas && !ch.Initial.EqualValue(d.was) {
			return false
		}
		if d.hasIsNow && !ch.Current.EqualValue(d.isNow) {
			return false
		}
	}
	if d.cond != nil && !d.cond.Check(rec) {
		return false
	}
	return true
}

// watchPaths returns every path the descriptor references: the watch path
// plus all predicate paths inside the condition tree.
func (d *Descriptor) watchPaths() []string {
	var out []string
	if d.Watch != "" {
		out = append(out, d.Watch)
	}
	if d.cond != nil {
		out = append(out, d.cond.Paths()...)
	}
	return out
}

// Option configures a declaration at registration time. Options left unset
// contribute no constraint, matching the wildcard semantics of the simple
// arguments.
type Option func(*Descriptor)

// WithWatch sets the dotted path the simple constraints apply to.
func WithWatch(path string) Option {
	return func(d *Descriptor) { d.Watch = path }
}

// WithWas constrains the watched path's initial value. Never matched by an
// unsaved instance: its initial state is absent, which equals nothing.
func WithWas(v any) Option {
	return func(d *Descriptor) {
		d.was = v
		d.hasWas = true
	}
}

// WithIsNow constrains the watched path's current value.
func WithIsNow(v any) Option {
	return func(d *Descriptor) {
		d.isNow = v
		d.hasIsNow = true
	}
}

// WhenChanged requires the watched path to have changed since the snapshot.
func WhenChanged() Option {
	return func(d *Descriptor) { d.requireChanged = true }
}

// WithCondition attaches an explicit condition tree. It is ANDed with any
// simple constraints also present.
func WithCondition(c *condition.Node) Option {
	return func(d *Descriptor) { d.cond = c }
}

// WithPriority sets the descriptor's priority. Default is 0; higher runs
// first. Duplicate priorities are allowed and break ties by declaration
// order.
func WithPriority(p int) Option {
	return func(d *Descriptor) { d.Priority = p }
}

// DeferToCommit postpones the hook until the ambient transaction commits.
// Without an ambient transaction the hook runs in place.
func DeferToCommit() Option {
	return func(d *Descriptor) { d.OnCommit = true }
}
