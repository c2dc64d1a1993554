package engine

import (
	"context"
	"log/slog"

	"github.com/fieldwatch/fieldwatch/internal/field"
	"github.com/fieldwatch/fieldwatch/internal/hook"
)

// TxManager is the transaction-manager collaborator. The engine uses it only
// for commit deferral: it asks whether a transaction is ambient in the
// context and appends post-commit callbacks to it. It never inspects or
// rolls the transaction back.
type TxManager interface {
	// Active reports whether a transaction is ambient in ctx.
	Active(ctx context.Context) bool

	// OnCommit registers fn to run after the ambient transaction commits
	// successfully. fn must never run if the transaction rolls back.
	OnCommit(ctx context.Context, fn func(context.Context) error)
}

// Dispatcher executes lifecycle hooks against instances. It is stateless
// apart from its immutable collaborators and safe for concurrent use across
// instances.
type Dispatcher struct {
	reg *hook.Registry
	tx  TxManager
	log *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithTxManager wires the transaction manager used for commit deferral.
// Without one, commit-deferred hooks always run in place.
func WithTxManager(tx TxManager) DispatcherOption {
	return func(d *Dispatcher) { d.tx = tx }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.log = log }
}

// NewDispatcher creates a dispatcher over a registry.
func NewDispatcher(reg *hook.Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{reg: reg, log: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// dispatchConfig collects per-call options.
type dispatchConfig struct {
	fields map[string]bool
	async  bool
}

// DispatchOption configures a single dispatch pass.
type DispatchOption func(*dispatchConfig)

// WithFields restricts the pass to a partial write of the named paths. A
// hook watching a path outside the set is skipped: a field the write does
// not touch cannot be the reason a hook fires.
func WithFields(paths ...string) DispatchOption {
	return func(c *dispatchConfig) {
		if c.fields == nil {
			c.fields = make(map[string]bool, len(paths))
		}
		for _, p := range paths {
			c.fields[p] = true
		}
	}
}

// InAsyncContext marks the pass as running in an asynchronous calling
// context: asynchronous hook bodies are executed (sequentially, in priority
// order) instead of being skipped.
func InAsyncContext() DispatchOption {
	return func(c *dispatchConfig) { c.async = true }
}

// Dispatch runs the hooks registered for (type of obj, trigger).
//
// The pass is a no-op while the instance's suppression scope is active or
// when no hooks are registered. Otherwise the change record for the type's
// watch set is computed once, each descriptor is filtered through the
// partial-write restriction and its effective condition, and the eligible
// descriptors execute strictly in registry order. The first hook fault
// aborts the pass and is returned as a *HookError.
func (d *Dispatcher) Dispatch(ctx context.Context, obj Entity, trigger hook.Trigger, opts ...DispatchOption) error {
	st := obj.LifecycleState()
	if st.Suppressed() {
		return nil
	}

	typeName := obj.Schema().Name
	hooks := d.reg.Hooks(typeName, trigger)
	if len(hooks) == 0 {
		return nil
	}

	var cfg dispatchConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	rec := field.BuildRecord(obj, d.reg.WatchSet(typeName), st.snapshot)

	for _, h := range hooks {
		if cfg.fields != nil && h.Watch != "" && !cfg.fields[h.Watch] {
			continue
		}
		if !h.Eligible(rec) {
			continue
		}
		if h.Async() && !cfg.async {
			d.log.Debug("skipping async hook in sync context",
				"type", typeName,
				"hook", h.Name,
				"trigger", trigger,
			)
			continue
		}

		if h.OnCommit && d.tx != nil && d.tx.Active(ctx) {
			d.deferToCommit(ctx, obj, h, trigger)
			continue
		}

		d.log.Debug("hook firing",
			"type", typeName,
			"hook", h.Name,
			"trigger", trigger,
			"priority", h.Priority,
		)
		if err := h.Handler.Invoke(ctx, obj); err != nil {
			return &HookError{Hook: h.Name, Trigger: trigger, Err: err}
		}
	}
	return nil
}

// deferToCommit appends the hook to the ambient transaction's post-commit
// callbacks. The callback's fault, if any, surfaces from the commit call,
// after the write is already durable.
func (d *Dispatcher) deferToCommit(ctx context.Context, obj Entity, h *hook.Descriptor, trigger hook.Trigger) {
	d.log.Debug("hook deferred to commit",
		"type", obj.Schema().Name,
		"hook", h.Name,
		"trigger", trigger,
	)
	d.tx.OnCommit(ctx, func(cbCtx context.Context) error {
		if err := h.Handler.Invoke(cbCtx, obj); err != nil {
			return &HookError{Hook: h.Name, Trigger: trigger, Err: err}
		}
		return nil
	})
}
