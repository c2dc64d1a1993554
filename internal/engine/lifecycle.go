package engine

import (
	"context"
	"fmt"

	"github.com/fieldwatch/fieldwatch/internal/field"
	"github.com/fieldwatch/fieldwatch/internal/hook"
)

// Capture snapshots the current values of the type's watched paths into the
// instance's state. The persistence engine calls it when an instance becomes
// known: after loading from storage, or when attaching a freshly created
// row. An unsaved instance (empty key) keeps an empty snapshot, so every
// watched field reads as changed-from-absent.
func (d *Dispatcher) Capture(obj Entity) {
	st := obj.LifecycleState()
	if obj.Key() == "" {
		st.snapshot = nil
		return
	}
	st.snapshot = field.CaptureSnapshot(obj, d.reg.WatchSet(obj.Schema().Name))
}

// Refresh re-captures the snapshot after a confirmed write, so a second save
// without a reload measures deltas against the just-persisted state. When a
// transaction is ambient the refresh is itself deferred to commit: until the
// write is durable, the old snapshot is still the truth.
func (d *Dispatcher) Refresh(ctx context.Context, obj Entity) {
	if d.tx != nil && d.tx.Active(ctx) {
		d.tx.OnCommit(ctx, func(context.Context) error {
			d.Capture(obj)
			return nil
		})
		return
	}
	d.Capture(obj)
}

// HasChanged reports whether a watched path's current value differs from its
// snapshot. Paths outside the type's watch set report false: only watched
// fields are snapshotted, so no delta can be measured for anything else.
func (d *Dispatcher) HasChanged(obj Entity, path string) bool {
	if !d.watched(obj, path) {
		return false
	}
	st := obj.LifecycleState()
	return field.Changed(st.snapshot[path], field.Resolve(obj, path))
}

// InitialValue returns the snapshotted value of a watched path. ok is false
// for unwatched paths and for the absent initial state of an unsaved
// instance.
func (d *Dispatcher) InitialValue(obj Entity, path string) (any, bool) {
	if !d.watched(obj, path) {
		return nil, false
	}
	res := obj.LifecycleState().snapshot[path]
	return res.Value, res.Reachable
}

// CurrentValue resolves a path against the instance's present state. ok is
// false when the path is unreachable (nil relation hop).
func (d *Dispatcher) CurrentValue(obj Entity, path string) (any, bool) {
	res := field.Resolve(obj, path)
	return res.Value, res.Reachable
}

func (d *Dispatcher) watched(obj Entity, path string) bool {
	for _, p := range d.reg.WatchSet(obj.Schema().Name) {
		if p == path {
			return true
		}
	}
	return false
}

// Save orchestrates the write-side trigger sequence around a persistence
// operation. isNew selects the create or update pair; both the specific and
// the generic triggers fire:
//
//	before_create|before_update, before_save, write, after_save, after_create|after_update
//
// Create/update-specific setup runs before generic validation, and specific
// side effects after generic ones. This ordering is the documented contract;
// tests pin it.
//
// A fault from a before-trigger aborts the write. After a successful write
// the snapshot is refreshed (deferred to commit when a transaction is
// ambient).
func (d *Dispatcher) Save(ctx context.Context, obj Entity, isNew bool, write func(context.Context) error, opts ...DispatchOption) error {
	specificBefore, specificAfter := hook.BeforeUpdate, hook.AfterUpdate
	if isNew {
		specificBefore, specificAfter = hook.BeforeCreate, hook.AfterCreate
	}

	if err := d.Dispatch(ctx, obj, specificBefore, opts...); err != nil {
		return err
	}
	if err := d.Dispatch(ctx, obj, hook.BeforeSave, opts...); err != nil {
		return err
	}

	if err := write(ctx); err != nil {
		return fmt.Errorf("write %s: %w", obj.Schema().Name, err)
	}

	if err := d.Dispatch(ctx, obj, hook.AfterSave, opts...); err != nil {
		return err
	}
	if err := d.Dispatch(ctx, obj, specificAfter, opts...); err != nil {
		return err
	}

	d.Refresh(ctx, obj)
	return nil
}

// Delete orchestrates the delete-side trigger sequence: before_delete, the
// deletion, after_delete. No snapshot refresh follows a delete.
func (d *Dispatcher) Delete(ctx context.Context, obj Entity, del func(context.Context) error, opts ...DispatchOption) error {
	if err := d.Dispatch(ctx, obj, hook.BeforeDelete, opts...); err != nil {
		return err
	}
	if err := del(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", obj.Schema().Name, err)
	}
	return d.Dispatch(ctx, obj, hook.AfterDelete, opts...)
}
