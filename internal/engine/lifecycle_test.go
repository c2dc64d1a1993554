package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldwatch/fieldwatch/internal/field"
	"github.com/fieldwatch/fieldwatch/internal/hook"
)

// traceRegistry declares one recording hook per write-side trigger so the
// orchestration order can be pinned.
func traceRegistry(rec *recorder) *hook.Registry {
	reg := hook.NewRegistry()
	for _, trigger := range hook.Triggers {
		reg.MustAdd(accountSchema, string(trigger), trigger, rec.hook(string(trigger)))
	}
	return reg
}

func TestSave_TriggerOrder(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		rec := &recorder{}
		d := NewDispatcher(traceRegistry(rec))
		a := &account{status: "draft"}

		write := func(context.Context) error {
			rec.log = append(rec.log, "write")
			a.id = "a1"
			return nil
		}
		require.NoError(t, d.Save(context.Background(), a, true, write))
		assert.Equal(t, []string{
			"before_create", "before_save", "write", "after_save", "after_create",
		}, rec.log)
	})

	t.Run("update", func(t *testing.T) {
		rec := &recorder{}
		d := NewDispatcher(traceRegistry(rec))
		a := &account{id: "a1", status: "draft"}
		d.Capture(a)

		write := func(context.Context) error {
			rec.log = append(rec.log, "write")
			return nil
		}
		require.NoError(t, d.Save(context.Background(), a, false, write))
		assert.Equal(t, []string{
			"before_update", "before_save", "write", "after_save", "after_update",
		}, rec.log)
	})
}

func TestSave_BeforeFaultAbortsWrite(t *testing.T) {
	boom := errors.New("invalid status")
	reg := hook.NewRegistry()
	reg.MustAdd(accountSchema, "validate", hook.BeforeSave,
		hook.Func(func(context.Context, field.Object) error { return boom }))
	d := NewDispatcher(reg)

	a := &account{id: "a1"}
	d.Capture(a)

	wrote := false
	err := d.Save(context.Background(), a, false, func(context.Context) error {
		wrote = true
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, wrote)
}

func TestSave_WriteFaultSkipsAfterHooks(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(traceRegistry(rec))
	a := &account{id: "a1"}
	d.Capture(a)

	diskFull := errors.New("disk full")
	err := d.Save(context.Background(), a, false, func(context.Context) error {
		return diskFull
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, diskFull)
	assert.Equal(t, []string{"before_update", "before_save"}, rec.log)
}

func TestSave_RefreshesSnapshot(t *testing.T) {
	rec := &recorder{}
	reg := hook.NewRegistry()
	reg.MustAdd(accountSchema, "on_status", hook.BeforeUpdate, rec.hook("on_status"),
		hook.WithWatch("status"), hook.WhenChanged())
	d := NewDispatcher(reg)

	a := &account{id: "a1", status: "active"}
	d.Capture(a)
	a.status = "banned"

	nothing := func(context.Context) error { return nil }
	require.NoError(t, d.Save(context.Background(), a, false, nothing))
	assert.Equal(t, []string{"on_status"}, rec.log)

	// Second save without further mutation: the refreshed snapshot shows no
	// delta, so the changed-gated hook stays quiet.
	require.NoError(t, d.Save(context.Background(), a, false, nothing))
	assert.Equal(t, []string{"on_status"}, rec.log)
}

func TestSave_RefreshDeferredUnderTransaction(t *testing.T) {
	tx := &fakeTxManager{active: true}

	// status must be in the watch set for the snapshot to cover it.
	reg := hook.NewRegistry()
	reg.MustAdd(accountSchema, "probe", hook.BeforeSave, hook.Func(noopHandler), hook.WithWatch("status"))
	d := NewDispatcher(reg, WithTxManager(tx))

	a := &account{id: "a1", status: "active"}
	d.Capture(a)
	a.status = "banned"

	require.NoError(t, d.Save(context.Background(), a, false, func(context.Context) error { return nil }))
	assert.True(t, d.HasChanged(a, "status"),
		"until commit the old snapshot is still the truth")

	require.NoError(t, tx.commit(context.Background()))
	assert.False(t, d.HasChanged(a, "status"))
}

func TestDelete_TriggerOrder(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(traceRegistry(rec))
	a := &account{id: "a1"}
	d.Capture(a)

	del := func(context.Context) error {
		rec.log = append(rec.log, "delete")
		return nil
	}
	require.NoError(t, d.Delete(context.Background(), a, del))
	assert.Equal(t, []string{"before_delete", "delete", "after_delete"}, rec.log)
}

func TestDelete_BeforeFaultAbortsDeletion(t *testing.T) {
	boom := errors.New("still referenced")
	reg := hook.NewRegistry()
	reg.MustAdd(accountSchema, "guard", hook.BeforeDelete,
		hook.Func(func(context.Context, field.Object) error { return boom }))
	d := NewDispatcher(reg)

	a := &account{id: "a1"}
	deleted := false
	err := d.Delete(context.Background(), a, func(context.Context) error {
		deleted = true
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, deleted)
}

func TestStateInspection(t *testing.T) {
	reg := hook.NewRegistry()
	reg.MustAdd(accountSchema, "probe", hook.BeforeSave, hook.Func(noopHandler),
		hook.WithWatch("status"))
	reg.MustAdd(accountSchema, "probe_plan", hook.BeforeSave, hook.Func(noopHandler),
		hook.WithWatch("plan.tier"))
	d := NewDispatcher(reg)

	a := &account{id: "a1", status: "active", email: "x@example.com"}
	d.Capture(a)
	a.status = "banned"

	t.Run("has changed", func(t *testing.T) {
		assert.True(t, d.HasChanged(a, "status"))
		assert.False(t, d.HasChanged(a, "email"), "unwatched paths report false")
	})

	t.Run("initial value", func(t *testing.T) {
		v, ok := d.InitialValue(a, "status")
		assert.True(t, ok)
		assert.Equal(t, "active", v)

		_, ok = d.InitialValue(a, "email")
		assert.False(t, ok, "unwatched path has no snapshot")

		_, ok = d.InitialValue(a, "plan.tier")
		assert.False(t, ok, "nil relation hop is unreachable")
	})

	t.Run("current value", func(t *testing.T) {
		v, ok := d.CurrentValue(a, "status")
		assert.True(t, ok)
		assert.Equal(t, "banned", v)

		_, ok = d.CurrentValue(a, "plan.tier")
		assert.False(t, ok)
	})
}

func TestCapture_UnsavedInstance(t *testing.T) {
	reg := hook.NewRegistry()
	reg.MustAdd(accountSchema, "probe", hook.BeforeSave, hook.Func(noopHandler),
		hook.WithWatch("status"))
	d := NewDispatcher(reg)

	a := &account{status: "active"}
	d.Capture(a)

	assert.True(t, d.HasChanged(a, "status"),
		"concrete field on an unsaved instance reads as changed-from-absent")
	_, ok := d.InitialValue(a, "status")
	assert.False(t, ok)
}

func noopHandler(context.Context, field.Object) error { return nil }
