package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldwatch/fieldwatch/internal/demo"
	"github.com/fieldwatch/fieldwatch/internal/engine"
	"github.com/fieldwatch/fieldwatch/internal/hook"
)

// newTestStore opens a store over a temp database with the demo hooks wired
// in. Emitted domain events accumulate in the returned slice.
func newTestStore(t *testing.T) (*Store, *[]string) {
	t.Helper()

	events := &[]string{}
	reg := hook.NewRegistry()
	require.NoError(t, demo.BuildRegistry(reg, func(event, key string) {
		*events = append(*events, event)
	}))

	eng := engine.NewDispatcher(reg, engine.WithTxManager(AmbientTx{}))
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), eng)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, events
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	eng := engine.NewDispatcher(hook.NewRegistry())

	s1, err := Open(path, eng)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path, eng)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestSaveOrder_Roundtrip(t *testing.T) {
	s, events := newTestStore(t)
	ctx := context.Background()

	o := &demo.Order{Status: demo.OrderPending, IsPaid: true, TotalCents: 1299}
	require.NoError(t, s.SaveOrder(ctx, o))
	require.NotEmpty(t, o.ID, "save assigns an id to a new instance")
	assert.Equal(t, []string{"order.receipt"}, *events,
		"commit-deferred receipt runs in place without a transaction")

	loaded, err := s.LoadOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, loaded.ID)
	assert.Equal(t, demo.OrderPending, loaded.Status)
	assert.True(t, loaded.IsPaid)
	assert.Equal(t, 1299, loaded.TotalCents)
}

func TestLoadOrder_NotFound(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.LoadOrder(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveOrder_ValidationHookRejectsWrite(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	o := &demo.Order{Status: "misplaced"}
	err := s.SaveOrder(ctx, o)
	require.Error(t, err)
	assert.True(t, engine.IsHookError(err))

	_, err = s.LoadOrder(ctx, o.ID)
	assert.ErrorIs(t, err, ErrNotFound, "rejected write leaves no row behind")
}

func TestSaveOrder_ShippedConditionAfterReload(t *testing.T) {
	s, events := newTestStore(t)
	ctx := context.Background()

	o := &demo.Order{Status: demo.OrderPending, IsPaid: true}
	require.NoError(t, s.SaveOrder(ctx, o))

	loaded, err := s.LoadOrder(ctx, o.ID)
	require.NoError(t, err)

	loaded.Status = demo.OrderShipped
	*events = nil
	require.NoError(t, s.SaveOrder(ctx, loaded))
	assert.Equal(t, []string{"order.shipped"}, *events)
	assert.True(t, loaded.ShippedNotified)

	// The snapshot refreshed after the save: repeating the save is not a
	// transition to shipped anymore.
	*events = nil
	require.NoError(t, s.SaveOrder(ctx, loaded))
	assert.Empty(t, *events)
}

func TestSaveArticle_PartialWriteSkipsWatchedHook(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	author := &demo.Author{Name: "Ann"}
	require.NoError(t, s.SaveAuthor(ctx, author))
	art := &demo.Article{Title: "Post", Status: "draft", Author: author}
	require.NoError(t, s.SaveArticle(ctx, art))

	loaded, err := s.LoadArticle(ctx, art.ID)
	require.NoError(t, err)
	loaded.Author.Name = "Anne"
	loaded.Title = "Post v2"

	require.NoError(t, s.SaveArticle(ctx, loaded, engine.WithFields("title")))
	assert.False(t, loaded.AuthorNameDirty,
		"a hook watching a path outside the declared write set stays quiet")
}

func TestTx_CommitRunsDeferredHooks(t *testing.T) {
	s, events := newTestStore(t)

	ctx, tx, err := s.BeginTx(context.Background())
	require.NoError(t, err)

	o := &demo.Order{Status: demo.OrderPending, IsPaid: true}
	require.NoError(t, s.SaveOrder(ctx, o))
	assert.Empty(t, *events, "receipt waits for the commit")

	require.NoError(t, tx.Commit(ctx))
	assert.Equal(t, []string{"order.receipt"}, *events)

	loaded, err := s.LoadOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, demo.OrderPending, loaded.Status)

	assert.ErrorIs(t, tx.Commit(ctx), sql.ErrTxDone, "a finished transaction cannot commit again")
}

func TestTx_RollbackDiscardsWriteAndHooks(t *testing.T) {
	s, events := newTestStore(t)

	ctx, tx, err := s.BeginTx(context.Background())
	require.NoError(t, err)

	o := &demo.Order{Status: demo.OrderPending, IsPaid: true}
	require.NoError(t, s.SaveOrder(ctx, o))
	require.NoError(t, tx.Rollback())

	assert.Empty(t, *events, "deferred hooks never run after rollback")
	_, err = s.LoadOrder(context.Background(), o.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTx_CommitHookFaultDoesNotUndoWrite(t *testing.T) {
	reg := hook.NewRegistry()
	boom := errors.New("receipt service down")
	reg.MustAdd(demo.OrderSchema, "send_receipt", hook.AfterCreate,
		hook.Typed(func(context.Context, *demo.Order) error { return boom }),
		hook.DeferToCommit())

	eng := engine.NewDispatcher(reg, engine.WithTxManager(AmbientTx{}))
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), eng)
	require.NoError(t, err)
	defer s.Close()

	ctx, tx, err := s.BeginTx(context.Background())
	require.NoError(t, err)

	o := &demo.Order{Status: demo.OrderPending}
	require.NoError(t, s.SaveOrder(ctx, o))

	err = tx.Commit(ctx)
	require.Error(t, err)
	var che *CommitHookError
	require.ErrorAs(t, err, &che)
	assert.ErrorIs(t, err, boom)

	loaded, loadErr := s.LoadOrder(context.Background(), o.ID)
	require.NoError(t, loadErr, "the write is durable despite the hook fault")
	assert.Equal(t, o.ID, loaded.ID)
}

func TestTx_SnapshotRefreshWaitsForCommit(t *testing.T) {
	s, _ := newTestStore(t)

	o := &demo.Order{Status: demo.OrderPending, IsPaid: true}
	require.NoError(t, s.SaveOrder(context.Background(), o))
	loaded, err := s.LoadOrder(context.Background(), o.ID)
	require.NoError(t, err)

	ctx, tx, err := s.BeginTx(context.Background())
	require.NoError(t, err)

	loaded.Status = demo.OrderShipped
	require.NoError(t, s.SaveOrder(ctx, loaded))
	assert.True(t, s.Dispatcher().HasChanged(loaded, "status"),
		"the pre-commit snapshot is still the baseline")

	require.NoError(t, tx.Commit(ctx))
	assert.False(t, s.Dispatcher().HasChanged(loaded, "status"))
}

func TestSaveArticle_TitleNormalizedAndEditsCounted(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	a := &demo.Article{Title: "  Hello World  ", Status: "draft"}
	require.NoError(t, s.SaveArticle(ctx, a))
	assert.Equal(t, "Hello World", a.Title)
	assert.Equal(t, 1, a.Edits, "create counts as the first edit")

	loaded, err := s.LoadArticle(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", loaded.Title, "normalization happened before the write")

	loaded.Title = "Hello Again"
	require.NoError(t, s.SaveArticle(ctx, loaded))
	assert.Equal(t, 2, loaded.Edits)
}

func TestSaveArticle_AuthorRenameWatch(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	author := &demo.Author{Name: "Ann"}
	require.NoError(t, s.SaveAuthor(ctx, author))

	art := &demo.Article{Title: "Post", Status: "draft", Author: author}
	require.NoError(t, s.SaveArticle(ctx, art))

	t.Run("rename in place", func(t *testing.T) {
		loaded, err := s.LoadArticle(ctx, art.ID)
		require.NoError(t, err)
		require.False(t, loaded.AuthorNameDirty)

		loaded.Author.Name = "Anne"
		require.NoError(t, s.SaveAuthor(ctx, loaded.Author))
		require.NoError(t, s.SaveArticle(ctx, loaded))
		assert.True(t, loaded.AuthorNameDirty)
	})

	t.Run("swap to a same-named author", func(t *testing.T) {
		other := &demo.Author{Name: "Anne"}
		require.NoError(t, s.SaveAuthor(ctx, other))

		loaded, err := s.LoadArticle(ctx, art.ID)
		require.NoError(t, err)
		loaded.AuthorNameDirty = false

		loaded.Author = other
		require.NoError(t, s.SaveArticle(ctx, loaded))
		assert.True(t, loaded.AuthorNameDirty,
			"the watched value lives on a different object now")
	})

	t.Run("unrelated change stays clean", func(t *testing.T) {
		loaded, err := s.LoadArticle(ctx, art.ID)
		require.NoError(t, err)
		loaded.AuthorNameDirty = false

		loaded.Status = "published"
		require.NoError(t, s.SaveArticle(ctx, loaded))
		assert.False(t, loaded.AuthorNameDirty)
	})
}

func TestDeleteOrder_RemovesRow(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	o := &demo.Order{Status: demo.OrderPending}
	require.NoError(t, s.SaveOrder(ctx, o))
	require.NoError(t, s.DeleteOrder(ctx, o))

	_, err := s.LoadOrder(ctx, o.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSuppressedSaveSkipsHooks(t *testing.T) {
	s, events := newTestStore(t)
	ctx := context.Background()

	o := &demo.Order{Status: demo.OrderPending, IsPaid: true}
	require.NoError(t, s.SaveOrder(ctx, o))
	loaded, err := s.LoadOrder(ctx, o.ID)
	require.NoError(t, err)

	loaded.Status = demo.OrderShipped
	*events = nil
	require.NoError(t, engine.Suppress(loaded, func() error {
		return s.SaveOrder(ctx, loaded)
	}))
	assert.Empty(t, *events, "suppression silences every hook around the write")

	row, err := s.LoadOrder(ctx, loaded.ID)
	require.NoError(t, err)
	assert.Equal(t, demo.OrderShipped, row.Status, "the write itself still happens")
}
