package demo

import (
	"context"
	"fmt"
	"strings"

	"github.com/fieldwatch/fieldwatch/internal/condition"
	"github.com/fieldwatch/fieldwatch/internal/hook"
)

// Notify receives domain events emitted by hooks that talk to the outside
// world (receipts, search indexing). Tests capture events in a slice; the
// CLI logs them.
type Notify func(event string, key string)

// BuildRegistry declares the demo domain's hooks into reg. notify may be nil
// when no hook output sink is needed.
func BuildRegistry(reg *hook.Registry, notify Notify) error {
	if notify == nil {
		notify = func(string, string) {}
	}

	// Articles: normalize the title before any write; high priority so it
	// runs ahead of everything else on the trigger.
	if err := reg.Add(ArticleSchema, "normalize_title", hook.BeforeSave,
		hook.Typed(func(_ context.Context, a *Article) error {
			a.Title = strings.TrimSpace(a.Title)
			return nil
		}),
		hook.WithPriority(10),
	); err != nil {
		return err
	}

	// Stacked declaration: one handler, two descriptors. Fires on the
	// first write and on every later one, each under its own trigger.
	countEdit := hook.Typed(func(_ context.Context, a *Article) error {
		a.Edits++
		return nil
	})
	if err := reg.Add(ArticleSchema, "count_edit", hook.BeforeCreate, countEdit); err != nil {
		return err
	}
	if err := reg.Add(ArticleSchema, "count_edit", hook.BeforeUpdate, countEdit); err != nil {
		return err
	}

	// Relation watching: fires when the author's name changes, including
	// when the article points at a different author entirely.
	if err := reg.Add(ArticleSchema, "flag_author_rename", hook.BeforeUpdate,
		hook.Typed(func(_ context.Context, a *Article) error {
			a.AuthorNameDirty = true
			return nil
		}),
		hook.WithWatch("author.name"),
		hook.WhenChanged(),
	); err != nil {
		return err
	}

	// Orders: reject unknown statuses before anything is written.
	if err := reg.Add(OrderSchema, "validate_status", hook.BeforeSave,
		hook.Typed(func(_ context.Context, o *Order) error {
			switch o.Status {
			case OrderPending, OrderShipped, OrderClosed:
				return nil
			}
			return fmt.Errorf("unknown order status %q", o.Status)
		}),
		hook.WithPriority(100),
	); err != nil {
		return err
	}

	// Condition tree: only a paid order becoming shipped notifies.
	if err := reg.Add(OrderSchema, "notify_shipped", hook.AfterUpdate,
		hook.Typed(func(_ context.Context, o *Order) error {
			o.ShippedNotified = true
			notify("order.shipped", o.ID)
			return nil
		}),
		hook.WithCondition(
			condition.ValueChangesTo("status", OrderShipped).
				And(condition.ValueIs("is_paid", true)),
		),
	); err != nil {
		return err
	}

	// Receipts leave the process only once the surrounding transaction is
	// durable; without one the hook runs in place.
	if err := reg.Add(OrderSchema, "send_receipt", hook.AfterCreate,
		hook.Typed(func(_ context.Context, o *Order) error {
			notify("order.receipt", o.ID)
			return nil
		}),
		hook.DeferToCommit(),
	); err != nil {
		return err
	}

	// Async body: runs only when the caller dispatches in an async
	// context; synchronous saves skip it.
	if err := reg.Add(OrderSchema, "sync_search_index", hook.AfterSave,
		hook.TypedAsync(func(_ context.Context, o *Order) error {
			notify("order.indexed", o.ID)
			return nil
		}),
	); err != nil {
		return err
	}

	return nil
}
