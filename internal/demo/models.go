// Package demo is the reference domain wired through the lifecycle engine:
// authors and articles exercise relation watching and stacked hooks, orders
// exercise the condition algebra, commit deferral and async bodies. The CLI
// and the integration tests share it.
package demo

import (
	"github.com/fieldwatch/fieldwatch/internal/engine"
	"github.com/fieldwatch/fieldwatch/internal/field"
)

// AuthorSchema declares the introspection surface of Author.
var AuthorSchema = &field.Schema{
	Name:   "Author",
	Fields: []string{"name"},
}

// ArticleSchema declares the introspection surface of Article, including the
// author relation used for cross-object watch paths.
var ArticleSchema = &field.Schema{
	Name:   "Article",
	Fields: []string{"title", "status", "edits"},
	Relations: map[string]*field.Schema{
		"author": AuthorSchema,
	},
}

// OrderSchema declares the introspection surface of Order.
var OrderSchema = &field.Schema{
	Name:   "Order",
	Fields: []string{"status", "is_paid", "total_cents"},
}

// Author is a related object reached through Article's "author" relation.
type Author struct {
	engine.State

	ID   string
	Name string
}

// Key implements field.Object.
func (a *Author) Key() string { return a.ID }

// Schema implements engine.Entity.
func (a *Author) Schema() *field.Schema { return AuthorSchema }

// FieldValue implements field.Object.
func (a *Author) FieldValue(name string) (any, bool) {
	switch name {
	case "name":
		return a.Name, true
	}
	return nil, false
}

// Relation implements field.Object.
func (a *Author) Relation(string) (field.Object, bool) { return nil, false }

// Article demonstrates relation watching ("author.name") and stacked hook
// declarations (the edit counter fires on both create and update).
type Article struct {
	engine.State

	ID     string
	Title  string
	Status string
	Author *Author
	Edits  int

	// AuthorNameDirty is set by the relation-watching hook.
	AuthorNameDirty bool
}

// Key implements field.Object.
func (a *Article) Key() string { return a.ID }

// Schema implements engine.Entity.
func (a *Article) Schema() *field.Schema { return ArticleSchema }

// FieldValue implements field.Object.
func (a *Article) FieldValue(name string) (any, bool) {
	switch name {
	case "title":
		return a.Title, true
	case "status":
		return a.Status, true
	case "edits":
		return a.Edits, true
	}
	return nil, false
}

// Relation implements field.Object. An article without an author returns
// (nil, true): the relation exists but is unset, so paths through it resolve
// as absent.
func (a *Article) Relation(name string) (field.Object, bool) {
	switch name {
	case "author":
		if a.Author == nil {
			return nil, true
		}
		return a.Author, true
	}
	return nil, false
}

// Order statuses.
const (
	OrderPending = "pending"
	OrderShipped = "shipped"
	OrderClosed  = "closed"
)

// Order demonstrates condition trees, commit-deferred receipts and an async
// search-index hook.
type Order struct {
	engine.State

	ID         string
	Status     string
	IsPaid     bool
	TotalCents int

	// ShippedNotified is set when the paid-shipment condition fires.
	ShippedNotified bool
}

// Key implements field.Object.
func (o *Order) Key() string { return o.ID }

// Schema implements engine.Entity.
func (o *Order) Schema() *field.Schema { return OrderSchema }

// FieldValue implements field.Object.
func (o *Order) FieldValue(name string) (any, bool) {
	switch name {
	case "status":
		return o.Status, true
	case "is_paid":
		return o.IsPaid, true
	case "total_cents":
		return o.TotalCents, true
	}
	return nil, false
}

// Relation implements field.Object.
func (o *Order) Relation(string) (field.Object, bool) { return nil, false }
