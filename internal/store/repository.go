package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fieldwatch/fieldwatch/internal/demo"
	"github.com/fieldwatch/fieldwatch/internal/engine"
)

// ErrNotFound is returned when a load targets a missing row.
var ErrNotFound = errors.New("store: not found")

// SaveAuthor inserts or updates an author, firing the lifecycle triggers
// around the write. A missing ID marks the instance as new and assigns a
// UUID before the insert.
func (s *Store) SaveAuthor(ctx context.Context, a *demo.Author, opts ...engine.DispatchOption) error {
	isNew := a.ID == ""
	if isNew {
		a.ID = uuid.NewString()
	}
	return s.eng.Save(ctx, a, isNew, func(ctx context.Context) error {
		_, err := s.conn(ctx).ExecContext(ctx, `
			INSERT INTO authors (id, name) VALUES (?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name
		`, a.ID, a.Name)
		return err
	}, opts...)
}

// LoadAuthor reads an author by id and captures its lifecycle snapshot.
func (s *Store) LoadAuthor(ctx context.Context, id string) (*demo.Author, error) {
	a := &demo.Author{}
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT id, name FROM authors WHERE id = ?`, id,
	).Scan(&a.ID, &a.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("author %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load author %s: %w", id, err)
	}
	s.eng.Capture(a)
	return a, nil
}

// SaveArticle inserts or updates an article with its lifecycle triggers.
func (s *Store) SaveArticle(ctx context.Context, a *demo.Article, opts ...engine.DispatchOption) error {
	isNew := a.ID == ""
	if isNew {
		a.ID = uuid.NewString()
	}
	return s.eng.Save(ctx, a, isNew, func(ctx context.Context) error {
		var authorID any
		if a.Author != nil {
			authorID = a.Author.ID
		}
		_, err := s.conn(ctx).ExecContext(ctx, `
			INSERT INTO articles (id, title, status, edits, author_name_dirty, author_id)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title             = excluded.title,
				status            = excluded.status,
				edits             = excluded.edits,
				author_name_dirty = excluded.author_name_dirty,
				author_id         = excluded.author_id
		`, a.ID, a.Title, a.Status, a.Edits, a.AuthorNameDirty, authorID)
		return err
	}, opts...)
}

// LoadArticle reads an article and its author, then captures the lifecycle
// snapshot - including the related author.name path - so later saves measure
// deltas against the loaded state.
func (s *Store) LoadArticle(ctx context.Context, id string) (*demo.Article, error) {
	a := &demo.Article{}
	var authorID sql.NullString
	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT id, title, status, edits, author_name_dirty, author_id
		FROM articles WHERE id = ?
	`, id).Scan(&a.ID, &a.Title, &a.Status, &a.Edits, &a.AuthorNameDirty, &authorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("article %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load article %s: %w", id, err)
	}
	if authorID.Valid {
		author, err := s.LoadAuthor(ctx, authorID.String)
		if err != nil {
			return nil, fmt.Errorf("load article %s author: %w", id, err)
		}
		a.Author = author
	}
	s.eng.Capture(a)
	return a, nil
}

// DeleteArticle removes an article, firing the delete triggers around it.
func (s *Store) DeleteArticle(ctx context.Context, a *demo.Article) error {
	return s.eng.Delete(ctx, a, func(ctx context.Context) error {
		_, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, a.ID)
		return err
	})
}

// SaveOrder inserts or updates an order with its lifecycle triggers.
func (s *Store) SaveOrder(ctx context.Context, o *demo.Order, opts ...engine.DispatchOption) error {
	isNew := o.ID == ""
	if isNew {
		o.ID = uuid.NewString()
	}
	return s.eng.Save(ctx, o, isNew, func(ctx context.Context) error {
		_, err := s.conn(ctx).ExecContext(ctx, `
			INSERT INTO orders (id, status, is_paid, total_cents, shipped_notified)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				status           = excluded.status,
				is_paid          = excluded.is_paid,
				total_cents      = excluded.total_cents,
				shipped_notified = excluded.shipped_notified
		`, o.ID, o.Status, o.IsPaid, o.TotalCents, o.ShippedNotified)
		return err
	}, opts...)
}

// LoadOrder reads an order by id and captures its lifecycle snapshot.
func (s *Store) LoadOrder(ctx context.Context, id string) (*demo.Order, error) {
	o := &demo.Order{}
	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT id, status, is_paid, total_cents, shipped_notified
		FROM orders WHERE id = ?
	`, id).Scan(&o.ID, &o.Status, &o.IsPaid, &o.TotalCents, &o.ShippedNotified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", id, err)
	}
	s.eng.Capture(o)
	return o, nil
}

// DeleteOrder removes an order, firing the delete triggers around it.
func (s *Store) DeleteOrder(ctx context.Context, o *demo.Order) error {
	return s.eng.Delete(ctx, o, func(ctx context.Context) error {
		_, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, o.ID)
		return err
	})
}
