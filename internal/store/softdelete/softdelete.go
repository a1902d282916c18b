// Package softdelete rewrites deletes of governed models into updates that
// stamp the deleted-at column, and hides stamped rows from default reads.
package softdelete

import (
	"context"
	"time"

	"github.com/agrocrm/backoffice/internal/governance"
	"github.com/agrocrm/backoffice/internal/store"
)

// Store decorates another store.Store with soft-delete semantics.
type Store struct {
	next   store.Store
	policy governance.Policy
	now    func() time.Time
}

// New wraps next. A nil clock defaults to time.Now.
func New(next store.Store, policy governance.Policy, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{next: next, policy: policy, now: now}
}

// scope adds the live-row condition unless the caller already constrained
// the deleted-at column.
func (s *Store) scope(model string, where store.Filter) store.Filter {
	if !s.policy.SoftDeletes(model) {
		return where
	}
	col := s.policy.Column()
	if where.Has(col) {
		return where
	}
	return where.With(col, nil)
}

func (s *Store) Create(ctx context.Context, model string, data store.Record) (store.Record, error) {
	return s.next.Create(ctx, model, data)
}

func (s *Store) Update(ctx context.Context, model string, where store.Filter, data store.Record) (store.Record, error) {
	return s.next.Update(ctx, model, s.scope(model, where), data)
}

func (s *Store) UpdateMany(ctx context.Context, model string, where store.Filter, data store.Record) (int64, error) {
	return s.next.UpdateMany(ctx, model, s.scope(model, where), data)
}

// Delete stamps deleted-at on governed models and hard-deletes otherwise.
func (s *Store) Delete(ctx context.Context, model string, where store.Filter) (store.Record, error) {
	if !s.policy.SoftDeletes(model) {
		return s.next.Delete(ctx, model, where)
	}
	return s.next.Update(ctx, model, s.scope(model, where), s.tombstone())
}

// DeleteMany stamps deleted-at on every live match of a governed model.
func (s *Store) DeleteMany(ctx context.Context, model string, where store.Filter) (int64, error) {
	if !s.policy.SoftDeletes(model) {
		return s.next.DeleteMany(ctx, model, where)
	}
	return s.next.UpdateMany(ctx, model, s.scope(model, where), s.tombstone())
}

func (s *Store) FindFirst(ctx context.Context, model string, q store.Query) (store.Record, error) {
	q.Where = s.scope(model, q.Where)
	return s.next.FindFirst(ctx, model, q)
}

func (s *Store) FindOne(ctx context.Context, model string, where store.Filter) (store.Record, error) {
	return s.next.FindOne(ctx, model, s.scope(model, where))
}

func (s *Store) FindMany(ctx context.Context, model string, q store.Query) ([]store.Record, error) {
	q.Where = s.scope(model, q.Where)
	return s.next.FindMany(ctx, model, q)
}

func (s *Store) Count(ctx context.Context, model string, where store.Filter) (int64, error) {
	return s.next.Count(ctx, model, s.scope(model, where))
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return s.next.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		return fn(ctx, &Store{next: tx, policy: s.policy, now: s.now})
	})
}

func (s *Store) tombstone() store.Record {
	return store.Record{s.policy.Column(): s.now().UTC()}
}
