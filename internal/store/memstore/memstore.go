// Package memstore is an in-memory store.Store used by tests and by the
// memory storage mode of the server.
package memstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agrocrm/backoffice/internal/store"
)

var errDuplicate = errors.New("memstore: duplicate key")

type database struct {
	mu     sync.Mutex
	tables map[string][]store.Record
}

// Store keeps every table in memory. Each operation is atomic; WithTx holds
// the database lock for the whole callback and restores a snapshot on error.
type Store struct {
	db     *database
	schema *store.Schema
	now    func() time.Time
	inTx   bool
}

// New creates an empty Store for schema.
func New(schema *store.Schema) *Store {
	return &Store{
		db:     &database{tables: make(map[string][]store.Record)},
		schema: schema,
		now:    time.Now,
	}
}

// WithClock overrides the time source used for generated timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.db.mu.Lock()
	return s.db.mu.Unlock
}

// Create inserts data into model's table.
func (s *Store) Create(ctx context.Context, model string, data store.Record) (store.Record, error) {
	m, err := s.schema.Lookup(model)
	if err != nil {
		return nil, err
	}
	defer s.lock()()
	rec := m.PrepareCreate(data, s.now())
	if _, ok := rec[store.DeletedAtColumn]; m.Tombstone && !ok {
		// a fresh row reads back with deleted_at NULL, as in Postgres
		rec[store.DeletedAtColumn] = nil
	}
	if err := s.checkUnique(m, rec, -1); err != nil {
		return nil, err
	}
	s.db.tables[model] = append(s.db.tables[model], rec)
	return rec.Clone(), nil
}

// Update modifies the first record matching where.
func (s *Store) Update(ctx context.Context, model string, where store.Filter, data store.Record) (store.Record, error) {
	m, err := s.schema.Lookup(model)
	if err != nil {
		return nil, err
	}
	defer s.lock()()
	rows := s.db.tables[model]
	for i, row := range rows {
		if !where.Match(row) {
			continue
		}
		updated := row.Clone()
		for k, v := range m.PrepareUpdate(data, s.now()) {
			updated[k] = v
		}
		if err := s.checkUnique(m, updated, i); err != nil {
			return nil, err
		}
		rows[i] = updated
		return updated.Clone(), nil
	}
	return nil, store.NotFound(model)
}

// UpdateMany modifies every record matching where.
func (s *Store) UpdateMany(ctx context.Context, model string, where store.Filter, data store.Record) (int64, error) {
	m, err := s.schema.Lookup(model)
	if err != nil {
		return 0, err
	}
	defer s.lock()()
	rows := s.db.tables[model]
	patch := m.PrepareUpdate(data, s.now())
	var n int64
	for i, row := range rows {
		if !where.Match(row) {
			continue
		}
		updated := row.Clone()
		for k, v := range patch {
			updated[k] = v
		}
		if err := s.checkUnique(m, updated, i); err != nil {
			return n, err
		}
		rows[i] = updated
		n++
	}
	return n, nil
}

// Delete removes the first record matching where.
func (s *Store) Delete(ctx context.Context, model string, where store.Filter) (store.Record, error) {
	if _, err := s.schema.Lookup(model); err != nil {
		return nil, err
	}
	defer s.lock()()
	rows := s.db.tables[model]
	for i, row := range rows {
		if where.Match(row) {
			s.db.tables[model] = append(rows[:i:i], rows[i+1:]...)
			return row.Clone(), nil
		}
	}
	return nil, store.NotFound(model)
}

// DeleteMany removes every record matching where.
func (s *Store) DeleteMany(ctx context.Context, model string, where store.Filter) (int64, error) {
	if _, err := s.schema.Lookup(model); err != nil {
		return 0, err
	}
	defer s.lock()()
	rows := s.db.tables[model]
	kept := make([]store.Record, 0, len(rows))
	var n int64
	for _, row := range rows {
		if where.Match(row) {
			n++
			continue
		}
		kept = append(kept, row)
	}
	s.db.tables[model] = kept
	return n, nil
}

// FindFirst returns the first match or nil.
func (s *Store) FindFirst(ctx context.Context, model string, q store.Query) (store.Record, error) {
	q.Limit = 1
	rows, err := s.FindMany(ctx, model, q)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// FindOne returns the first match or a not-found error.
func (s *Store) FindOne(ctx context.Context, model string, where store.Filter) (store.Record, error) {
	rec, err := s.FindFirst(ctx, model, store.Query{Where: where})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, store.NotFound(model)
	}
	return rec, nil
}

// FindMany returns matches ordered and paged per q.
func (s *Store) FindMany(ctx context.Context, model string, q store.Query) ([]store.Record, error) {
	if _, err := s.schema.Lookup(model); err != nil {
		return nil, err
	}
	defer s.lock()()
	var out []store.Record
	for _, row := range s.db.tables[model] {
		if q.Where.Match(row) {
			out = append(out, row.Clone())
		}
	}
	sortRecords(out, q.OrderBy)
	if q.Offset > 0 {
		if q.Offset >= uint64(len(out)) {
			return nil, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < uint64(len(out)) {
		out = out[:q.Limit]
	}
	return out, nil
}

// Count returns the number of matches.
func (s *Store) Count(ctx context.Context, model string, where store.Filter) (int64, error) {
	if _, err := s.schema.Lookup(model); err != nil {
		return 0, err
	}
	defer s.lock()()
	var n int64
	for _, row := range s.db.tables[model] {
		if where.Match(row) {
			n++
		}
	}
	return n, nil
}

// WithTx serialises fn against all other operations.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	snapshot := s.snapshot()
	tx := &Store{db: s.db, schema: s.schema, now: s.now, inTx: true}
	if err := fn(ctx, tx); err != nil {
		s.db.tables = snapshot
		return err
	}
	return nil
}

func (s *Store) snapshot() map[string][]store.Record {
	out := make(map[string][]store.Record, len(s.db.tables))
	for model, rows := range s.db.tables {
		copied := make([]store.Record, len(rows))
		for i, row := range rows {
			copied[i] = row.Clone()
		}
		out[model] = copied
	}
	return out
}

// checkUnique enforces the primary key over every row and mirrors the
// partial unique indexes of the migrations: only live rows (deleted_at
// unset) take part in the other unique column sets.
func (s *Store) checkUnique(m store.Model, rec store.Record, skip int) error {
	live := store.IsNil(rec[store.DeletedAtColumn])
	pk := rec[m.PK()]
	for i, row := range s.db.tables[m.Name] {
		if i == skip {
			continue
		}
		if !store.IsNil(pk) && store.Equal(row[m.PK()], pk) {
			return &store.ConstraintError{Model: m.Name, Constraint: m.Table + "_pkey", Err: errDuplicate}
		}
		if !live || !store.IsNil(row[store.DeletedAtColumn]) {
			continue
		}
		for _, cols := range m.Unique {
			if sameColumns(row, rec, cols) {
				return &store.ConstraintError{Model: m.Name, Constraint: m.Table + "_" + strings.Join(cols, "_") + "_key", Err: errDuplicate}
			}
		}
	}
	return nil
}

func sameColumns(a, b store.Record, cols []string) bool {
	for _, c := range cols {
		if store.IsNil(a[c]) || !store.Equal(a[c], b[c]) {
			return false
		}
	}
	return true
}

func sortRecords(rows []store.Record, orderBy []string) {
	if len(orderBy) == 0 {
		return
	}
	type key struct {
		column string
		desc   bool
	}
	keys := make([]key, 0, len(orderBy))
	for _, clause := range orderBy {
		parts := strings.Fields(clause)
		if len(parts) == 0 {
			continue
		}
		keys = append(keys, key{column: parts[0], desc: len(parts) > 1 && strings.EqualFold(parts[1], "desc")})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			c := store.Compare(rows[i][k.column], rows[j][k.column])
			if c == 0 {
				continue
			}
			if k.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}
