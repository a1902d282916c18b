// Package postgres implements store.Store on PostgreSQL through pgx, with
// statements assembled by squirrel.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/agrocrm/backoffice/internal/platform/db"
	"github.com/agrocrm/backoffice/internal/store"
)

// Querier is the common interface implemented by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is a Querier able to open transactions.
type Pool interface {
	Querier
	db.Beginner
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store executes generic model operations against PostgreSQL.
type Store struct {
	pool   Pool
	q      Querier
	schema *store.Schema
	now    func() time.Time
	inTx   bool
}

// New returns a Store backed by pool.
func New(pool Pool, schema *store.Schema) *Store {
	return &Store{pool: pool, q: pool, schema: schema, now: time.Now}
}

// WithClock overrides the time source used for generated timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Create(ctx context.Context, model string, data store.Record) (store.Record, error) {
	m, err := s.schema.Lookup(model)
	if err != nil {
		return nil, err
	}
	rec := m.PrepareCreate(data, s.now().UTC())
	query, args, err := psql.Insert(m.Table).SetMap(rec).Suffix("RETURNING *").ToSql()
	if err != nil {
		return nil, fmt.Errorf("postgres: build insert %s: %w", m.Table, err)
	}
	return s.queryOne(ctx, m, query, args)
}

// Update modifies one row chosen by a LIMIT 1 subselect on the primary key.
func (s *Store) Update(ctx context.Context, model string, where store.Filter, data store.Record) (store.Record, error) {
	m, err := s.schema.Lookup(model)
	if err != nil {
		return nil, err
	}
	target, err := firstRowCondition(m, where)
	if err != nil {
		return nil, err
	}
	query, args, err := psql.Update(m.Table).
		SetMap(m.PrepareUpdate(data, s.now().UTC())).
		Where(target).
		Suffix("RETURNING *").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("postgres: build update %s: %w", m.Table, err)
	}
	return s.queryOne(ctx, m, query, args)
}

func (s *Store) UpdateMany(ctx context.Context, model string, where store.Filter, data store.Record) (int64, error) {
	m, err := s.schema.Lookup(model)
	if err != nil {
		return 0, err
	}
	query, args, err := psql.Update(m.Table).
		SetMap(m.PrepareUpdate(data, s.now().UTC())).
		Where(whereClause(where)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("postgres: build update %s: %w", m.Table, err)
	}
	tag, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return 0, mapError(m.Name, err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) Delete(ctx context.Context, model string, where store.Filter) (store.Record, error) {
	m, err := s.schema.Lookup(model)
	if err != nil {
		return nil, err
	}
	target, err := firstRowCondition(m, where)
	if err != nil {
		return nil, err
	}
	query, args, err := psql.Delete(m.Table).Where(target).Suffix("RETURNING *").ToSql()
	if err != nil {
		return nil, fmt.Errorf("postgres: build delete %s: %w", m.Table, err)
	}
	return s.queryOne(ctx, m, query, args)
}

func (s *Store) DeleteMany(ctx context.Context, model string, where store.Filter) (int64, error) {
	m, err := s.schema.Lookup(model)
	if err != nil {
		return 0, err
	}
	query, args, err := psql.Delete(m.Table).Where(whereClause(where)).ToSql()
	if err != nil {
		return 0, fmt.Errorf("postgres: build delete %s: %w", m.Table, err)
	}
	tag, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return 0, mapError(m.Name, err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) FindFirst(ctx context.Context, model string, q store.Query) (store.Record, error) {
	q.Limit = 1
	rows, err := s.FindMany(ctx, model, q)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

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

func (s *Store) FindMany(ctx context.Context, model string, q store.Query) ([]store.Record, error) {
	m, err := s.schema.Lookup(model)
	if err != nil {
		return nil, err
	}
	order, err := orderClauses(q.OrderBy)
	if err != nil {
		return nil, err
	}
	b := psql.Select("*").From(m.Table).Where(whereClause(q.Where)).OrderBy(order...)
	if q.Limit > 0 {
		b = b.Limit(q.Limit)
	}
	if q.Offset > 0 {
		b = b.Offset(q.Offset)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("postgres: build select %s: %w", m.Table, err)
	}
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(m.Name, err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, mapError(m.Name, err)
	}
	out := make([]store.Record, len(maps))
	for i, row := range maps {
		out[i] = store.Record(row)
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, model string, where store.Filter) (int64, error) {
	m, err := s.schema.Lookup(model)
	if err != nil {
		return 0, err
	}
	query, args, err := psql.Select("COUNT(*)").From(m.Table).Where(whereClause(where)).ToSql()
	if err != nil {
		return 0, fmt.Errorf("postgres: build count %s: %w", m.Table, err)
	}
	var n int64
	if err := s.q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapError(m.Name, err)
	}
	return n, nil
}

// WithTx runs fn in a repeatable-read transaction. Inside fn, WithTx joins
// the transaction already running.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &Store{pool: s.pool, q: tx, schema: s.schema, now: s.now, inTx: true})
	})
}

func (s *Store) queryOne(ctx context.Context, m store.Model, query string, args []any) (store.Record, error) {
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(m.Name, err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, mapError(m.Name, err)
	}
	return store.Record(row), nil
}

// firstRowCondition selects the primary key of the first row matching where
// so single-row writes touch at most one row.
func firstRowCondition(m store.Model, where store.Filter) (sq.Sqlizer, error) {
	sub, args, err := sq.Select(m.PK()).From(m.Table).Where(whereClause(where)).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("postgres: build subselect %s: %w", m.Table, err)
	}
	return sq.Expr(m.PK()+" = ("+sub+")", args...), nil
}

// whereClause translates a store.Filter into squirrel predicates, in column
// order so generated SQL is stable. An empty filter yields nil, which
// squirrel treats as no WHERE clause.
func whereClause(f store.Filter) sq.Sqlizer {
	and := sq.And{}
	for _, col := range f.Columns() {
		switch c := f[col].(type) {
		case nil:
			and = append(and, sq.Eq{col: nil})
		case store.Sentinel:
			switch c {
			case store.NotNull:
				and = append(and, sq.NotEq{col: nil})
			case store.Any:
			default:
				and = append(and, sq.Eq{col: string(c)})
			}
		case store.Range:
			if c.From != nil {
				and = append(and, sq.GtOrEq{col: c.From})
			}
			if c.To != nil {
				and = append(and, sq.LtOrEq{col: c.To})
			}
		case store.Contains:
			and = append(and, sq.ILike{col: "%" + escapeLike(string(c)) + "%"})
		default:
			and = append(and, sq.Eq{col: c})
		}
	}
	if len(and) == 0 {
		return nil
	}
	return and
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

var orderPattern = regexp.MustCompile(`^([a-z_][a-z0-9_]*)(\s+(?i:asc|desc))?$`)

func orderClauses(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, clause := range in {
		clause = strings.TrimSpace(clause)
		if !orderPattern.MatchString(clause) {
			return nil, fmt.Errorf("postgres: invalid order clause %q", clause)
		}
		out = append(out, clause)
	}
	return out, nil
}

// mapError converts driver errors to store errors. Context errors pass
// through untouched.
func mapError(model string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("postgres: %s: %w", model, err)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.NotFound(model)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503", "23514": // unique, foreign key, check
			return &store.ConstraintError{Model: model, Constraint: pgErr.ConstraintName, Err: err}
		}
	}
	return fmt.Errorf("postgres: %s: %w", model, err)
}
