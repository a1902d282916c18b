package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/agrocrm/backoffice/internal/governance"
	"github.com/agrocrm/backoffice/internal/shared"
	"github.com/agrocrm/backoffice/internal/store"
)

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithStrict wraps snapshot, write and follow-up read in one transaction.
// The audit write itself always happens after the transaction.
func WithStrict(strict bool) Option {
	return func(i *Interceptor) { i.strict = strict }
}

// WithClock overrides the time source for PerformedAt.
func WithClock(now func() time.Time) Option {
	return func(i *Interceptor) { i.now = now }
}

// WithSchema lets the interceptor resolve primary keys other than "id".
func WithSchema(schema *store.Schema) Option {
	return func(i *Interceptor) { i.schema = schema }
}

// WithLogger sets the logger used for snapshot failures.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interceptor) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithRedactedFields drops the named columns from every snapshot.
func WithRedactedFields(fields ...string) Option {
	return func(i *Interceptor) {
		if i.redact == nil {
			i.redact = make(map[string]bool, len(fields))
		}
		for _, f := range fields {
			i.redact[f] = true
		}
	}
}

// Interceptor decorates a store.Store and records one Entry per mutation of
// an audited model.
type Interceptor struct {
	next     store.Store
	policy   governance.Policy
	recorder *Recorder
	schema   *store.Schema
	logger   *slog.Logger
	now      func() time.Time
	strict   bool
	redact   map[string]bool
	// pending is set inside WithTx; entries wait there for the commit.
	pending *pendingEntries
}

type pendingEntries struct {
	mu      sync.Mutex
	entries []pendingEntry
}

type pendingEntry struct {
	ctx   context.Context
	entry Entry
}

func (p *pendingEntries) add(ctx context.Context, e Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, pendingEntry{ctx: ctx, entry: e})
}

// NewInterceptor wraps next. recorder may be nil, in which case entries are
// built but dropped.
func NewInterceptor(next store.Store, policy governance.Policy, recorder *Recorder, opts ...Option) *Interceptor {
	i := &Interceptor{
		next:     next,
		policy:   policy,
		recorder: recorder,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Interceptor) Create(ctx context.Context, model string, data store.Record) (store.Record, error) {
	if !i.policy.Audits(model) {
		return i.next.Create(ctx, model, data)
	}
	result, err := i.next.Create(ctx, model, data)
	if err != nil {
		return nil, err
	}
	i.record(ctx, model, ActionCreate, i.recordID(model, result, nil, nil), nil, result)
	return result, nil
}

func (i *Interceptor) Update(ctx context.Context, model string, where store.Filter, data store.Record) (store.Record, error) {
	if !i.policy.Audits(model) {
		return i.next.Update(ctx, model, where, data)
	}
	var before, after, result store.Record
	err := i.run(ctx, func(ctx context.Context, s store.Store) error {
		before = i.findFirst(ctx, s, model, where)
		var err error
		result, err = s.Update(ctx, model, i.pinned(model, where, before), data)
		if err != nil {
			return err
		}
		after = i.findFirst(ctx, s, model, i.byPK(model, where, result))
		if after == nil {
			after = result
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	action := updateAction(ctx, data, i.policy.StatusFields)
	i.record(ctx, model, action, i.recordID(model, result, before, where), before, after)
	return result, nil
}

func (i *Interceptor) UpdateMany(ctx context.Context, model string, where store.Filter, data store.Record) (int64, error) {
	if !i.policy.Audits(model) {
		return i.next.UpdateMany(ctx, model, where, data)
	}
	var before, after []store.Record
	var n int64
	err := i.run(ctx, func(ctx context.Context, s store.Store) error {
		before = i.findMany(ctx, s, model, where)
		var err error
		n, err = s.UpdateMany(ctx, model, where, data)
		if err != nil || n == 0 {
			return err
		}
		after = i.findMany(ctx, s, model, i.afterFilter(model, where, before, false))
		return nil
	})
	if err != nil || n == 0 {
		return n, err
	}
	action := updateAction(ctx, data, i.policy.StatusFields)
	i.record(ctx, model, action, filterID(where), before, after)
	return n, nil
}

func (i *Interceptor) Delete(ctx context.Context, model string, where store.Filter) (store.Record, error) {
	if !i.policy.Audits(model) {
		return i.next.Delete(ctx, model, where)
	}
	var before, after, result store.Record
	err := i.run(ctx, func(ctx context.Context, s store.Store) error {
		before = i.findFirst(ctx, s, model, where)
		var err error
		result, err = s.Delete(ctx, model, i.pinned(model, where, before))
		if err != nil {
			return err
		}
		after = i.findFirst(ctx, s, model, i.byPK(model, where, result).With(i.policy.Column(), store.Any))
		return nil
	})
	if err != nil {
		return nil, err
	}
	i.record(ctx, model, ActionDelete, i.recordID(model, result, before, where), before, after)
	return result, nil
}

func (i *Interceptor) DeleteMany(ctx context.Context, model string, where store.Filter) (int64, error) {
	if !i.policy.Audits(model) {
		return i.next.DeleteMany(ctx, model, where)
	}
	var before, after []store.Record
	var n int64
	err := i.run(ctx, func(ctx context.Context, s store.Store) error {
		before = i.findMany(ctx, s, model, where)
		var err error
		n, err = s.DeleteMany(ctx, model, where)
		if err != nil || n == 0 {
			return err
		}
		after = i.findMany(ctx, s, model, i.afterFilter(model, where, before, true))
		return nil
	})
	if err != nil || n == 0 {
		return n, err
	}
	i.record(ctx, model, ActionDelete, filterID(where), before, after)
	return n, nil
}

func (i *Interceptor) FindFirst(ctx context.Context, model string, q store.Query) (store.Record, error) {
	return i.next.FindFirst(ctx, model, q)
}

func (i *Interceptor) FindOne(ctx context.Context, model string, where store.Filter) (store.Record, error) {
	return i.next.FindOne(ctx, model, where)
}

func (i *Interceptor) FindMany(ctx context.Context, model string, q store.Query) ([]store.Record, error) {
	return i.next.FindMany(ctx, model, q)
}

func (i *Interceptor) Count(ctx context.Context, model string, where store.Filter) (int64, error) {
	return i.next.Count(ctx, model, where)
}

// WithTx holds back the entries produced by fn until the transaction has
// committed; a rolled-back transaction leaves no audit trail.
func (i *Interceptor) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	if i.pending != nil {
		return fn(ctx, i)
	}
	pending := &pendingEntries{}
	err := i.next.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		scoped := *i
		scoped.next = tx
		scoped.pending = pending
		return fn(ctx, &scoped)
	})
	if err != nil {
		return err
	}
	for _, p := range pending.entries {
		i.recorder.Record(p.ctx, p.entry)
	}
	return nil
}

// run executes the snapshot-write-snapshot sequence, inside a transaction in
// strict mode.
func (i *Interceptor) run(ctx context.Context, fn func(ctx context.Context, s store.Store) error) error {
	if !i.strict || i.pending != nil {
		return fn(ctx, i.next)
	}
	return i.next.WithTx(ctx, fn)
}

func (i *Interceptor) record(ctx context.Context, model string, action Action, recordID *string, before, after any) {
	e := Entry{
		ID:          NewEntryID(),
		Model:       model,
		Action:      action,
		RecordID:    recordID,
		PerformedAt: i.now().UTC(),
	}
	if actor, ok := shared.ActorFromContext(ctx); ok {
		e.PerformedByUserID = &actor
	}
	var err error
	before, after = i.redacted(before), i.redacted(after)
	if e.Before, err = snapshot(before); err != nil {
		i.logger.Warn("audit snapshot", slog.String("model", model), slog.String("side", "before"), slog.Any("error", err))
	}
	if e.After, err = snapshot(after); err != nil {
		i.logger.Warn("audit snapshot", slog.String("model", model), slog.String("side", "after"), slog.Any("error", err))
	}
	if i.pending != nil {
		i.pending.add(ctx, e)
		return
	}
	i.recorder.Record(ctx, e)
}

func (i *Interceptor) redacted(v any) any {
	if len(i.redact) == 0 {
		return v
	}
	strip := func(rec store.Record) store.Record {
		if rec == nil {
			return nil
		}
		out := make(store.Record, len(rec))
		for k, val := range rec {
			if !i.redact[k] {
				out[k] = val
			}
		}
		return out
	}
	switch t := v.(type) {
	case store.Record:
		return strip(t)
	case []store.Record:
		out := make([]store.Record, len(t))
		for n, rec := range t {
			out[n] = strip(rec)
		}
		return out
	}
	return v
}

func (i *Interceptor) findFirst(ctx context.Context, s store.Store, model string, where store.Filter) store.Record {
	rec, err := s.FindFirst(ctx, model, store.Query{Where: where})
	if err != nil {
		i.logger.Warn("audit snapshot read", slog.String("model", model), slog.Any("error", err))
		return nil
	}
	return rec
}

func (i *Interceptor) findMany(ctx context.Context, s store.Store, model string, where store.Filter) []store.Record {
	rows, err := s.FindMany(ctx, model, store.Query{Where: where})
	if err != nil {
		i.logger.Warn("audit snapshot read", slog.String("model", model), slog.Any("error", err))
		return nil
	}
	return rows
}

// pinned narrows where to the primary key of the row the before snapshot
// captured, so the write touches exactly that row. Without a snapshot the
// caller's selection is used unchanged.
func (i *Interceptor) pinned(model string, where store.Filter, before store.Record) store.Filter {
	if id, ok := i.pkValue(model, before); ok {
		return where.With(i.pk(model), id)
	}
	return where
}

// byPK selects the written row by primary key alone. The write may have
// changed the columns where selects on.
func (i *Interceptor) byPK(model string, where store.Filter, written store.Record) store.Filter {
	if id, ok := i.pkValue(model, written); ok {
		return store.Filter{i.pk(model): id}
	}
	return where
}

// afterFilter pins the follow-up read of a batch write to the rows captured
// before it, so the write cannot move rows out of the selection.
func (i *Interceptor) afterFilter(model string, where store.Filter, before []store.Record, deleted bool) store.Filter {
	ids := make([]any, 0, len(before))
	for _, row := range before {
		if id, ok := i.pkValue(model, row); ok {
			ids = append(ids, id)
		}
	}
	target := where
	if len(ids) > 0 {
		target = store.Filter{i.pk(model): ids}
	}
	if deleted {
		target = target.With(i.policy.Column(), store.Any)
	}
	return target
}

func (i *Interceptor) pk(model string) string {
	if i.schema != nil {
		if m, err := i.schema.Lookup(model); err == nil {
			return m.PK()
		}
	}
	return "id"
}

func (i *Interceptor) pkValue(model string, rec store.Record) (any, bool) {
	if rec == nil {
		return nil, false
	}
	v, ok := rec[i.pk(model)]
	if !ok || store.IsNil(v) {
		return nil, false
	}
	return v, true
}

// recordID prefers the primary key of the write result, then of the before
// snapshot, and falls back to the serialized selection.
func (i *Interceptor) recordID(model string, result, before store.Record, where store.Filter) *string {
	for _, rec := range []store.Record{result, before} {
		if v, ok := i.pkValue(model, rec); ok {
			s := idString(v)
			return &s
		}
	}
	if where == nil {
		return nil
	}
	return filterID(where)
}

func idString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

// filterID serializes a selection as canonical JSON (sorted keys).
func filterID(where store.Filter) *string {
	data, err := json.Marshal(Sanitize(map[string]any(where)))
	if err != nil {
		return nil
	}
	s := string(data)
	return &s
}
