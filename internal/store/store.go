// Package store defines the generic storage contract consumed by the governed
// data-access layer. Implementations live in the memstore and postgres
// subpackages; decorators (soft delete, audit capture, permission gate) wrap a
// Store and expose the same interface.
package store

import (
	"context"
	"sort"
)

// Record is a single row keyed by column name.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String returns the value stored under key when it is a string.
func (r Record) String(key string) string {
	if r == nil {
		return ""
	}
	s, _ := r[key].(string)
	return s
}

// Keys returns the record's column names in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Query describes a read.
type Query struct {
	Where   Filter
	OrderBy []string
	Limit   uint64
	Offset  uint64
}

// Store is the storage collaborator: generic create/update/delete/find
// operations addressed by model name.
type Store interface {
	Create(ctx context.Context, model string, data Record) (Record, error)
	// Update modifies exactly one record matching where. A missing record
	// yields *NotFoundError.
	Update(ctx context.Context, model string, where Filter, data Record) (Record, error)
	UpdateMany(ctx context.Context, model string, where Filter, data Record) (int64, error)
	// Delete removes exactly one record matching where and returns it.
	Delete(ctx context.Context, model string, where Filter) (Record, error)
	DeleteMany(ctx context.Context, model string, where Filter) (int64, error)
	// FindFirst returns (nil, nil) when nothing matches.
	FindFirst(ctx context.Context, model string, q Query) (Record, error)
	// FindOne is the must-exist fetch; absence yields *NotFoundError.
	FindOne(ctx context.Context, model string, where Filter) (Record, error)
	FindMany(ctx context.Context, model string, q Query) ([]Record, error)
	Count(ctx context.Context, model string, where Filter) (int64, error)
	// WithTx runs fn inside one storage transaction. Calling WithTx on the
	// Store passed to fn joins the running transaction.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
