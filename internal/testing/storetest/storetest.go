// Package storetest assembles the governed store over memory for tests.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/agrocrm/backoffice/internal/audit"
	"github.com/agrocrm/backoffice/internal/governance"
	"github.com/agrocrm/backoffice/internal/store"
	"github.com/agrocrm/backoffice/internal/store/memstore"
	"github.com/agrocrm/backoffice/internal/store/softdelete"
	_ "github.com/agrocrm/backoffice/internal/testing/guard"
)

// Now is the fixed clock of every Stack.
var Now = time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC)

// Stack is the soft-delete and audit stack over a memstore.
type Stack struct {
	// Base is the undecorated store: reads see soft-deleted rows.
	Base *memstore.Store
	// Store is the governed store handed to repositories.
	Store store.Store
	sink  *Sink
}

// New builds a Stack with the default governance policy.
func New(t testing.TB) *Stack {
	t.Helper()
	policy := governance.Default()
	clock := func() time.Time { return Now }
	base := memstore.New(store.CRMSchema()).WithClock(clock)
	sink := &Sink{}
	gov := audit.NewInterceptor(
		softdelete.New(base, policy, clock),
		policy,
		audit.NewRecorder(sink, nil, nil),
		audit.WithClock(clock),
		audit.WithSchema(store.CRMSchema()),
		audit.WithRedactedFields("password_hash"),
	)
	return &Stack{Base: base, Store: gov, sink: sink}
}

// Entries returns the audit entries recorded so far.
func (s *Stack) Entries() []audit.Entry { return s.sink.Entries() }

// EntriesFor filters Entries by model.
func (s *Stack) EntriesFor(model string) []audit.Entry {
	var out []audit.Entry
	for _, e := range s.sink.Entries() {
		if e.Model == model {
			out = append(out, e)
		}
	}
	return out
}

// Sink captures audit entries in memory.
type Sink struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (s *Sink) Write(_ context.Context, e audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

// Entries returns a copy of the captured entries.
func (s *Sink) Entries() []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Entry(nil), s.entries...)
}
