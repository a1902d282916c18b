package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/agrocrm/backoffice/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
	// exportLimit caps a single CSV export.
	exportLimit = 10000
)

// Service mengoordinasikan pengambilan data audit.
type Service struct {
	store store.Store
}

// NewService membuat service audit timeline baru. The store should be the
// undecorated one; audit rows are never soft-deleted.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// Timeline mengambil data audit dengan paging, terbaru lebih dulu.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.store == nil {
		return Result{}, fmt.Errorf("audit: store not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	where, err := filters.where()
	if err != nil {
		return Result{}, err
	}
	records, err := s.store.FindMany(ctx, store.ModelAuditLog, store.Query{
		Where:   where,
		OrderBy: []string{"performed_at DESC", "id DESC"},
		Limit:   uint64(pageSize + 1),
		Offset:  uint64((page - 1) * pageSize),
	})
	if err != nil {
		return Result{}, err
	}
	hasNext := len(records) > pageSize
	if hasNext {
		records = records[:pageSize]
	}
	rows, err := decodeEntries(records)
	if err != nil {
		return Result{}, err
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// Export mengambil seluruh data timeline tanpa paging.
func (s *Service) Export(ctx context.Context, filters TimelineFilters) ([]Entry, error) {
	if s.store == nil {
		return nil, fmt.Errorf("audit: store not configured")
	}
	where, err := filters.where()
	if err != nil {
		return nil, err
	}
	records, err := s.store.FindMany(ctx, store.ModelAuditLog, store.Query{
		Where:   where,
		OrderBy: []string{"performed_at DESC", "id DESC"},
		Limit:   exportLimit,
	})
	if err != nil {
		return nil, err
	}
	return decodeEntries(records)
}

// History returns every entry of one record, oldest first.
func (s *Service) History(ctx context.Context, model, recordID string) ([]Entry, error) {
	records, err := s.store.FindMany(ctx, store.ModelAuditLog, store.Query{
		Where:   store.Filter{"model": model, "record_id": recordID},
		OrderBy: []string{"performed_at ASC", "id ASC"},
	})
	if err != nil {
		return nil, err
	}
	return decodeEntries(records)
}

func (f TimelineFilters) where() (store.Filter, error) {
	where := store.Filter{}
	if !f.From.IsZero() || !f.To.IsZero() {
		r := store.Range{}
		if !f.From.IsZero() {
			r.From = f.From
		}
		if !f.To.IsZero() {
			r.To = f.To
		}
		where["performed_at"] = r
	}
	if v := strings.TrimSpace(f.Actor); v != "" {
		where["performed_by_user_id"] = v
	}
	if v := strings.TrimSpace(f.Model); v != "" {
		where["model"] = v
	}
	if v := strings.TrimSpace(f.RecordID); v != "" {
		where["record_id"] = v
	}
	if v := strings.TrimSpace(f.Action); v != "" {
		action, err := ParseAction(v)
		if err != nil {
			return nil, err
		}
		where["action"] = string(action)
	}
	return where, nil
}

func decodeEntries(records []store.Record) ([]Entry, error) {
	out := make([]Entry, 0, len(records))
	for _, rec := range records {
		e, err := EntryFromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
