package sales

import (
	"context"
	"time"

	"github.com/agrocrm/backoffice/internal/store"
)

// Repository reads the customer and product context of a sale and writes
// the ledger rows.
type Repository interface {
	CustomerStatus(ctx context.Context, id string) (string, error)
	ProductPrice(ctx context.Context, id string) (price int64, active bool, err error)
	CreateSale(ctx context.Context, data store.Record) (Sale, error)
	ListSales(ctx context.Context, filters ListFilters, limit, offset uint64) ([]Sale, int64, error)
	DeleteSale(ctx context.Context, id string) error
	CreateInteraction(ctx context.Context, data store.Record) (Interaction, error)
	ListInteractions(ctx context.Context, filters ListFilters, limit, offset uint64) ([]Interaction, int64, error)
	DeleteInteraction(ctx context.Context, id string) error
}

type repository struct {
	store store.Store
}

func NewRepository(s store.Store) Repository {
	return &repository{store: s}
}

func (r *repository) CustomerStatus(ctx context.Context, id string) (string, error) {
	row, err := r.store.FindOne(ctx, store.ModelCustomer, store.Filter{"id": id})
	if err != nil {
		return "", err
	}
	return row.String("status"), nil
}

func (r *repository) ProductPrice(ctx context.Context, id string) (int64, bool, error) {
	row, err := r.store.FindOne(ctx, store.ModelProduct, store.Filter{"id": id})
	if err != nil {
		return 0, false, err
	}
	return row.Int64("price"), row.Bool("is_active"), nil
}

func (r *repository) CreateSale(ctx context.Context, data store.Record) (Sale, error) {
	row, err := r.store.Create(ctx, store.ModelSale, data)
	if err != nil {
		return Sale{}, err
	}
	return saleFromRecord(row), nil
}

func (r *repository) ListSales(ctx context.Context, filters ListFilters, limit, offset uint64) ([]Sale, int64, error) {
	where := ledgerFilter(filters, "sold_at")
	total, err := r.store.Count(ctx, store.ModelSale, where)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.store.FindMany(ctx, store.ModelSale, store.Query{
		Where:   where,
		OrderBy: []string{"sold_at DESC", "id DESC"},
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]Sale, len(rows))
	for i, row := range rows {
		out[i] = saleFromRecord(row)
	}
	return out, total, nil
}

func (r *repository) DeleteSale(ctx context.Context, id string) error {
	_, err := r.store.Delete(ctx, store.ModelSale, store.Filter{"id": id})
	return err
}

func (r *repository) CreateInteraction(ctx context.Context, data store.Record) (Interaction, error) {
	row, err := r.store.Create(ctx, store.ModelInteraction, data)
	if err != nil {
		return Interaction{}, err
	}
	return interactionFromRecord(row), nil
}

func (r *repository) ListInteractions(ctx context.Context, filters ListFilters, limit, offset uint64) ([]Interaction, int64, error) {
	where := ledgerFilter(filters, "occurred_at")
	total, err := r.store.Count(ctx, store.ModelInteraction, where)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.store.FindMany(ctx, store.ModelInteraction, store.Query{
		Where:   where,
		OrderBy: []string{"occurred_at DESC", "id DESC"},
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]Interaction, len(rows))
	for i, row := range rows {
		out[i] = interactionFromRecord(row)
	}
	return out, total, nil
}

func (r *repository) DeleteInteraction(ctx context.Context, id string) error {
	_, err := r.store.Delete(ctx, store.ModelInteraction, store.Filter{"id": id})
	return err
}

func ledgerFilter(f ListFilters, timeColumn string) store.Filter {
	where := store.Filter{}
	if f.CustomerID != "" {
		where["customer_id"] = f.CustomerID
	}
	if f.EmployeeID != "" {
		where["employee_id"] = f.EmployeeID
	}
	if f.From != nil || f.To != nil {
		where[timeColumn] = store.Range{From: bound(f.From), To: bound(f.To)}
	}
	return where
}

// bound keeps an open end as an untyped nil.
func bound(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
