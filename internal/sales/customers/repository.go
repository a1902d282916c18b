package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/agrocrm/backoffice/internal/store"
)

var (
	ErrAlreadyExists     = errors.New("customers: code already exists")
	ErrInvalidParent     = errors.New("customers: parent must be an approved dealer")
	ErrInvalidTransition = errors.New("customers: only pending customers can be approved or rejected")
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id string) (*Customer, error)
	GetByCode(ctx context.Context, code string) (*Customer, error)
	List(ctx context.Context, req ListCustomersRequest, limit, offset uint64) ([]Customer, int64, error)
	Create(ctx context.Context, data store.Record) (*Customer, error)
	Update(ctx context.Context, id string, updates store.Record) (*Customer, error)
	Delete(ctx context.Context, id string) error
	CountByType(ctx context.Context, customerType string) (int64, error)
}

type repository struct {
	store store.Store
}

// NewRepository returns a Repository over the governed store.
func NewRepository(s store.Store) Repository {
	return &repository{store: s}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return r.store.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		return fn(ctx, &repository{store: tx})
	})
}

func (r *repository) Get(ctx context.Context, id string) (*Customer, error) {
	row, err := r.store.FindOne(ctx, store.ModelCustomer, store.Filter{"id": id})
	if err != nil {
		return nil, err
	}
	c := customerFromRecord(row)
	return &c, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Customer, error) {
	row, err := r.store.FindFirst(ctx, store.ModelCustomer, store.Query{Where: store.Filter{"code": code}})
	if err != nil || row == nil {
		return nil, err
	}
	c := customerFromRecord(row)
	return &c, nil
}

func (r *repository) List(ctx context.Context, req ListCustomersRequest, limit, offset uint64) ([]Customer, int64, error) {
	where := store.Filter{}
	if req.Type != "" {
		where["type"] = req.Type
	}
	if req.Status != "" {
		where["status"] = req.Status
	}
	if req.Region != "" {
		where["region"] = req.Region
	}
	if req.Search != "" {
		where["name"] = store.Contains(req.Search)
	}
	total, err := r.store.Count(ctx, store.ModelCustomer, where)
	if err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}
	rows, err := r.store.FindMany(ctx, store.ModelCustomer, store.Query{
		Where:   where,
		OrderBy: []string{"code ASC"},
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	out := make([]Customer, len(rows))
	for i, row := range rows {
		out[i] = customerFromRecord(row)
	}
	return out, total, nil
}

func (r *repository) Create(ctx context.Context, data store.Record) (*Customer, error) {
	row, err := r.store.Create(ctx, store.ModelCustomer, data)
	if errors.Is(err, store.ErrConflict) {
		return nil, fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	}
	if err != nil {
		return nil, err
	}
	c := customerFromRecord(row)
	return &c, nil
}

func (r *repository) Update(ctx context.Context, id string, updates store.Record) (*Customer, error) {
	row, err := r.store.Update(ctx, store.ModelCustomer, store.Filter{"id": id}, updates)
	if err != nil {
		return nil, err
	}
	c := customerFromRecord(row)
	return &c, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	_, err := r.store.Delete(ctx, store.ModelCustomer, store.Filter{"id": id})
	return err
}

// CountByType counts every customer of a type, deleted ones included, so
// generated codes are never reused.
func (r *repository) CountByType(ctx context.Context, customerType string) (int64, error) {
	return r.store.Count(ctx, store.ModelCustomer, store.Filter{"type": customerType, store.DeletedAtColumn: store.Any})
}
