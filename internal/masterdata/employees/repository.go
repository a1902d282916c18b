package employees

import (
	"context"
	"errors"
	"fmt"

	mdshared "github.com/agrocrm/backoffice/internal/masterdata/shared"
	"github.com/agrocrm/backoffice/internal/store"
)

type Repository interface {
	List(ctx context.Context, filters mdshared.ListFilters) ([]Employee, int64, error)
	Get(ctx context.Context, id string) (Employee, error)
	GetByCode(ctx context.Context, code string) (*Employee, error)
	GetByUser(ctx context.Context, userID string) (*Employee, error)
	UserExists(ctx context.Context, userID string) (bool, error)
	Create(ctx context.Context, data store.Record) (Employee, error)
	Update(ctx context.Context, id string, changes store.Record) (Employee, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	store store.Store
}

func NewRepository(s store.Store) Repository {
	return &repository{store: s}
}

var sortable = []string{"code", "name", "region", "position", "created_at"}

func (r *repository) List(ctx context.Context, filters mdshared.ListFilters) ([]Employee, int64, error) {
	filters = filters.Normalize()
	where := store.Filter{}
	if filters.Search != "" {
		where["name"] = store.Contains(filters.Search)
	}
	if filters.Region != "" {
		where["region"] = filters.Region
	}
	total, err := r.store.Count(ctx, store.ModelEmployee, where)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.store.FindMany(ctx, store.ModelEmployee, store.Query{
		Where:   where,
		OrderBy: mdshared.OrderBy(filters.SortBy, filters.SortDir, sortable, "code"),
		Limit:   uint64(filters.Limit),
		Offset:  filters.Offset(),
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]Employee, len(rows))
	for i, row := range rows {
		out[i] = employeeFromRecord(row)
	}
	return out, total, nil
}

func (r *repository) Get(ctx context.Context, id string) (Employee, error) {
	row, err := r.store.FindOne(ctx, store.ModelEmployee, store.Filter{"id": id})
	if err != nil {
		return Employee{}, err
	}
	return employeeFromRecord(row), nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Employee, error) {
	return r.first(ctx, store.Filter{"code": code})
}

func (r *repository) GetByUser(ctx context.Context, userID string) (*Employee, error) {
	return r.first(ctx, store.Filter{"user_id": userID})
}

func (r *repository) first(ctx context.Context, where store.Filter) (*Employee, error) {
	row, err := r.store.FindFirst(ctx, store.ModelEmployee, store.Query{Where: where})
	if err != nil || row == nil {
		return nil, err
	}
	e := employeeFromRecord(row)
	return &e, nil
}

func (r *repository) UserExists(ctx context.Context, userID string) (bool, error) {
	n, err := r.store.Count(ctx, store.ModelUser, store.Filter{"id": userID})
	return n > 0, err
}

func (r *repository) Create(ctx context.Context, data store.Record) (Employee, error) {
	row, err := r.store.Create(ctx, store.ModelEmployee, data)
	if errors.Is(err, store.ErrConflict) {
		return Employee{}, fmt.Errorf("%w: %v", mdshared.ErrDuplicate, err)
	}
	if err != nil {
		return Employee{}, err
	}
	return employeeFromRecord(row), nil
}

func (r *repository) Update(ctx context.Context, id string, changes store.Record) (Employee, error) {
	row, err := r.store.Update(ctx, store.ModelEmployee, store.Filter{"id": id}, changes)
	if err != nil {
		return Employee{}, err
	}
	return employeeFromRecord(row), nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	_, err := r.store.Delete(ctx, store.ModelEmployee, store.Filter{"id": id})
	return err
}
