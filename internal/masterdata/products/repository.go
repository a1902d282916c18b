package products

import (
	"context"
	"errors"
	"fmt"

	mdshared "github.com/agrocrm/backoffice/internal/masterdata/shared"
	"github.com/agrocrm/backoffice/internal/rbac"
	"github.com/agrocrm/backoffice/internal/store"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context, filters mdshared.ListFilters) ([]Product, int64, error)
	Get(ctx context.Context, id string) (Product, error)
	GetBySKU(ctx context.Context, sku string) (*Product, error)
	Create(ctx context.Context, data store.Record) (Product, error)
	Update(ctx context.Context, id string, changes store.Record) (Product, error)
	Delete(ctx context.Context, id string) error

	ListStock(ctx context.Context, productID string) ([]Stock, error)
	FindStock(ctx context.Context, productID, location string) (*Stock, error)
	CreateStock(ctx context.Context, productID, location string, qty int64) (Stock, error)
	SetStock(ctx context.Context, id string, qty int64) (Stock, error)

	ListImages(ctx context.Context, productID string) ([]Image, error)
	GetImage(ctx context.Context, productID, id string) (Image, error)
	CreateImage(ctx context.Context, img Image) (Image, error)
	DeleteImage(ctx context.Context, productID, id string) error
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

var sortable = []string{"sku", "name", "category", "price", "created_at"}

func (r *repository) List(ctx context.Context, filters mdshared.ListFilters) ([]Product, int64, error) {
	filters = filters.Normalize()
	where := store.Filter{}
	if filters.Search != "" {
		where["name"] = store.Contains(filters.Search)
	}
	if filters.Category != "" {
		where["category"] = filters.Category
	}
	if filters.IsActive != nil {
		where["is_active"] = *filters.IsActive
	}
	total, err := r.store.Count(ctx, store.ModelProduct, where)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.store.FindMany(ctx, store.ModelProduct, store.Query{
		Where:   where,
		OrderBy: mdshared.OrderBy(filters.SortBy, filters.SortDir, sortable, "sku"),
		Limit:   uint64(filters.Limit),
		Offset:  filters.Offset(),
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]Product, len(rows))
	for i, row := range rows {
		out[i] = productFromRecord(row)
	}
	return out, total, nil
}

func (r *repository) Get(ctx context.Context, id string) (Product, error) {
	row, err := r.store.FindOne(ctx, store.ModelProduct, store.Filter{"id": id})
	if err != nil {
		return Product{}, err
	}
	return productFromRecord(row), nil
}

func (r *repository) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	row, err := r.store.FindFirst(ctx, store.ModelProduct, store.Query{Where: store.Filter{"sku": sku}})
	if err != nil || row == nil {
		return nil, err
	}
	p := productFromRecord(row)
	return &p, nil
}

func (r *repository) Create(ctx context.Context, data store.Record) (Product, error) {
	row, err := r.store.Create(ctx, store.ModelProduct, data)
	if errors.Is(err, store.ErrConflict) {
		return Product{}, fmt.Errorf("%w: %v", mdshared.ErrDuplicate, err)
	}
	if err != nil {
		return Product{}, err
	}
	return productFromRecord(row), nil
}

func (r *repository) Update(ctx context.Context, id string, changes store.Record) (Product, error) {
	row, err := r.store.Update(ctx, store.ModelProduct, store.Filter{"id": id}, changes)
	if err != nil {
		return Product{}, err
	}
	return productFromRecord(row), nil
}

// Delete soft-deletes the product with its stock rows and images.
func (r *repository) Delete(ctx context.Context, id string) error {
	if _, err := r.store.Delete(ctx, store.ModelProduct, store.Filter{"id": id}); err != nil {
		return err
	}
	ctx = rbac.ContextWithCascade(ctx, store.ModelProduct)
	if _, err := r.store.DeleteMany(ctx, store.ModelStock, store.Filter{"product_id": id}); err != nil {
		return fmt.Errorf("delete stock: %w", err)
	}
	if _, err := r.store.DeleteMany(ctx, store.ModelProductImage, store.Filter{"product_id": id}); err != nil {
		return fmt.Errorf("delete images: %w", err)
	}
	return nil
}

func (r *repository) ListStock(ctx context.Context, productID string) ([]Stock, error) {
	rows, err := r.store.FindMany(ctx, store.ModelStock, store.Query{
		Where:   store.Filter{"product_id": productID},
		OrderBy: []string{"location ASC"},
	})
	if err != nil {
		return nil, err
	}
	out := make([]Stock, len(rows))
	for i, row := range rows {
		out[i] = stockFromRecord(row)
	}
	return out, nil
}

func (r *repository) FindStock(ctx context.Context, productID, location string) (*Stock, error) {
	row, err := r.store.FindFirst(ctx, store.ModelStock, store.Query{Where: store.Filter{"product_id": productID, "location": location}})
	if err != nil || row == nil {
		return nil, err
	}
	s := stockFromRecord(row)
	return &s, nil
}

func (r *repository) CreateStock(ctx context.Context, productID, location string, qty int64) (Stock, error) {
	row, err := r.store.Create(ctx, store.ModelStock, store.Record{"product_id": productID, "location": location, "quantity": qty})
	if err != nil {
		return Stock{}, err
	}
	return stockFromRecord(row), nil
}

func (r *repository) SetStock(ctx context.Context, id string, qty int64) (Stock, error) {
	row, err := r.store.Update(ctx, store.ModelStock, store.Filter{"id": id}, store.Record{"quantity": qty})
	if err != nil {
		return Stock{}, err
	}
	return stockFromRecord(row), nil
}

func (r *repository) ListImages(ctx context.Context, productID string) ([]Image, error) {
	rows, err := r.store.FindMany(ctx, store.ModelProductImage, store.Query{
		Where:   store.Filter{"product_id": productID},
		OrderBy: []string{"position ASC", "id ASC"},
	})
	if err != nil {
		return nil, err
	}
	out := make([]Image, len(rows))
	for i, row := range rows {
		out[i] = imageFromRecord(row)
	}
	return out, nil
}

func (r *repository) GetImage(ctx context.Context, productID, id string) (Image, error) {
	row, err := r.store.FindOne(ctx, store.ModelProductImage, store.Filter{"id": id, "product_id": productID})
	if err != nil {
		return Image{}, err
	}
	return imageFromRecord(row), nil
}

func (r *repository) CreateImage(ctx context.Context, img Image) (Image, error) {
	row, err := r.store.Create(ctx, store.ModelProductImage, store.Record{
		"product_id":   img.ProductID,
		"path":         img.Path,
		"content_type": img.ContentType,
		"size_bytes":   img.SizeBytes,
		"position":     img.Position,
	})
	if err != nil {
		return Image{}, err
	}
	return imageFromRecord(row), nil
}

func (r *repository) DeleteImage(ctx context.Context, productID, id string) error {
	_, err := r.store.Delete(ctx, store.ModelProductImage, store.Filter{"id": id, "product_id": productID})
	return err
}
