package products

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	mdshared "github.com/agrocrm/backoffice/internal/masterdata/shared"
	"github.com/agrocrm/backoffice/internal/platform/blob"
	"github.com/agrocrm/backoffice/internal/store"
)

var imageTypes = map[string]bool{"image/jpeg": true, "image/png": true, "image/webp": true}

type Service struct {
	repo   Repository
	blobs  blob.Store
	logger *slog.Logger
}

func NewService(repo Repository, blobs blob.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, blobs: blobs, logger: logger}
}

func (s *Service) List(ctx context.Context, filters mdshared.ListFilters) ([]Product, int64, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, form ProductForm) (Product, error) {
	sku := strings.ToUpper(strings.TrimSpace(form.SKU))
	existing, err := s.repo.GetBySKU(ctx, sku)
	if err != nil {
		return Product{}, err
	}
	if existing != nil {
		return Product{}, fmt.Errorf("%w: sku %s", mdshared.ErrDuplicate, sku)
	}
	unit := strings.TrimSpace(form.Unit)
	if unit == "" {
		unit = "unit"
	}
	return s.repo.Create(ctx, store.Record{
		"sku":         sku,
		"name":        strings.TrimSpace(form.Name),
		"category":    strings.TrimSpace(form.Category),
		"unit":        unit,
		"price":       form.Price,
		"description": form.Description,
		"is_active":   true,
	})
}

func (s *Service) Update(ctx context.Context, id string, patch ProductPatch) (Product, error) {
	changes := store.Record{}
	if patch.Name != nil {
		changes["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.Category != nil {
		changes["category"] = strings.TrimSpace(*patch.Category)
	}
	if patch.Unit != nil {
		changes["unit"] = strings.TrimSpace(*patch.Unit)
	}
	if patch.Price != nil {
		changes["price"] = *patch.Price
	}
	if patch.Description != nil {
		changes["description"] = *patch.Description
	}
	if patch.IsActive != nil {
		changes["is_active"] = *patch.IsActive
	}
	if len(changes) == 0 {
		return s.repo.Get(ctx, id)
	}
	return s.repo.Update(ctx, id, changes)
}

// Delete soft-deletes a product together with its stock and images. Image
// files stay in blob storage so the records can be restored.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Delete(ctx, id)
	})
}

func (s *Service) Stock(ctx context.Context, productID string) ([]Stock, error) {
	if _, err := s.repo.Get(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.ListStock(ctx, productID)
}

// AdjustStock applies adj in one transaction. Stock never goes negative.
func (s *Service) AdjustStock(ctx context.Context, productID string, adj StockAdjustment) (Stock, error) {
	if adj.Delta == 0 {
		return Stock{}, mdshared.ErrInvalidQuantity
	}
	location := strings.TrimSpace(adj.Location)
	var out Stock
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := repo.Get(ctx, productID); err != nil {
			return err
		}
		current, err := repo.FindStock(ctx, productID, location)
		if err != nil {
			return err
		}
		if current == nil {
			if adj.Delta < 0 {
				return mdshared.ErrInsufficientStock
			}
			out, err = repo.CreateStock(ctx, productID, location, adj.Delta)
			return err
		}
		next := current.Quantity + adj.Delta
		if next < 0 {
			return fmt.Errorf("%w: %d on hand at %s", mdshared.ErrInsufficientStock, current.Quantity, location)
		}
		out, err = repo.SetStock(ctx, current.ID, next)
		return err
	})
	if err != nil {
		return Stock{}, err
	}
	return out, nil
}

func (s *Service) Images(ctx context.Context, productID string) ([]Image, error) {
	if _, err := s.repo.Get(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.ListImages(ctx, productID)
}

// UploadImage stores r in blob storage and records its path. The file is
// removed again when the record cannot be written.
func (s *Service) UploadImage(ctx context.Context, productID, contentType string, r io.Reader) (Image, error) {
	if !imageTypes[contentType] {
		return Image{}, fmt.Errorf("%w: %s", mdshared.ErrUnsupportedMedia, contentType)
	}
	if _, err := s.repo.Get(ctx, productID); err != nil {
		return Image{}, err
	}
	existing, err := s.repo.ListImages(ctx, productID)
	if err != nil {
		return Image{}, err
	}
	obj, err := s.blobs.Put(ctx, "products/"+productID, blob.ExtensionFor(contentType), r)
	if err != nil {
		return Image{}, err
	}
	img, err := s.repo.CreateImage(ctx, Image{
		ProductID:   productID,
		Path:        obj.Key,
		ContentType: contentType,
		SizeBytes:   obj.Size,
		Position:    int64(len(existing)),
	})
	if err != nil {
		if derr := s.blobs.Delete(ctx, obj.Key); derr != nil {
			s.logger.Warn("remove orphan image", slog.String("path", obj.Key), slog.Any("error", derr))
		}
		return Image{}, err
	}
	return img, nil
}

// OpenImage returns the stored file of a live image.
func (s *Service) OpenImage(ctx context.Context, productID, imageID string) (Image, io.ReadCloser, error) {
	img, err := s.repo.GetImage(ctx, productID, imageID)
	if err != nil {
		return Image{}, nil, err
	}
	rc, err := s.blobs.Open(ctx, img.Path)
	if err != nil {
		return Image{}, nil, fmt.Errorf("open image %s: %w", img.ID, err)
	}
	return img, rc, nil
}

// RemoveImage soft-deletes the image record.
func (s *Service) RemoveImage(ctx context.Context, productID, imageID string) error {
	return s.repo.DeleteImage(ctx, productID, imageID)
}
