package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agrocrm/backoffice/internal/sales/customers"
	salesshared "github.com/agrocrm/backoffice/internal/sales/shared"
	"github.com/agrocrm/backoffice/internal/shared"
	"github.com/agrocrm/backoffice/internal/store"
)

// Service records sales and customer interactions.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock overrides the default sold_at and occurred_at time.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RecordSale prices the line from the current product price.
func (s *Service) RecordSale(ctx context.Context, req RecordSaleRequest) (Sale, error) {
	status, err := s.repo.CustomerStatus(ctx, req.CustomerID)
	if err != nil {
		return Sale{}, err
	}
	if status != customers.StatusApproved {
		return Sale{}, fmt.Errorf("%w: status %s", ErrCustomerNotApproved, status)
	}
	price, active, err := s.repo.ProductPrice(ctx, req.ProductID)
	if err != nil {
		return Sale{}, err
	}
	if !active {
		return Sale{}, ErrProductInactive
	}
	soldAt := s.now().UTC()
	if req.SoldAt != nil {
		soldAt = req.SoldAt.UTC()
	}
	return s.repo.CreateSale(ctx, store.Record{
		"customer_id": req.CustomerID,
		"employee_id": optional(req.EmployeeID),
		"product_id":  req.ProductID,
		"quantity":    req.Quantity,
		"amount":      salesshared.LineAmount(req.Quantity, price, req.DiscountPercent),
		"sold_at":     soldAt,
	})
}

func (s *Service) ListSales(ctx context.Context, filters ListFilters) ([]Sale, shared.Pagination, error) {
	page := shared.NewPagination(filters.Page, filters.PerPage, 0)
	items, total, err := s.repo.ListSales(ctx, filters, uint64(page.PerPage), page.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page.Page, page.PerPage, total), nil
}

func (s *Service) DeleteSale(ctx context.Context, id string) error {
	return s.repo.DeleteSale(ctx, id)
}

func (s *Service) LogInteraction(ctx context.Context, req LogInteractionRequest) (Interaction, error) {
	if _, err := s.repo.CustomerStatus(ctx, req.CustomerID); err != nil {
		return Interaction{}, err
	}
	at := s.now().UTC()
	if req.OccurredAt != nil {
		at = req.OccurredAt.UTC()
	}
	return s.repo.CreateInteraction(ctx, store.Record{
		"customer_id": req.CustomerID,
		"employee_id": optional(req.EmployeeID),
		"kind":        string(req.Kind),
		"notes":       strings.TrimSpace(req.Notes),
		"occurred_at": at,
	})
}

func (s *Service) ListInteractions(ctx context.Context, filters ListFilters) ([]Interaction, shared.Pagination, error) {
	page := shared.NewPagination(filters.Page, filters.PerPage, 0)
	items, total, err := s.repo.ListInteractions(ctx, filters, uint64(page.PerPage), page.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page.Page, page.PerPage, total), nil
}

func (s *Service) DeleteInteraction(ctx context.Context, id string) error {
	return s.repo.DeleteInteraction(ctx, id)
}

func optional(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
