package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agrocrm/backoffice/internal/audit"
	"github.com/agrocrm/backoffice/internal/shared"
	"github.com/agrocrm/backoffice/internal/store"
)

var codePrefix = map[string]string{
	TypeDealer:    "DLR",
	TypeSubDealer: "SDL",
	TypeFarmer:    "FRM",
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a pending customer. Sub-dealers must hang off an
// approved dealer; a blank code is generated from the type.
func (s *Service) Create(ctx context.Context, req CreateCustomerRequest) (*Customer, error) {
	var created *Customer
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := checkParent(ctx, repo, req.Type, req.ParentID); err != nil {
			return err
		}
		code := strings.ToUpper(strings.TrimSpace(req.Code))
		if code == "" {
			generated, err := generateCode(ctx, repo, req.Type)
			if err != nil {
				return err
			}
			code = generated
		}
		existing, err := repo.GetByCode(ctx, code)
		if err != nil {
			return fmt.Errorf("check existing customer: %w", err)
		}
		if existing != nil {
			return ErrAlreadyExists
		}
		data := store.Record{
			"code":         code,
			"name":         strings.TrimSpace(req.Name),
			"type":         req.Type,
			"status":       StatusPending,
			"phone":        optional(req.Phone),
			"email":        optional(req.Email),
			"address":      req.Address,
			"region":       req.Region,
			"credit_limit": req.CreditLimit,
			"parent_id":    optional(req.ParentID),
			"assigned_to":  optional(req.AssignedTo),
		}
		if actor, ok := shared.ActorFromContext(ctx); ok {
			data["created_by"] = actor
		}
		created, err = repo.Create(ctx, data)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateCustomerRequest) (*Customer, error) {
	updates := store.Record{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Region != nil {
		updates["region"] = *req.Region
	}
	if req.CreditLimit != nil {
		updates["credit_limit"] = *req.CreditLimit
	}
	if req.AssignedTo != nil {
		updates["assigned_to"] = optional(req.AssignedTo)
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, id)
	}
	c, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return c, nil
}

// Approve moves a pending customer to APPROVED. The audit entry is tagged
// APPROVE explicitly.
func (s *Service) Approve(ctx context.Context, id string) (*Customer, error) {
	return s.decide(audit.WithIntent(ctx, audit.ActionApprove), id, store.Record{"status": StatusApproved, "reject_reason": nil})
}

// Reject moves a pending customer to REJECTED with a reason.
func (s *Service) Reject(ctx context.Context, id, reason string) (*Customer, error) {
	return s.decide(audit.WithIntent(ctx, audit.ActionReject), id, store.Record{"status": StatusRejected, "reject_reason": strings.TrimSpace(reason)})
}

func (s *Service) decide(ctx context.Context, id string, updates store.Record) (*Customer, error) {
	var out *Customer
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		current, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != StatusPending {
			return ErrInvalidTransition
		}
		out, err = repo.Update(ctx, id, updates)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListCustomersRequest) ([]Customer, shared.Pagination, error) {
	page := shared.NewPagination(req.Page, req.PerPage, 0)
	items, total, err := s.repo.List(ctx, req, uint64(page.PerPage), page.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page.Page, page.PerPage, total), nil
}

// Delete soft-deletes a customer.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// GenerateCode suggests the next code for a customer type.
func (s *Service) GenerateCode(ctx context.Context, customerType string) (string, error) {
	return generateCode(ctx, s.repo, customerType)
}

func generateCode(ctx context.Context, repo Repository, customerType string) (string, error) {
	prefix, ok := codePrefix[customerType]
	if !ok {
		return "", fmt.Errorf("customers: unknown type %q", customerType)
	}
	n, err := repo.CountByType(ctx, customerType)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%05d", prefix, n+1), nil
}

func checkParent(ctx context.Context, repo Repository, customerType string, parentID *string) error {
	if customerType != TypeSubDealer {
		if parentID != nil {
			return fmt.Errorf("%w: only sub-dealers have a parent", ErrInvalidParent)
		}
		return nil
	}
	if parentID == nil {
		return fmt.Errorf("%w: sub-dealer requires a parent", ErrInvalidParent)
	}
	parent, err := repo.Get(ctx, *parentID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidParent
	}
	if err != nil {
		return err
	}
	if parent.Type != TypeDealer || parent.Status != StatusApproved {
		return ErrInvalidParent
	}
	return nil
}

func optional(s *string) any {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return strings.TrimSpace(*s)
}
