package employees

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mdshared "github.com/agrocrm/backoffice/internal/masterdata/shared"
	"github.com/agrocrm/backoffice/internal/store"
)

// ErrUserLinked reports a login already tied to another employee.
var ErrUserLinked = errors.New("user already linked to an employee")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters mdshared.ListFilters) ([]Employee, int64, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id string) (Employee, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, form EmployeeForm) (Employee, error) {
	code := strings.ToUpper(strings.TrimSpace(form.Code))
	existing, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return Employee{}, err
	}
	if existing != nil {
		return Employee{}, fmt.Errorf("%w: code %s", mdshared.ErrDuplicate, code)
	}
	if form.UserID != nil {
		if err := s.checkUser(ctx, *form.UserID, ""); err != nil {
			return Employee{}, err
		}
	}
	return s.repo.Create(ctx, store.Record{
		"code":     code,
		"name":     strings.TrimSpace(form.Name),
		"email":    optional(form.Email),
		"phone":    optional(form.Phone),
		"position": strings.TrimSpace(form.Position),
		"region":   strings.TrimSpace(form.Region),
		"user_id":  optional(form.UserID),
	})
}

func (s *Service) Update(ctx context.Context, id string, patch EmployeePatch) (Employee, error) {
	changes := store.Record{}
	if patch.Name != nil {
		changes["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		changes["email"] = strings.ToLower(strings.TrimSpace(*patch.Email))
	}
	if patch.Phone != nil {
		changes["phone"] = strings.TrimSpace(*patch.Phone)
	}
	if patch.Position != nil {
		changes["position"] = strings.TrimSpace(*patch.Position)
	}
	if patch.Region != nil {
		changes["region"] = strings.TrimSpace(*patch.Region)
	}
	if len(changes) == 0 {
		return s.repo.Get(ctx, id)
	}
	return s.repo.Update(ctx, id, changes)
}

// LinkUser ties the employee to a login, or unlinks it when userID is nil.
func (s *Service) LinkUser(ctx context.Context, id string, userID *string) (Employee, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return Employee{}, err
	}
	if userID != nil {
		if err := s.checkUser(ctx, *userID, id); err != nil {
			return Employee{}, err
		}
	}
	return s.repo.Update(ctx, id, store.Record{"user_id": optional(userID)})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) checkUser(ctx context.Context, userID, employeeID string) error {
	ok, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return store.NotFound(store.ModelUser)
	}
	linked, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return err
	}
	if linked != nil && linked.ID != employeeID {
		return fmt.Errorf("%w: %s", ErrUserLinked, linked.Code)
	}
	return nil
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return v
}
