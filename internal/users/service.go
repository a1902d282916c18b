package users

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/agrocrm/backoffice/internal/shared"
	"github.com/agrocrm/backoffice/internal/store"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, filters ListFilters, limit, offset uint64) ([]User, int64, error)
	GetUser(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, u User) (User, error)
	UpdateUser(ctx context.Context, id string, changes store.Record) (User, error)
	DeleteUser(ctx context.Context, id string) error
	TouchLogin(ctx context.Context, id string, at time.Time) error
}

// RoleLookup confirms a role exists before it is assigned.
type RoleLookup interface {
	RoleExists(ctx context.Context, id string) (bool, error)
}

// Service handles user business logic.
type Service struct {
	repo   RepositoryPort
	roles  RoleLookup
	logger *slog.Logger
	cost   int
}

// NewService builds Service instance. roles may be nil, which skips role
// existence checks.
func NewService(repo RepositoryPort, roles RoleLookup, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, roles: roles, logger: logger, cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

// ListUsers returns one page of accounts.
func (s *Service) ListUsers(ctx context.Context, filters ListFilters) ([]User, shared.Pagination, error) {
	page := shared.NewPagination(filters.Page, filters.PageSize, 0)
	users, total, err := s.repo.ListUsers(ctx, filters, uint64(page.PerPage), page.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return users, shared.NewPagination(page.Page, page.PerPage, total), nil
}

// GetUser returns one account.
func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// FindByEmail looks an account up by its normalized email.
func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.FindByEmail(ctx, normalizeEmail(email))
}

// CreateUser registers an active account with a bcrypt password hash.
func (s *Service) CreateUser(ctx context.Context, in CreateInput) (User, error) {
	email := normalizeEmail(in.Email)
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if existing != nil {
		return User{}, ErrEmailTaken
	}
	roleID, err := s.checkRole(ctx, in.RoleID)
	if err != nil {
		return User{}, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return User{}, err
	}
	user, err := s.repo.CreateUser(ctx, User{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		RoleID:       roleID,
		IsActive:     true,
	})
	if err != nil {
		return User{}, err
	}
	s.logger.Info("user created", slog.String("user_id", user.ID))
	return user, nil
}

// UpdateUser applies a partial update. A new password is re-hashed.
func (s *Service) UpdateUser(ctx context.Context, id string, in UpdateInput) (User, error) {
	changes := store.Record{}
	if in.Name != nil {
		changes["name"] = strings.TrimSpace(*in.Name)
	}
	if in.IsActive != nil {
		changes["is_active"] = *in.IsActive
	}
	if in.Password != nil {
		hash, err := s.hash(*in.Password)
		if err != nil {
			return User{}, err
		}
		changes["password_hash"] = hash
	}
	if len(changes) == 0 {
		return s.repo.GetUser(ctx, id)
	}
	return s.repo.UpdateUser(ctx, id, changes)
}

// AssignRole binds id to roleID, or unassigns when roleID is empty.
func (s *Service) AssignRole(ctx context.Context, id string, roleID *string) (User, error) {
	checked, err := s.checkRole(ctx, roleID)
	if err != nil {
		return User{}, err
	}
	var value any
	if checked != nil {
		value = *checked
	}
	return s.repo.UpdateUser(ctx, id, store.Record{"role_id": value})
}

// DeleteUser soft-deletes an account.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.repo.DeleteUser(ctx, id)
}

// Authenticate resolves an active account by email and verifies password.
// Every failure is reported as shared.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		s.logger.Warn("authenticate lookup", slog.Any("error", err))
		return User{}, shared.ErrInvalidCredentials
	}
	if user == nil || !user.IsActive {
		return User{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, shared.ErrInvalidCredentials
	}
	return *user, nil
}

// RecordLogin stamps a successful login. Failures are logged only.
func (s *Service) RecordLogin(ctx context.Context, id string, at time.Time) {
	if err := s.repo.TouchLogin(ctx, id, at); err != nil {
		s.logger.Warn("record login", slog.String("user_id", id), slog.Any("error", err))
	}
}

func (s *Service) checkRole(ctx context.Context, roleID *string) (*string, error) {
	if roleID == nil || strings.TrimSpace(*roleID) == "" {
		return nil, nil
	}
	id := strings.TrimSpace(*roleID)
	if s.roles != nil {
		ok, err := s.roles.RoleExists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, store.NotFound(store.ModelRoleDefinition)
		}
	}
	return &id, nil
}

func (s *Service) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("users: hash password: %w", err)
	}
	return string(hashed), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
