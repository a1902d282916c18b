package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/agrocrm/backoffice/internal/shared"
	"github.com/agrocrm/backoffice/internal/users"
)

// Authenticator verifies credentials and stamps successful logins.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (users.User, error)
	RecordLogin(ctx context.Context, id string, at time.Time)
}

// GrantResolver resolves the permission keys of a role.
type GrantResolver interface {
	RolePermissionKeys(ctx context.Context, roleID string) ([]string, error)
}

// Service wraps authentication business rules.
type Service struct {
	users  Authenticator
	grants GrantResolver
	tokens *TokenIssuer
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a new Service.
func NewService(users Authenticator, grants GrantResolver, tokens *TokenIssuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, grants: grants, tokens: tokens, logger: logger, now: time.Now}
}

// Login validates email/password credentials and takes the permission
// snapshot. The snapshot is fixed for the lifetime of the session or token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return LoginResult{}, err
	}
	perms := []string{}
	if user.RoleID != nil {
		perms, err = s.grants.RolePermissionKeys(ctx, *user.RoleID)
		if err != nil {
			return LoginResult{}, err
		}
	}
	p := Principal{UserID: user.ID, Email: user.Email, Name: user.Name, RoleID: user.RoleID, Permissions: perms}
	result := LoginResult{Principal: p}
	if s.tokens != nil {
		result.Token, result.ExpiresAt, err = s.tokens.Issue(p)
		if err != nil {
			return LoginResult{}, err
		}
	}
	s.users.RecordLogin(shared.ContextWithActor(ctx, user.ID), user.ID, s.now())
	s.logger.Info("login", slog.String("user_id", user.ID), slog.Int("permissions", len(perms)))
	return result, nil
}

// Tokens exposes the issuer used to verify bearer tokens.
func (s *Service) Tokens() *TokenIssuer {
	return s.tokens
}
