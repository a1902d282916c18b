package users

import (
	"errors"
	"time"

	"github.com/agrocrm/backoffice/internal/store"
)

// ErrEmailTaken reports a live account already registered under the email.
var ErrEmailTaken = errors.New("users: email already registered")

// User represents a back-office account.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	RoleID       *string    `json:"roleId"`
	IsActive     bool       `json:"isActive"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// CreateInput is the payload for a new account.
type CreateInput struct {
	Email    string  `json:"email" validate:"required,email,max=254"`
	Name     string  `json:"name" validate:"required,max=128"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	RoleID   *string `json:"roleId" validate:"omitempty,min=1"`
}

// UpdateInput is a partial account update.
type UpdateInput struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=128"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
	IsActive *bool   `json:"isActive"`
}

// AssignRoleInput binds an account to a role. An empty role id unassigns.
type AssignRoleInput struct {
	RoleID *string `json:"roleId"`
}

// ListFilters narrows the account list.
type ListFilters struct {
	Search   string
	RoleID   string
	Active   *bool
	Page     int
	PageSize int
}

func userFromRecord(r store.Record) User {
	return User{
		ID:           r.String("id"),
		Email:        r.String("email"),
		Name:         r.String("name"),
		RoleID:       r.StringPtr("role_id"),
		IsActive:     r.Bool("is_active"),
		LastLoginAt:  r.TimePtr("last_login_at"),
		PasswordHash: r.String("password_hash"),
		CreatedAt:    r.Time("created_at"),
		UpdatedAt:    r.Time("updated_at"),
	}
}
