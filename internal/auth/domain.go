package auth

import (
	"errors"
	"time"
)

// ErrInvalidToken reports a bearer token that failed verification.
var ErrInvalidToken = errors.New("auth: invalid token")

// Principal is the authenticated actor with the permission snapshot taken at
// login.
type Principal struct {
	UserID      string   `json:"userId"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	RoleID      *string  `json:"roleId"`
	Permissions []string `json:"permissions"`
}

// LoginInput is the login payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginResult is returned to the client after a successful login.
type LoginResult struct {
	Principal Principal `json:"principal"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
