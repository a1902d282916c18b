package users

import (
	"context"
	"time"

	"github.com/agrocrm/backoffice/internal/store"
)

// Repository persists accounts through the governed store.
type Repository struct {
	store store.Store
}

// NewRepository constructs a repository.
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// ListUsers returns one page of live accounts ordered by name, plus the total
// number of matches.
func (r *Repository) ListUsers(ctx context.Context, filters ListFilters, limit, offset uint64) ([]User, int64, error) {
	where := store.Filter{}
	if filters.Search != "" {
		where["name"] = store.Contains(filters.Search)
	}
	if filters.RoleID != "" {
		where["role_id"] = filters.RoleID
	}
	if filters.Active != nil {
		where["is_active"] = *filters.Active
	}
	total, err := r.store.Count(ctx, store.ModelUser, where)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.store.FindMany(ctx, store.ModelUser, store.Query{
		Where:   where,
		OrderBy: []string{"name ASC", "id ASC"},
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]User, len(rows))
	for i, row := range rows {
		out[i] = userFromRecord(row)
	}
	return out, total, nil
}

// GetUser fetches one live account.
func (r *Repository) GetUser(ctx context.Context, id string) (User, error) {
	row, err := r.store.FindOne(ctx, store.ModelUser, store.Filter{"id": id})
	if err != nil {
		return User{}, err
	}
	return userFromRecord(row), nil
}

// FindByEmail returns the live account registered under email, or nil.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row, err := r.store.FindFirst(ctx, store.ModelUser, store.Query{Where: store.Filter{"email": email}})
	if err != nil || row == nil {
		return nil, err
	}
	user := userFromRecord(row)
	return &user, nil
}

// CreateUser inserts an account.
func (r *Repository) CreateUser(ctx context.Context, u User) (User, error) {
	row, err := r.store.Create(ctx, store.ModelUser, store.Record{
		"email":         u.Email,
		"name":          u.Name,
		"password_hash": u.PasswordHash,
		"role_id":       optional(u.RoleID),
		"is_active":     u.IsActive,
	})
	if err != nil {
		return User{}, err
	}
	return userFromRecord(row), nil
}

// UpdateUser applies changes to one account.
func (r *Repository) UpdateUser(ctx context.Context, id string, changes store.Record) (User, error) {
	row, err := r.store.Update(ctx, store.ModelUser, store.Filter{"id": id}, changes)
	if err != nil {
		return User{}, err
	}
	return userFromRecord(row), nil
}

// DeleteUser soft-deletes one account.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	_, err := r.store.Delete(ctx, store.ModelUser, store.Filter{"id": id})
	return err
}

// TouchLogin stamps the last successful login.
func (r *Repository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.store.Update(ctx, store.ModelUser, store.Filter{"id": id}, store.Record{"last_login_at": at.UTC()})
	return err
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
