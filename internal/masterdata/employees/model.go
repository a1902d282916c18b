package employees

import (
	"time"

	"github.com/agrocrm/backoffice/internal/store"
)

// Employee is a field or office staff member, optionally linked to a login.
type Employee struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Position  string    `json:"position"`
	Region    string    `json:"region"`
	UserID    *string   `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func employeeFromRecord(r store.Record) Employee {
	return Employee{
		ID:        r.String("id"),
		Code:      r.String("code"),
		Name:      r.String("name"),
		Email:     r.StringPtr("email"),
		Phone:     r.StringPtr("phone"),
		Position:  r.String("position"),
		Region:    r.String("region"),
		UserID:    r.StringPtr("user_id"),
		CreatedAt: r.Time("created_at"),
		UpdatedAt: r.Time("updated_at"),
	}
}
