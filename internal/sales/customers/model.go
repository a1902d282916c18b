package customers

import (
	"time"

	"github.com/agrocrm/backoffice/internal/store"
)

// Customer types along the distribution chain.
const (
	TypeDealer    = "DEALER"
	TypeSubDealer = "SUB_DEALER"
	TypeFarmer    = "FARMER"
)

// Approval states of a customer.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

type Customer struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	Phone        *string   `json:"phone,omitempty"`
	Email        *string   `json:"email,omitempty"`
	Address      string    `json:"address"`
	Region       string    `json:"region"`
	CreditLimit  int64     `json:"credit_limit"`
	ParentID     *string   `json:"parent_id,omitempty"`
	AssignedTo   *string   `json:"assigned_to,omitempty"`
	RejectReason *string   `json:"reject_reason,omitempty"`
	CreatedBy    *string   `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func customerFromRecord(r store.Record) Customer {
	return Customer{
		ID:           r.String("id"),
		Code:         r.String("code"),
		Name:         r.String("name"),
		Type:         r.String("type"),
		Status:       r.String("status"),
		Phone:        r.StringPtr("phone"),
		Email:        r.StringPtr("email"),
		Address:      r.String("address"),
		Region:       r.String("region"),
		CreditLimit:  r.Int64("credit_limit"),
		ParentID:     r.StringPtr("parent_id"),
		AssignedTo:   r.StringPtr("assigned_to"),
		RejectReason: r.StringPtr("reject_reason"),
		CreatedBy:    r.StringPtr("created_by"),
		CreatedAt:    r.Time("created_at"),
		UpdatedAt:    r.Time("updated_at"),
	}
}
