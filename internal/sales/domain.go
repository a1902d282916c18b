package sales

import (
	"errors"
	"time"

	"github.com/agrocrm/backoffice/internal/store"
)

var (
	// ErrCustomerNotApproved blocks sales to customers still under review.
	ErrCustomerNotApproved = errors.New("customer is not approved")
	// ErrProductInactive blocks sales of withdrawn products.
	ErrProductInactive = errors.New("product is inactive")
)

// InteractionKind classifies a field contact with a customer.
type InteractionKind string

const (
	KindVisit   InteractionKind = "VISIT"
	KindCall    InteractionKind = "CALL"
	KindMessage InteractionKind = "MESSAGE"
	KindDemo    InteractionKind = "DEMO"
)

// Sale is one recorded sale line. Sales are ledger rows: deleting one removes
// it for good and leaves no audit entry.
type Sale struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	EmployeeID *string   `json:"employee_id,omitempty"`
	ProductID  string    `json:"product_id"`
	Quantity   int64     `json:"quantity"`
	Amount     int64     `json:"amount"`
	SoldAt     time.Time `json:"sold_at"`
	CreatedAt  time.Time `json:"created_at"`
}

type Interaction struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customer_id"`
	EmployeeID *string         `json:"employee_id,omitempty"`
	Kind       InteractionKind `json:"kind"`
	Notes      string          `json:"notes"`
	OccurredAt time.Time       `json:"occurred_at"`
	CreatedAt  time.Time       `json:"created_at"`
}

type RecordSaleRequest struct {
	CustomerID      string     `json:"customer_id" validate:"required"`
	EmployeeID      *string    `json:"employee_id" validate:"omitempty,min=1"`
	ProductID       string     `json:"product_id" validate:"required"`
	Quantity        int64      `json:"quantity" validate:"required,gt=0"`
	DiscountPercent int64      `json:"discount_percent" validate:"gte=0,lte=100"`
	SoldAt          *time.Time `json:"sold_at"`
}

type LogInteractionRequest struct {
	CustomerID string          `json:"customer_id" validate:"required"`
	EmployeeID *string         `json:"employee_id" validate:"omitempty,min=1"`
	Kind       InteractionKind `json:"kind" validate:"required,oneof=VISIT CALL MESSAGE DEMO"`
	Notes      string          `json:"notes" validate:"max=2000"`
	OccurredAt *time.Time      `json:"occurred_at"`
}

// ListFilters narrows sale and interaction listings.
type ListFilters struct {
	CustomerID string
	EmployeeID string
	From       *time.Time
	To         *time.Time
	Page       int
	PerPage    int
}

func saleFromRecord(r store.Record) Sale {
	return Sale{
		ID:         r.String("id"),
		CustomerID: r.String("customer_id"),
		EmployeeID: r.StringPtr("employee_id"),
		ProductID:  r.String("product_id"),
		Quantity:   r.Int64("quantity"),
		Amount:     r.Int64("amount"),
		SoldAt:     r.Time("sold_at"),
		CreatedAt:  r.Time("created_at"),
	}
}

func interactionFromRecord(r store.Record) Interaction {
	return Interaction{
		ID:         r.String("id"),
		CustomerID: r.String("customer_id"),
		EmployeeID: r.StringPtr("employee_id"),
		Kind:       InteractionKind(r.String("kind")),
		Notes:      r.String("notes"),
		OccurredAt: r.Time("occurred_at"),
		CreatedAt:  r.Time("created_at"),
	}
}
