package customers

type CreateCustomerRequest struct {
	Code        string  `json:"code" validate:"omitempty,max=50"`
	Name        string  `json:"name" validate:"required,max=200"`
	Type        string  `json:"type" validate:"required,oneof=DEALER SUB_DEALER FARMER"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address     string  `json:"address" validate:"max=500"`
	Region      string  `json:"region" validate:"max=100"`
	CreditLimit int64   `json:"credit_limit" validate:"gte=0"`
	ParentID    *string `json:"parent_id,omitempty" validate:"omitempty,min=1"`
	AssignedTo  *string `json:"assigned_to,omitempty" validate:"omitempty,min=1"`
}

type UpdateCustomerRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Region      *string `json:"region,omitempty" validate:"omitempty,max=100"`
	CreditLimit *int64  `json:"credit_limit,omitempty" validate:"omitempty,gte=0"`
	AssignedTo  *string `json:"assigned_to,omitempty"`
}

type RejectCustomerRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type ListCustomersRequest struct {
	Type    string `validate:"omitempty,oneof=DEALER SUB_DEALER FARMER"`
	Status  string `validate:"omitempty,oneof=PENDING APPROVED REJECTED"`
	Region  string
	Search  string
	Page    int
	PerPage int
}
