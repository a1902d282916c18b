package employees

type EmployeeForm struct {
	Code     string  `json:"code" validate:"required,max=30"`
	Name     string  `json:"name" validate:"required,max=200"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone" validate:"omitempty,max=30"`
	Position string  `json:"position" validate:"max=100"`
	Region   string  `json:"region" validate:"max=100"`
	UserID   *string `json:"user_id" validate:"omitempty,min=1"`
}

type EmployeePatch struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=200"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone" validate:"omitempty,max=30"`
	Position *string `json:"position" validate:"omitempty,max=100"`
	Region   *string `json:"region" validate:"omitempty,max=100"`
}

// LinkUserRequest links the employee to a login. A null user_id unlinks.
type LinkUserRequest struct {
	UserID *string `json:"user_id" validate:"omitempty,min=1"`
}
