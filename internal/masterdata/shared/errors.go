package shared

import "errors"

var (
	ErrDuplicate         = errors.New("duplicate entry")
	ErrInvalidQuantity   = errors.New("quantity change must not be zero")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUnsupportedMedia  = errors.New("unsupported media type")
)
