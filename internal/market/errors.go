package market

import "errors"

var (
	// ErrNotFound: a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput: malformed quantity, price or identity.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientStock: conditional stock decrement rejected the request.
	ErrInsufficientStock = errors.New("insufficient stock")
)
