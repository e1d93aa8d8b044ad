package domain

import "errors"

var (
	// ErrInvalidInput marks requests rejected by validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict marks uniqueness violations, such as linking a supplier to a category twice.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState marks lifecycle violations, such as mutating a shipped order.
	ErrInvalidState = errors.New("invalid state")
)
