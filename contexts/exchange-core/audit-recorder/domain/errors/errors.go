package errors

import "errors"

var (
	ErrInvalidEntry  = errors.New("invalid audit entry")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEntryNotFound = errors.New("audit entry not found")
	ErrForbidden     = errors.New("forbidden")
)
