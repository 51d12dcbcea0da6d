package errors

import "errors"

var (
	ErrMaterialNotFound     = errors.New("material not found")
	ErrMaterialUnavailable  = errors.New("material unavailable")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrAllocationNotFound   = errors.New("allocation not found")
	ErrActiveReservation    = errors.New("material has an active reservation")
	ErrMaterialExists       = errors.New("material already exists")
	ErrAttachmentNotFound   = errors.New("attachment not found")
	ErrNonPositiveQuantity  = errors.New("quantity must be positive")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidInput         = errors.New("invalid input")
)
