package errors

import "errors"

var (
	ErrTransferNotFound         = errors.New("transfer request not found")
	ErrInvalidTransferStatus    = errors.New("invalid transfer status transition")
	ErrStatusConflict           = errors.New("transfer request changed concurrently")
	ErrRejectionCommentRequired = errors.New("rejection requires a comment")
	ErrSameOrganization         = errors.New("cannot request transfer of own material")
	ErrMaterialUnavailable      = errors.New("material not available for transfer")
	ErrInsufficientQuantity     = errors.New("insufficient quantity available")
	ErrForbidden                = errors.New("forbidden")
	ErrInvalidInput             = errors.New("invalid input")
)
