package errors

import "errors"

var (
	ErrCredentialExpired    = errors.New("credential expired")
	ErrCredentialMalformed  = errors.New("credential malformed")
	ErrUnknownSubject       = errors.New("unknown subject")
	ErrSubjectDisabled      = errors.New("subject disabled")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrOrganizationInactive = errors.New("organization inactive")
	ErrInvalidInput         = errors.New("invalid input")
)
