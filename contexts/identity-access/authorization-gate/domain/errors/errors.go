package errors

import "errors"

var (
	ErrInvalidIdentity = errors.New("invalid identity")
	ErrInvalidAction   = errors.New("invalid action")
)
