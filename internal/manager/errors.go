package manager

import "errors"

var (
	ErrNotFound       = errors.New("task not found")
	ErrDuplicateTitle = errors.New("duplicate title")
	ErrIDMismatch     = errors.New("task id in the body does not match")
	ErrInvalidRequest = errors.New("invalid request")
)
