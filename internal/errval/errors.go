package errval

import (
	"errors"
)

var (
	ErrInternal          = errors.New("internal server error")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTaskNoLongerOpen  = errors.New("task is no longer open")
	ErrDuplicateProposal = errors.New("a proposal for this task already exists")
	ErrExternalService   = errors.New("external service unavailable")
)
