package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrOutOfStock      = errors.New("no available copies")
	ErrOverdueBlock    = errors.New("user has an overdue loan")
	ErrAlreadyReturned = errors.New("loan already returned")
	ErrAlreadyExtended = errors.New("loan already extended")
	ErrStockConflict   = errors.New("stock below active loans")
	ErrConflict        = errors.New("already exists")
	ErrForbidden       = errors.New("operation not permitted")
	ErrBadCredentials  = errors.New("bad credentials")
)

// RemoteError carries the message of a failed call to an external collaborator.
// The message is surfaced to the user verbatim when present.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return "remote request failed"
	}
	return fmt.Sprintf("remote request failed: %s", e.Message)
}

type ValidationErrorResponse struct {
	Message string `json:"message"`
	Errors  struct {
		AdditionalProperties string `json:"additionalProperties"`
	} `json:"errors"`
}
