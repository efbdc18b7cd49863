package service

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the service layer. Handlers map these to
// HTTP status codes.
var (
	// ErrNotFound means the access request (or payload) does not exist
	ErrNotFound = errors.New("access request not found")

	// ErrUnauthorized means the caller is not the actor named on the
	// request for the attempted action
	ErrUnauthorized = errors.New("caller is not authorized for this request")

	// ErrInvalidTransition means the request is already in a terminal
	// state, including the loser of a concurrent decision race
	ErrInvalidTransition = errors.New("request is not in a transitionable state")

	// ErrDuplicatePending means an open request already exists for the
	// requester/owner pair
	ErrDuplicatePending = errors.New("a pending request already exists for this pair")

	// ErrForbidden means the release-side authorization check failed
	ErrForbidden = errors.New("caller may not access this request")
)

// VerificationError is returned by the release gate when one of the two
// independent ledger checks fails. Reason is machine readable.
type VerificationError struct {
	Reason string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("release verification failed: %s", e.Reason)
}

// AsVerificationError unwraps a VerificationError if err carries one
func AsVerificationError(err error) (*VerificationError, bool) {
	var ve *VerificationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
