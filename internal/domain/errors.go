package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable indicates a network or backend failure in the record store.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrNotAuthorized indicates the caller may not access the requested member's rows.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrAIUnavailable indicates a timeout or transport failure talking to the completion service.
	ErrAIUnavailable = errors.New("ai unavailable")
	// ErrAIMalformed indicates the completion service replied with unparseable structure.
	ErrAIMalformed = errors.New("ai reply malformed")
	// ErrInvalidInput indicates a request failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")
)

// ErrAICircuitOpen indicates calls to the completion service are being
// short-circuited after repeated failures. It matches ErrAIUnavailable.
var ErrAICircuitOpen = fmt.Errorf("%w: circuit open", ErrAIUnavailable)
