package gateway

import (
	"errors"
	"fmt"

	"github.com/hilthontt/retrochat/internal/domain"
)

// Kind buckets every gateway failure into the categories a presentation
// layer can act on without knowing store internals.
type Kind string

const (
	NotFound          Kind = "not_found"
	InvalidTransition Kind = "invalid_transition"
	Validation        Kind = "validation"
	CapacityExhausted Kind = "capacity_exhausted"
	Unavailable       Kind = "unavailable"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// classify wraps a domain or store error into the gateway taxonomy.
// Unknown errors read as Unavailable: the caller cannot tell a flaky
// store from a down one, and retry guidance is the same.
func classify(err error) *Error {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrRequestNotFound),
		errors.Is(err, domain.ErrMemberNotFound):
		return &Error{Kind: NotFound, Message: err.Error(), Err: err}

	case errors.Is(err, domain.ErrRequestNotPending):
		return &Error{Kind: InvalidTransition, Message: err.Error(), Err: err}

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrEmptyMessage):
		return &Error{Kind: Validation, Message: err.Error(), Err: err}

	case errors.Is(err, domain.ErrCapacityExhausted),
		errors.Is(err, domain.ErrRoomCodeTaken):
		return &Error{Kind: CapacityExhausted, Message: err.Error(), Err: err}

	default:
		return &Error{Kind: Unavailable, Message: "service unavailable", Err: err}
	}
}

// KindOf extracts the kind from an error returned by the gateway.
func KindOf(err error) (Kind, bool) {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind, true
	}
	return "", false
}
