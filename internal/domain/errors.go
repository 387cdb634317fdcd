package domain

import "errors"

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomCodeTaken     = errors.New("room code already taken")
	ErrCapacityExhausted = errors.New("room capacity exhausted")

	ErrRequestNotFound   = errors.New("join request not found")
	ErrRequestNotPending = errors.New("join request already decided")

	ErrMemberNotFound = errors.New("member not found")

	ErrEmptyMessage = errors.New("message body is empty")

	// ErrValidation wraps every input-shape failure so callers can
	// classify without enumerating individual validators.
	ErrValidation = errors.New("validation failed")
)
