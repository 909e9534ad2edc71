package booking

import (
	"errors"
)

var (
	ErrNotFound          = errors.New("booking not found")
	ErrValidation        = errors.New("invalid booking data")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrPaymentRequired   = errors.New("outstanding balance must be settled first")
	ErrAddOnNotFound     = errors.New("add-on not found")
	ErrAddOnNotPending   = errors.New("add-on is not pending")
	ErrDeleted           = errors.New("booking is deleted")
)

// SideEffectError wraps a collaborator failure that happened after the state
// change was already committed. The transition is authoritative; callers see
// this as a recoverable condition, never as a failed transition.
type SideEffectError struct {
	Effect EffectKind
	Err    error
}

func (e *SideEffectError) Error() string {
	return "side effect " + string(e.Effect) + " failed: " + e.Err.Error()
}

func (e *SideEffectError) Unwrap() error {
	return e.Err
}
