package ledger

import (
	"errors"
)

var (
	ErrNotFound        = errors.New("transaction not found")
	ErrValidation      = errors.New("invalid transaction data")
	ErrWindowExpired   = errors.New("reversal window has expired")
	ErrAlreadyReversed = errors.New("transaction already reversed")
)
