package ledger

import (
	"time"
)

// ReversalWindow bounds how long after creation a transaction may be undone.
const ReversalWindow = 5 * time.Minute

type TransactionStatus string

const (
	StatusActive   TransactionStatus = "active"
	StatusReversed TransactionStatus = "reversed"
)

// Transaction is one append-only financial entry. Entries are never deleted
// or amended; a reversal is itself a recorded event on the entry.
type Transaction struct {
	ID              string            `json:"id"`
	ClientID        string            `json:"client_id"`
	BookingID       string            `json:"booking_id,omitempty"`
	Amount          int64             `json:"amount"`
	Currency        string            `json:"currency"`
	Status          TransactionStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	CanReverseUntil time.Time         `json:"can_reverse_until"`
	ReversedAt      *time.Time        `json:"reversed_at,omitempty"`
	ReversedBy      string            `json:"reversed_by,omitempty"`
	ReverseReason   string            `json:"reverse_reason,omitempty"`
}
