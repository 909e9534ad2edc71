package entity

import (
	"encoding/json"
	"time"
)

// Type identifies a syncable entity kind. Every row that crosses the
// client/server boundary is tagged with one of these.
type Type string

const (
	TypeBooking      Type = "booking"
	TypeAddOn        Type = "addon"
	TypeLedger       Type = "ledger_transaction"
	TypeReminder     Type = "reminder"
	TypeResourcePool Type = "resource_pool"
	TypeChat         Type = "chat_message"
)

var knownTypes = map[Type]bool{
	TypeBooking:      true,
	TypeAddOn:        true,
	TypeLedger:       true,
	TypeReminder:     true,
	TypeResourcePool: true,
	TypeChat:         true,
}

// Types lists the syncable entity kinds in a stable order.
func Types() []Type {
	return []Type{TypeBooking, TypeAddOn, TypeLedger, TypeReminder, TypeResourcePool, TypeChat}
}

// Known reports whether t is a recognized entity type.
func (t Type) Known() bool {
	return knownTypes[t]
}

// Envelope is the canonical tagged form of any entity row. The payload is
// always a full snapshot of the entity, never a diff, so replaying an
// envelope against either store is idempotent.
type Envelope struct {
	Type      Type            `json:"type"`
	ID        string          `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt time.Time       `json:"updated_at"`
	Deleted   bool            `json:"deleted"`
}

// Validate rejects ambiguous or unknown shapes at the store boundary.
func (e Envelope) Validate() error {
	if !e.Type.Known() {
		return ErrUnknownType
	}
	if e.ID == "" {
		return ErrMissingID
	}
	if !e.Deleted && len(e.Payload) == 0 {
		return ErrEmptyPayload
	}
	return nil
}
