package syncqueue

import (
	"encoding/json"
	"time"

	"studiosync/internal/domain/entity"
)

// Action is the remote operation a queue entry represents.
type Action string

const (
	ActionUpsert Action = "upsert"
	ActionDelete Action = "delete"
)

// Entry is one pending mutation awaiting push to the remote store. Payload
// is the full current-state snapshot of the entity, not a diff, so replaying
// an entry is idempotent. Deleted rides along with the payload so a
// soft-delete marker survives the push. At most one pending entry exists per
// (EntityType, EntityID); a newer mutation supersedes the unflushed one.
type Entry struct {
	ID            int64           `json:"id"`
	Action        Action          `json:"action"`
	EntityType    entity.Type     `json:"entity_type"`
	EntityID      string          `json:"entity_id"`
	Payload       json.RawMessage `json:"payload"`
	Deleted       bool            `json:"deleted"`
	EnqueuedAt    time.Time       `json:"enqueued_at"`
	Attempts      int             `json:"attempts"`
	LastError     string          `json:"last_error,omitempty"`
	NextAttemptAt time.Time       `json:"next_attempt_at"`
}

// Health is the operational signal for sync visibility: how much is pending
// and how stale the oldest pending entry is.
type Health struct {
	Pending          int           `json:"pending"`
	OldestPendingAge time.Duration `json:"oldest_pending_age"`
}
