package syncqueue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"studiosync/internal/domain/entity"
)

var ErrEntryNotFound = errors.New("queue entry not found")

// Queue is the durable mutation log drained by the reconciler.
//
// Enqueue coalesces with any pending entry for the same (entityType,
// entityID): the payload is replaced and attempts reset to zero, so the
// queue never grows from repeated edits to one row and the remote always
// receives the final snapshot.
type Queue interface {
	Enqueue(ctx context.Context, action Action, typ entity.Type, id string, payload json.RawMessage) error
	// Drain returns up to batchSize entries whose backoff has elapsed,
	// FIFO by enqueue time with ties broken by entity id.
	Drain(ctx context.Context, batchSize int) ([]Entry, error)
	Ack(ctx context.Context, entryID int64) error
	// Fail keeps the entry queued, bumping attempts and scheduling the
	// next try with exponential backoff.
	Fail(ctx context.Context, entryID int64, cause error) error
	Health(ctx context.Context) (Health, error)
	// Pending reports whether an unflushed entry exists for the key.
	// The pull merge uses it to let in-flight local edits win.
	Pending(ctx context.Context, typ entity.Type, id string) (bool, error)
}

// Backoff returns the delay before attempt n+1 (n = attempts already made):
// base doubled per attempt, capped.
func Backoff(base, cap time.Duration, attempts int) time.Duration {
	d := base
	for i := 0; i < attempts; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	if d > cap {
		return cap
	}
	return d
}
