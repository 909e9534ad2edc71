package effects

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"studiosync/internal/domain/entity"
)

// EntityStore is the slice of the local store the collaborators need. Their
// writes go through Upsert, so every resulting mutation lands in the sync
// queue like any other local commit.
type EntityStore interface {
	Get(ctx context.Context, typ entity.Type, id string) (*entity.Envelope, error)
	Upsert(ctx context.Context, env entity.Envelope) error
}

// Reminder is a staff reminder row, synced as its own entity.
type Reminder struct {
	ID        string    `json:"id"`
	BookingID string    `json:"booking_id"`
	Text      string    `json:"text"`
	DueDate   time.Time `json:"due_date"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// StoreReminderScheduler inserts reminders into the local store.
type StoreReminderScheduler struct {
	Store EntityStore
}

func (s *StoreReminderScheduler) CreateReminder(ctx context.Context, bookingID, text string, dueDate time.Time, kind string) error {
	now := time.Now().UTC()
	r := Reminder{
		ID:        uuid.NewString(),
		BookingID: bookingID,
		Text:      text,
		DueDate:   dueDate,
		Kind:      kind,
		CreatedAt: now,
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode reminder: %w", err)
	}
	return s.Store.Upsert(ctx, entity.Envelope{
		Type:      entity.TypeReminder,
		ID:        r.ID,
		Payload:   payload,
		UpdatedAt: now,
	})
}

// PoolState is the synced row tracking one staff member's share of a pool.
type PoolState struct {
	PoolID    string    `json:"pool_id"`
	StaffID   string    `json:"staff_id"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

var ErrPoolExhausted = errors.New("resource pool exhausted")

// StoreResourcePool keeps per-staff pool counts in the local store. Rows are
// provisioned lazily at DefaultCapacity on first use.
type StoreResourcePool struct {
	Store           EntityStore
	DefaultCapacity int
}

func (p *StoreResourcePool) MutatePool(ctx context.Context, staffID, poolID string, delta int) error {
	id := poolID + ":" + staffID
	state := PoolState{PoolID: poolID, StaffID: staffID, Count: p.DefaultCapacity}

	env, err := p.Store.Get(ctx, entity.TypeResourcePool, id)
	switch {
	case err == nil:
		if err := json.Unmarshal(env.Payload, &state); err != nil {
			return fmt.Errorf("decode pool state: %w", err)
		}
	case errors.Is(err, entity.ErrNotFound):
	default:
		return err
	}

	if state.Count+delta < 0 {
		return fmt.Errorf("%w: %s for staff %s", ErrPoolExhausted, poolID, staffID)
	}
	state.Count += delta
	state.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode pool state: %w", err)
	}
	return p.Store.Upsert(ctx, entity.Envelope{
		Type:      entity.TypeResourcePool,
		ID:        id,
		Payload:   payload,
		UpdatedAt: state.UpdatedAt,
	})
}
