package entity

import (
	"context"
	"time"
)

// Repository is the server-side storage contract for entity envelopes.
type Repository interface {
	Upsert(ctx context.Context, env Envelope) error
	Delete(ctx context.Context, typ Type, id string) error
	Get(ctx context.Context, typ Type, id string) (*Envelope, error)
	ListUpdatedSince(ctx context.Context, typ Type, since time.Time, limit int) ([]Envelope, error)
}
