package booking

import (
	"context"
	"time"

	"studiosync/internal/domain/ledger"
)

// Filter narrows List results. Role scoping (front desk sees only today or
// future shoots) is expressed here as a query predicate, never as a storage
// restriction, so one row serves every role.
type Filter struct {
	Status         Status
	ShootDateFrom  time.Time
	IncludeDeleted bool
}

// Repository is the local-store contract for bookings and their add-ons.
// Every Save/SoftDelete must commit the row and its sync-queue entry in one
// transaction; no write is locally durable without being queued for sync.
type Repository interface {
	Get(ctx context.Context, id string) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	List(ctx context.Context, f Filter) ([]Booking, error)
	SoftDelete(ctx context.Context, id string, at time.Time) error

	// SavePayment commits the booking and its ledger credit atomically.
	SavePayment(ctx context.Context, b *Booking, credit *ledger.Transaction) error

	GetAddOn(ctx context.Context, id string) (*AddOn, error)
	SaveAddOn(ctx context.Context, a *AddOn) error
	// SaveWithAddOn commits the booking and the add-on atomically.
	SaveWithAddOn(ctx context.Context, b *Booking, a *AddOn) error
	ListAddOns(ctx context.Context, bookingID string) ([]AddOn, error)
}
