package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"studiosync/internal/domain/booking"
	"studiosync/internal/domain/entity"
	"studiosync/internal/domain/ledger"
)

// BookingRepository implements booking.Repository over the generic store,
// normalizing rows into the canonical envelope at the boundary.
type BookingRepository struct {
	store *Store
}

func NewBookingRepository(store *Store) *BookingRepository {
	return &BookingRepository{store: store}
}

func (r *BookingRepository) Get(ctx context.Context, id string) (*booking.Booking, error) {
	env, err := r.store.Get(ctx, entity.TypeBooking, id)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, booking.ErrNotFound
		}
		return nil, err
	}
	var b booking.Booking
	if err := json.Unmarshal(env.Payload, &b); err != nil {
		return nil, fmt.Errorf("decode booking: %w", err)
	}
	return &b, nil
}

func (r *BookingRepository) Save(ctx context.Context, b *booking.Booking) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode booking: %w", err)
	}
	return r.store.Upsert(ctx, entity.Envelope{
		Type:      entity.TypeBooking,
		ID:        b.ID,
		Payload:   payload,
		UpdatedAt: b.UpdatedAt,
	})
}

func (r *BookingRepository) List(ctx context.Context, f booking.Filter) ([]booking.Booking, error) {
	envs, err := r.store.List(ctx, entity.TypeBooking, f.IncludeDeleted)
	if err != nil {
		return nil, err
	}
	var out []booking.Booking
	for _, env := range envs {
		var b booking.Booking
		if err := json.Unmarshal(env.Payload, &b); err != nil {
			return nil, fmt.Errorf("decode booking %s: %w", env.ID, err)
		}
		// The payload marker is checked as well as the row column: a
		// remotely soft-deleted booking stays hidden even if the row
		// arrived without its deleted_at set.
		if !f.IncludeDeleted && b.DeletedAt != nil {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if !f.ShootDateFrom.IsZero() && b.ShootDate.Before(f.ShootDateFrom) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// SavePayment commits the raised booking and its ledger credit in one store
// transaction, so a crash or error between the two legs cannot leave a paid
// amount without the matching ledger entry or the other way around.
func (r *BookingRepository) SavePayment(ctx context.Context, b *booking.Booking, credit *ledger.Transaction) error {
	bookingPayload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode booking: %w", err)
	}
	creditPayload, err := json.Marshal(credit)
	if err != nil {
		return fmt.Errorf("encode transaction: %w", err)
	}
	return r.store.UpsertMany(ctx,
		entity.Envelope{
			Type:      entity.TypeBooking,
			ID:        b.ID,
			Payload:   bookingPayload,
			UpdatedAt: b.UpdatedAt,
		},
		entity.Envelope{
			Type:      entity.TypeLedger,
			ID:        credit.ID,
			Payload:   creditPayload,
			UpdatedAt: credit.CreatedAt,
		})
}

func (r *BookingRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	b, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	b.DeletedAt = &at
	b.UpdatedAt = at
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode booking: %w", err)
	}
	return r.store.SoftDelete(ctx, entity.TypeBooking, id, at, payload)
}

func (r *BookingRepository) GetAddOn(ctx context.Context, id string) (*booking.AddOn, error) {
	env, err := r.store.Get(ctx, entity.TypeAddOn, id)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, booking.ErrAddOnNotFound
		}
		return nil, err
	}
	var a booking.AddOn
	if err := json.Unmarshal(env.Payload, &a); err != nil {
		return nil, fmt.Errorf("decode add-on: %w", err)
	}
	return &a, nil
}

func (r *BookingRepository) SaveAddOn(ctx context.Context, a *booking.AddOn) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode add-on: %w", err)
	}
	return r.store.Upsert(ctx, entity.Envelope{
		Type:      entity.TypeAddOn,
		ID:        a.ID,
		Payload:   payload,
		UpdatedAt: a.UpdatedAt,
	})
}

// SaveWithAddOn commits the booking and the add-on in one store transaction;
// an approval either raises the total and marks the add-on approved, or does
// neither.
func (r *BookingRepository) SaveWithAddOn(ctx context.Context, b *booking.Booking, a *booking.AddOn) error {
	bookingPayload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode booking: %w", err)
	}
	addOnPayload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode add-on: %w", err)
	}
	return r.store.UpsertMany(ctx,
		entity.Envelope{
			Type:      entity.TypeBooking,
			ID:        b.ID,
			Payload:   bookingPayload,
			UpdatedAt: b.UpdatedAt,
		},
		entity.Envelope{
			Type:      entity.TypeAddOn,
			ID:        a.ID,
			Payload:   addOnPayload,
			UpdatedAt: a.UpdatedAt,
		})
}

func (r *BookingRepository) ListAddOns(ctx context.Context, bookingID string) ([]booking.AddOn, error) {
	envs, err := r.store.List(ctx, entity.TypeAddOn, false)
	if err != nil {
		return nil, err
	}
	var out []booking.AddOn
	for _, env := range envs {
		var a booking.AddOn
		if err := json.Unmarshal(env.Payload, &a); err != nil {
			return nil, fmt.Errorf("decode add-on %s: %w", env.ID, err)
		}
		if a.BookingID == bookingID {
			out = append(out, a)
		}
	}
	return out, nil
}

// LedgerRepository implements ledger.Repository over the generic store.
type LedgerRepository struct {
	store *Store
}

func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

func (r *LedgerRepository) Get(ctx context.Context, id string) (*ledger.Transaction, error) {
	env, err := r.store.Get(ctx, entity.TypeLedger, id)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	var t ledger.Transaction
	if err := json.Unmarshal(env.Payload, &t); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	return &t, nil
}

func (r *LedgerRepository) Save(ctx context.Context, t *ledger.Transaction) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode transaction: %w", err)
	}
	updatedAt := t.CreatedAt
	if t.ReversedAt != nil {
		updatedAt = *t.ReversedAt
	}
	return r.store.Upsert(ctx, entity.Envelope{
		Type:      entity.TypeLedger,
		ID:        t.ID,
		Payload:   payload,
		UpdatedAt: updatedAt,
	})
}

func (r *LedgerRepository) ListByClient(ctx context.Context, clientID string) ([]ledger.Transaction, error) {
	envs, err := r.store.List(ctx, entity.TypeLedger, false)
	if err != nil {
		return nil, err
	}
	var out []ledger.Transaction
	for _, env := range envs {
		var t ledger.Transaction
		if err := json.Unmarshal(env.Payload, &t); err != nil {
			return nil, fmt.Errorf("decode transaction %s: %w", env.ID, err)
		}
		if t.ClientID == clientID {
			out = append(out, t)
		}
	}
	return out, nil
}
