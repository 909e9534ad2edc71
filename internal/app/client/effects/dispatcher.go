// Package effects executes lifecycle side effects through injected
// collaborators. External effects are fire-and-forget relative to the state
// change that triggered them: a failure is recorded as a follow-up for
// manual retry, never rolled back into the transition.
package effects

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"studiosync/internal/domain/booking"
)

const batteryPoolID = "battery"

// FolderCreator provisions session storage and returns the created path.
type FolderCreator interface {
	CreateSessionFolder(ctx context.Context, clientName, sessionID string, at time.Time, metadata map[string]string) (string, error)
}

// ReminderScheduler inserts a staff reminder.
type ReminderScheduler interface {
	CreateReminder(ctx context.Context, bookingID, text string, dueDate time.Time, kind string) error
}

// ResourcePool mutates a shared equipment pool. Only the dispatcher calls
// this, under the store's single-writer discipline, so concurrent
// transitions for different staff cannot race a lost update.
type ResourcePool interface {
	MutatePool(ctx context.Context, staffID, poolID string, delta int) error
}

// FollowUpRecorder persists a failed effect for manual retry.
type FollowUpRecorder interface {
	RecordFollowUp(ctx context.Context, bookingID, effect, cause string) error
}

type Dispatcher struct {
	folders   FolderCreator
	reminders ReminderScheduler
	pool      ResourcePool
	followups FollowUpRecorder
	log       *slog.Logger
	now       func() time.Time
}

func NewDispatcher(folders FolderCreator, reminders ReminderScheduler, pool ResourcePool, followups FollowUpRecorder, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		folders:   folders,
		reminders: reminders,
		pool:      pool,
		followups: followups,
		log:       log.With("component", "effect_dispatcher"),
		now:       time.Now,
	}
}

// Dispatch runs each effect in order and reports per-effect outcomes.
// Failures do not stop the remaining effects.
func (d *Dispatcher) Dispatch(ctx context.Context, b *booking.Booking, effects []booking.Effect) []booking.EffectResult {
	results := make([]booking.EffectResult, 0, len(effects))
	for _, eff := range effects {
		res := booking.EffectResult{Effect: eff}
		switch eff.Kind {
		case booking.EffectCreateFolder:
			path, err := d.folders.CreateSessionFolder(ctx, b.ClientName, b.ID, d.now(), map[string]string{
				"client_id":  b.ClientID,
				"shoot_date": b.ShootDate.Format(time.RFC3339),
			})
			res.FolderPath = path
			res.Err = err
		case booking.EffectChargingReminder:
			res.Err = d.reminders.CreateReminder(ctx, b.ID,
				fmt.Sprintf("Charge equipment for %s", b.ClientName),
				d.now().Add(24*time.Hour), "equipment_charging")
		case booking.EffectConsumeBattery:
			res.Err = d.pool.MutatePool(ctx, eff.StaffID, batteryPoolID, -1)
		default:
			res.Err = fmt.Errorf("unknown effect kind %q", eff.Kind)
		}

		if res.Err != nil {
			d.log.Warn("effect failed", "effect", eff.Kind, "booking_id", b.ID, "error", res.Err)
			if d.followups != nil {
				if err := d.followups.RecordFollowUp(ctx, b.ID, string(eff.Kind), res.Err.Error()); err != nil {
					d.log.Error("record follow-up failed", "booking_id", b.ID, "error", err)
				}
			}
		}
		results = append(results, res)
	}
	return results
}
