// Package sync converges the local store with the remote store: a push loop
// drains the durable mutation queue outward, a pull loop merges remote
// changes inward. Foreground writes never wait on either.
package sync

import (
	"context"
	"errors"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"

	"studiosync/internal/domain/entity"
	"studiosync/internal/domain/syncqueue"
)

// RemoteStore is the thin client over the cloud-hosted backend. Upsert is
// idempotent by id, so replaying a previously-succeeded-but-unacknowledged
// push is safe.
type RemoteStore interface {
	Upsert(ctx context.Context, env entity.Envelope) error
	Delete(ctx context.Context, typ entity.Type, id string) error
	ListUpdatedSince(ctx context.Context, typ entity.Type, since time.Time) ([]entity.Envelope, error)
	Ping(ctx context.Context) bool
}

// LocalStore is the slice of the local store the reconciler needs beyond the
// queue contract.
type LocalStore interface {
	Get(ctx context.Context, typ entity.Type, id string) (*entity.Envelope, error)
	ApplyRemote(ctx context.Context, env entity.Envelope) error
	Watermark(ctx context.Context, typ entity.Type) (time.Time, error)
	SetWatermark(ctx context.Context, typ entity.Type, at time.Time) error
}

type Config struct {
	PushInterval   time.Duration
	PullInterval   time.Duration
	BatchSize      int
	RequestTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		PushInterval:   5 * time.Second,
		PullInterval:   60 * time.Second,
		BatchSize:      50,
		RequestTimeout: 10 * time.Second,
	}
}

// Reconciler owns retry, backoff, and de-duplication for both directions.
// Lifecycle is explicit: construct, Start, Stop.
type Reconciler struct {
	store  LocalStore
	queue  syncqueue.Queue
	remote RemoteStore
	notify <-chan struct{}
	cfg    Config
	log    *slog.Logger

	mu     gosync.Mutex
	online bool

	cancel context.CancelFunc
	wg     gosync.WaitGroup
}

func NewReconciler(store LocalStore, queue syncqueue.Queue, remote RemoteStore, notify <-chan struct{}, cfg Config, log *slog.Logger) *Reconciler {
	if cfg.BatchSize <= 0 {
		cfg = DefaultConfig()
	}
	return &Reconciler{
		store:  store,
		queue:  queue,
		remote: remote,
		notify: notify,
		cfg:    cfg,
		log:    log.With("component", "reconciler"),
	}
}

// Online reports the result of the last reachability probe.
func (r *Reconciler) Online() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.online
}

// probe runs the lightweight reachability check. An offline-to-online flip
// returns true so the caller can trigger an out-of-cadence drain.
func (r *Reconciler) probe(ctx context.Context) (online, cameOnline bool) {
	pctx, cancel := context.WithTimeout(ctx, r.cfg.RequestTimeout)
	defer cancel()
	online = r.remote.Ping(pctx)

	r.mu.Lock()
	cameOnline = online && !r.online
	r.online = online
	r.mu.Unlock()

	if cameOnline {
		r.log.Info("remote reachable again, draining queue")
	}
	return online, cameOnline
}

func (r *Reconciler) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(2)
	go func() {
		defer r.wg.Done()
		r.pushLoop(ctx)
	}()
	go func() {
		defer r.wg.Done()
		r.pullLoop(ctx)
	}()
	r.log.Info("reconciler started",
		"push_interval", r.cfg.PushInterval, "pull_interval", r.cfg.PullInterval)
}

func (r *Reconciler) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.log.Info("reconciler stopped")
}

// pushLoop wakes on enqueue-notify or the push interval and drains the
// queue. Failed entries stay queued under per-entry backoff; they are
// retried on a later wake, not immediately, so an unreachable remote is
// never hot-looped.
func (r *Reconciler) pushLoop(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.PushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-r.notify:
		}
		r.PushPass(ctx)
	}
}

// PushPass probes reachability and, when online, drains the queue until no
// ready entries remain.
func (r *Reconciler) PushPass(ctx context.Context) {
	online, _ := r.probe(ctx)
	if !online {
		return
	}

	for {
		entries, err := r.queue.Drain(ctx, r.cfg.BatchSize)
		if err != nil {
			r.log.Error("queue drain failed", "error", err)
			return
		}
		if len(entries) == 0 {
			return
		}

		pushed := 0
		for _, e := range entries {
			if err := r.pushEntry(ctx, e); err != nil {
				if failErr := r.queue.Fail(ctx, e.ID, err); failErr != nil && !errors.Is(failErr, syncqueue.ErrEntryNotFound) {
					r.log.Error("queue fail failed", "entry_id", e.ID, "error", failErr)
				}
				r.log.Warn("push failed, will retry",
					"entity_type", e.EntityType, "entity_id", e.EntityID,
					"attempts", e.Attempts+1, "error", err)
				continue
			}
			if err := r.queue.Ack(ctx, e.ID); err != nil && !errors.Is(err, syncqueue.ErrEntryNotFound) {
				r.log.Error("queue ack failed", "entry_id", e.ID, "error", err)
			}
			pushed++
		}
		if pushed < len(entries) {
			// Something failed; let backoff decide when those entries
			// become ready instead of spinning on them now.
			return
		}
	}
}

func (r *Reconciler) pushEntry(ctx context.Context, e syncqueue.Entry) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.RequestTimeout)
	defer cancel()

	switch e.Action {
	case syncqueue.ActionDelete:
		return r.remote.Delete(ctx, e.EntityType, e.EntityID)
	default:
		return r.remote.Upsert(ctx, entity.Envelope{
			Type:      e.EntityType,
			ID:        e.EntityID,
			Payload:   e.Payload,
			UpdatedAt: e.EnqueuedAt,
			Deleted:   e.Deleted,
		})
	}
}

func (r *Reconciler) pullLoop(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.PullInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		r.PullPass(ctx)
	}
}

// PullPass merges remote changes since each type's watermark. Remote wins by
// newer updated_at, except for entities with an unflushed local mutation:
// those keep the local copy so an in-flight edit is never clobbered by stale
// server data.
func (r *Reconciler) PullPass(ctx context.Context) {
	online, cameOnline := r.probe(ctx)
	if !online {
		return
	}
	if cameOnline {
		// The pull cadence noticed the remote first; drain the queue now
		// rather than waiting for the next push wake.
		r.PushPass(ctx)
	}

	for _, typ := range entity.Types() {
		if err := r.pullType(ctx, typ); err != nil {
			r.log.Warn("pull failed", "entity_type", typ, "error", err)
		}
	}
}

func (r *Reconciler) pullType(ctx context.Context, typ entity.Type) error {
	watermark, err := r.store.Watermark(ctx, typ)
	if err != nil {
		return err
	}

	lctx, cancel := context.WithTimeout(ctx, r.cfg.RequestTimeout)
	rows, err := r.remote.ListUpdatedSince(lctx, typ, watermark)
	cancel()
	if err != nil {
		return err
	}

	newMark := watermark
	for _, row := range rows {
		if row.UpdatedAt.After(newMark) {
			newMark = row.UpdatedAt
		}

		pending, err := r.queue.Pending(ctx, row.Type, row.ID)
		if err != nil {
			return err
		}
		if pending {
			continue
		}

		local, err := r.store.Get(ctx, row.Type, row.ID)
		if err != nil && !errors.Is(err, entity.ErrNotFound) {
			return err
		}
		if local != nil && !local.UpdatedAt.Before(row.UpdatedAt) {
			continue
		}

		if err := r.store.ApplyRemote(ctx, row); err != nil {
			return err
		}
	}

	if newMark.After(watermark) {
		if err := r.store.SetWatermark(ctx, typ, newMark); err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		r.log.Debug("pull merged", "entity_type", typ, "rows", len(rows))
	}
	return nil
}
