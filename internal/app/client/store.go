package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"

	"studiosync/internal/app/client/bus"
	"studiosync/internal/domain/entity"
	"studiosync/internal/domain/syncqueue"
)

// timeLayout keeps the fractional second at a fixed nine digits so the TEXT
// columns compare lexicographically in chronological order. RFC3339Nano trims
// trailing zeros, which would sort "...00Z" after "...00.5Z". All stored
// timestamps are UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SoftDeleteRetention is how long soft-deleted rows are kept before the
// retention sweep hard-deletes them.
const SoftDeleteRetention = 30 * 24 * time.Hour

// Store is the embedded local store: authoritative for all foreground
// writes, with the sync queue living in the same database so a row and its
// queue entry commit or fail together.
type Store struct {
	db     *sql.DB
	bus    *bus.Bus
	log    *slog.Logger
	mu     gosync.Mutex
	notify chan struct{}

	backoffBase time.Duration
	backoffCap  time.Duration
}

func NewStore(path string, b *bus.Bus, log *slog.Logger) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &Store{
		db:          db,
		bus:         b,
		log:         log.With("component", "local_store"),
		notify:      make(chan struct{}, 1),
		backoffBase: 2 * time.Second,
		backoffCap:  5 * time.Minute,
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Notify signals once per enqueue; the reconciler's push loop selects on it.
func (s *Store) Notify() <-chan struct{} {
	return s.notify
}

func (s *Store) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Upsert writes the envelope and its coalesced queue entry in one
// transaction, then publishes a local change event.
func (s *Store) Upsert(ctx context.Context, env entity.Envelope) error {
	return s.UpsertMany(ctx, env)
}

// UpsertMany writes several envelopes and their queue entries in a single
// transaction: all rows and queue entries commit together or not at all.
// Multi-entity operations like payment settlement depend on this.
func (s *Store) UpsertMany(ctx context.Context, envs ...entity.Envelope) error {
	now := time.Now().UTC()
	for i := range envs {
		if err := envs[i].Validate(); err != nil {
			return err
		}
		if envs[i].UpdatedAt.IsZero() {
			envs[i].UpdatedAt = now
		}
		envs[i].UpdatedAt = envs[i].UpdatedAt.UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, env := range envs {
		var deletedAt *string
		if env.Deleted {
			v := env.UpdatedAt.Format(timeLayout)
			deletedAt = &v
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO entities (type, id, payload, updated_at, deleted_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (type, id) DO UPDATE SET
				payload = excluded.payload,
				updated_at = excluded.updated_at,
				deleted_at = excluded.deleted_at`,
			env.Type, env.ID, string(env.Payload), env.UpdatedAt.Format(timeLayout), deletedAt)
		if err != nil {
			return fmt.Errorf("upsert entity: %w", err)
		}

		if err := enqueueTx(ctx, tx, syncqueue.ActionUpsert, env, now); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.signal()
	for _, env := range envs {
		s.bus.Publish(bus.Event{Type: env.Type, ID: env.ID, Origin: bus.OriginLocal})
	}
	return nil
}

// SoftDelete marks the row hidden via deleted_at. The marker travels to the
// remote as an upsert of the row's final payload with the deleted flag set,
// so other devices hide the row too instead of resurrecting it.
func (s *Store) SoftDelete(ctx context.Context, typ entity.Type, id string, at time.Time, payload []byte) error {
	at = at.UTC()
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE entities SET payload = ?, updated_at = ?, deleted_at = ?
		WHERE type = ? AND id = ?`,
		string(payload), at.Format(timeLayout), at.Format(timeLayout), typ, id)
	if err != nil {
		return fmt.Errorf("soft delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}

	env := entity.Envelope{Type: typ, ID: id, Payload: payload, UpdatedAt: at, Deleted: true}
	if err := enqueueTx(ctx, tx, syncqueue.ActionUpsert, env, time.Now().UTC()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.signal()
	s.bus.Publish(bus.Event{Type: typ, ID: id, Origin: bus.OriginLocal})
	return nil
}

// Get returns the row regardless of its soft-delete state; List applies the
// default exclusion.
func (s *Store) Get(ctx context.Context, typ entity.Type, id string) (*entity.Envelope, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT type, id, payload, updated_at, deleted_at
		FROM entities WHERE type = ? AND id = ?`, typ, id)
	return scanEnvelope(row)
}

// List returns rows of one type, FIFO by updated_at. Soft-deleted rows are
// excluded unless asked for.
func (s *Store) List(ctx context.Context, typ entity.Type, includeDeleted bool) ([]entity.Envelope, error) {
	query := `
		SELECT type, id, payload, updated_at, deleted_at
		FROM entities WHERE type = ?`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY updated_at ASC`

	rows, err := s.db.QueryContext(ctx, query, typ)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var out []entity.Envelope
	for rows.Next() {
		env, err := scanEnvelope(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *env)
	}
	return out, rows.Err()
}

// ApplyRemote merges a remote-origin row into the local store without
// enqueueing it back for sync, then publishes a pull event. The reconciler
// has already decided the remote copy wins before calling this.
//
// A deletion marker maps back to deleted_at, including on conflict with a
// live local row: soft deletes made on another device hide the row here too,
// and server tombstones hide it until the retention sweep discards it.
func (s *Store) ApplyRemote(ctx context.Context, env entity.Envelope) error {
	if err := env.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payload := env.Payload
	if len(payload) == 0 {
		// Tombstones carry no snapshot.
		payload = []byte(`{}`)
	}
	var deletedAt *string
	if env.Deleted {
		v := env.UpdatedAt.UTC().Format(timeLayout)
		deletedAt = &v
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entities (type, id, payload, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (type, id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at`,
		env.Type, env.ID, string(payload), env.UpdatedAt.UTC().Format(timeLayout), deletedAt)
	if err != nil {
		return fmt.Errorf("apply remote upsert: %w", err)
	}

	s.bus.Publish(bus.Event{Type: env.Type, ID: env.ID, Origin: bus.OriginPull})
	return nil
}

// PurgeSoftDeleted hard-deletes rows whose soft-delete marker is older than
// before, enqueueing a remote delete for each. This is the retention sweep.
func (s *Store) PurgeSoftDeleted(ctx context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT type, id FROM entities
		WHERE deleted_at IS NOT NULL AND deleted_at < ?`,
		before.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("select expired: %w", err)
	}
	type key struct {
		typ entity.Type
		id  string
	}
	var expired []key
	for rows.Next() {
		var k key
		if err := rows.Scan(&k.typ, &k.id); err != nil {
			rows.Close()
			return 0, err
		}
		expired = append(expired, k)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	for _, k := range expired {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM entities WHERE type = ? AND id = ?`, k.typ, k.id); err != nil {
			return 0, fmt.Errorf("purge %s/%s: %w", k.typ, k.id, err)
		}
		env := entity.Envelope{Type: k.typ, ID: k.id, Deleted: true, UpdatedAt: now}
		if err := enqueueTx(ctx, tx, syncqueue.ActionDelete, env, now); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	if len(expired) > 0 {
		s.signal()
		s.log.Info("retention sweep purged rows", "count", len(expired))
	}
	return len(expired), nil
}

// Watermark returns the last successful pull watermark for the type.
func (s *Store) Watermark(ctx context.Context, typ entity.Type) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT watermark FROM sync_state WHERE entity_type = ?`, typ).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get watermark: %w", err)
	}
	return time.Parse(timeLayout, raw)
}

func (s *Store) SetWatermark(ctx context.Context, typ entity.Type, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (entity_type, watermark) VALUES (?, ?)
		ON CONFLICT (entity_type) DO UPDATE SET watermark = excluded.watermark`,
		typ, at.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("set watermark: %w", err)
	}
	return nil
}

// FollowUp is a recorded side-effect failure awaiting manual retry.
type FollowUp struct {
	ID        int64
	BookingID string
	Effect    string
	Error     string
	CreatedAt time.Time
	Resolved  bool
}

// RecordFollowUp notes a failed side effect so staff can retry it; the state
// transition it belonged to stays committed.
func (s *Store) RecordFollowUp(ctx context.Context, bookingID, effect, cause string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO effect_followups (booking_id, effect, error, created_at)
		VALUES (?, ?, ?, ?)`,
		bookingID, effect, cause, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("record follow-up: %w", err)
	}
	return nil
}

func (s *Store) ListFollowUps(ctx context.Context) ([]FollowUp, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, booking_id, effect, error, created_at, resolved
		FROM effect_followups WHERE resolved = 0 ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list follow-ups: %w", err)
	}
	defer rows.Close()

	var out []FollowUp
	for rows.Next() {
		var f FollowUp
		var createdAt string
		if err := rows.Scan(&f.ID, &f.BookingID, &f.Effect, &f.Error, &createdAt, &f.Resolved); err != nil {
			return nil, err
		}
		f.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) ResolveFollowUp(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`UPDATE effect_followups SET resolved = 1 WHERE id = ?`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEnvelope(row rowScanner) (*entity.Envelope, error) {
	var env entity.Envelope
	var payload, updatedAt string
	var deletedAt *string

	err := row.Scan(&env.Type, &env.ID, &payload, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan entity: %w", err)
	}

	env.Payload = []byte(payload)
	env.UpdatedAt, err = time.Parse(timeLayout, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	env.Deleted = deletedAt != nil
	return &env, nil
}
