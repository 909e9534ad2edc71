package client

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"studiosync/internal/domain/entity"
	"studiosync/internal/domain/syncqueue"
)

// enqueueTx writes the coalesced queue entry inside the caller's
// transaction. An existing pending entry for the same key is superseded:
// payload replaced, attempts reset, enqueue time refreshed.
func enqueueTx(ctx context.Context, tx *sql.Tx, action syncqueue.Action, env entity.Envelope, now time.Time) error {
	ts := now.Format(timeLayout)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sync_queue (action, entity_type, entity_id, payload, deleted, enqueued_at, attempts, last_error, next_attempt_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, '', ?)
		ON CONFLICT (entity_type, entity_id) DO UPDATE SET
			action = excluded.action,
			payload = excluded.payload,
			deleted = excluded.deleted,
			enqueued_at = excluded.enqueued_at,
			attempts = 0,
			last_error = '',
			next_attempt_at = excluded.next_attempt_at`,
		action, env.Type, env.ID, string(env.Payload), env.Deleted, ts, ts)
	if err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	return nil
}

// Enqueue adds a standalone mutation to the queue, outside of an entity
// write. The usual path is the transactional one in Upsert/SoftDelete.
func (s *Store) Enqueue(ctx context.Context, action syncqueue.Action, typ entity.Type, id string, payload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	env := entity.Envelope{Type: typ, ID: id, Payload: payload, Deleted: action == syncqueue.ActionDelete}
	if err := enqueueTx(ctx, tx, action, env, time.Now().UTC()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.signal()
	return nil
}

// Drain returns the oldest pending entries whose backoff has elapsed, FIFO
// by enqueue time with ties broken by entity id.
func (s *Store) Drain(ctx context.Context, batchSize int) ([]syncqueue.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, entity_type, entity_id, payload, deleted, enqueued_at, attempts, last_error, next_attempt_at
		FROM sync_queue
		WHERE next_attempt_at <= ?
		ORDER BY enqueued_at ASC, entity_id ASC
		LIMIT ?`,
		time.Now().UTC().Format(timeLayout), batchSize)
	if err != nil {
		return nil, fmt.Errorf("drain queue: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Ack removes a confirmed entry. Acking an entry that was superseded since
// it was drained is harmless: the superseding entry has a new id.
func (s *Store) Ack(ctx context.Context, entryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, entryID)
	if err != nil {
		return fmt.Errorf("ack: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return syncqueue.ErrEntryNotFound
	}
	return nil
}

// Fail keeps the entry queued for the next wake: attempts incremented, the
// cause recorded, and the next try pushed out exponentially.
func (s *Store) Fail(ctx context.Context, entryID int64, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var attempts int
	err := s.db.QueryRowContext(ctx,
		`SELECT attempts FROM sync_queue WHERE id = ?`, entryID).Scan(&attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return syncqueue.ErrEntryNotFound
	}
	if err != nil {
		return fmt.Errorf("fail: %w", err)
	}

	attempts++
	next := time.Now().UTC().Add(syncqueue.Backoff(s.backoffBase, s.backoffCap, attempts))
	_, err = s.db.ExecContext(ctx, `
		UPDATE sync_queue SET attempts = ?, last_error = ?, next_attempt_at = ?
		WHERE id = ?`,
		attempts, cause.Error(), next.Format(timeLayout), entryID)
	if err != nil {
		return fmt.Errorf("fail: %w", err)
	}
	return nil
}

// Health reports pending entry count and the age of the oldest entry, the
// operational signal for sync lag.
func (s *Store) Health(ctx context.Context) (syncqueue.Health, error) {
	var h syncqueue.Health
	var oldest *string
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(enqueued_at) FROM sync_queue`).Scan(&h.Pending, &oldest)
	if err != nil {
		return h, fmt.Errorf("queue health: %w", err)
	}
	if oldest != nil {
		if at, err := time.Parse(timeLayout, *oldest); err == nil {
			h.OldestPendingAge = time.Since(at)
		}
	}
	return h, nil
}

// PendingEntries lists the whole queue in push order, backoff ignored. Used
// for operator-facing inspection rather than the push loop.
func (s *Store) PendingEntries(ctx context.Context) ([]syncqueue.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, entity_type, entity_id, payload, deleted, enqueued_at, attempts, last_error, next_attempt_at
		FROM sync_queue
		ORDER BY enqueued_at ASC, entity_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]syncqueue.Entry, error) {
	var out []syncqueue.Entry
	for rows.Next() {
		var e syncqueue.Entry
		var payload, enqueuedAt, nextAttemptAt string
		if err := rows.Scan(&e.ID, &e.Action, &e.EntityType, &e.EntityID, &payload, &e.Deleted,
			&enqueuedAt, &e.Attempts, &e.LastError, &nextAttemptAt); err != nil {
			return nil, fmt.Errorf("scan queue entry: %w", err)
		}
		e.Payload = []byte(payload)
		e.EnqueuedAt, _ = time.Parse(timeLayout, enqueuedAt)
		e.NextAttemptAt, _ = time.Parse(timeLayout, nextAttemptAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Pending reports whether an unflushed entry exists for the key.
func (s *Store) Pending(ctx context.Context, typ entity.Type, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM sync_queue WHERE entity_type = ? AND entity_id = ?)`,
		typ, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pending check: %w", err)
	}
	return exists, nil
}
