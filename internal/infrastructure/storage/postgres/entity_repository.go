package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"studiosync/internal/domain/entity"
)

// EntityRepository stores envelopes in one entities table. Deletes leave a
// tombstone so pulling clients learn about the removal.
type EntityRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewEntityRepository(pool *pgxpool.Pool, log *slog.Logger) *EntityRepository {
	return &EntityRepository{
		pool: pool,
		log:  log.With("component", "entity_repository"),
	}
}

func (r *EntityRepository) Upsert(ctx context.Context, env entity.Envelope) error {
	const query = `
		INSERT INTO entities (type, id, payload, updated_at, deleted)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (type, id) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at,
			deleted = EXCLUDED.deleted`

	payload := []byte(env.Payload)
	if len(payload) == 0 {
		payload = []byte(`{}`)
	}
	if _, err := r.pool.Exec(ctx, query, env.Type, env.ID, payload, env.UpdatedAt.UTC(), env.Deleted); err != nil {
		r.log.Error("failed to upsert entity", "type", env.Type, "id", env.ID, "error", err)
		return fmt.Errorf("upsert entity: %w", err)
	}
	return nil
}

func (r *EntityRepository) Delete(ctx context.Context, typ entity.Type, id string) error {
	const query = `
		INSERT INTO entities (type, id, payload, updated_at, deleted)
		VALUES ($1, $2, '{}', $3, true)
		ON CONFLICT (type, id) DO UPDATE SET
			payload = '{}',
			updated_at = EXCLUDED.updated_at,
			deleted = true`

	if _, err := r.pool.Exec(ctx, query, typ, id, time.Now().UTC()); err != nil {
		r.log.Error("failed to delete entity", "type", typ, "id", id, "error", err)
		return fmt.Errorf("delete entity: %w", err)
	}
	return nil
}

func (r *EntityRepository) Get(ctx context.Context, typ entity.Type, id string) (*entity.Envelope, error) {
	const query = `
		SELECT type, id, payload, updated_at, deleted
		FROM entities WHERE type = $1 AND id = $2`

	row := r.pool.QueryRow(ctx, query, typ, id)
	env, err := scanEnvelope(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrNotFound
		}
		return nil, fmt.Errorf("get entity: %w", err)
	}
	return env, nil
}

func (r *EntityRepository) ListUpdatedSince(ctx context.Context, typ entity.Type, since time.Time, limit int) ([]entity.Envelope, error) {
	const query = `
		SELECT type, id, payload, updated_at, deleted
		FROM entities
		WHERE type = $1 AND updated_at > $2
		ORDER BY updated_at ASC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, typ, since.UTC(), limit)
	if err != nil {
		r.log.Error("failed to list entities", "type", typ, "error", err)
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var out []entity.Envelope
	for rows.Next() {
		env, err := scanEnvelope(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		out = append(out, *env)
	}
	return out, rows.Err()
}

func scanEnvelope(row pgx.Row) (*entity.Envelope, error) {
	var env entity.Envelope
	var payload []byte
	if err := row.Scan(&env.Type, &env.ID, &payload, &env.UpdatedAt, &env.Deleted); err != nil {
		return nil, err
	}
	env.Payload = payload
	return &env, nil
}
