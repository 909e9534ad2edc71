package entity

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slog"
)

// Servicer defines the operations the sync API exposes over entity rows.
type Servicer interface {
	Upsert(ctx context.Context, env Envelope) error
	Delete(ctx context.Context, typ Type, id string) error
	Get(ctx context.Context, typ Type, id string) (*Envelope, error)
	ListUpdatedSince(ctx context.Context, typ Type, since time.Time) ([]Envelope, error)
}

type Service struct {
	repo  Repository
	log   *slog.Logger
	limit int
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		log:   log.With("component", "entity_service"),
		limit: 500,
	}
}

// Upsert stores the envelope under its (type, id) key. The operation is
// idempotent: replaying an already-applied envelope is a no-op overwrite.
func (s *Service) Upsert(ctx context.Context, env Envelope) error {
	if err := env.Validate(); err != nil {
		return err
	}
	if env.UpdatedAt.IsZero() {
		env.UpdatedAt = time.Now().UTC()
	}
	if err := s.repo.Upsert(ctx, env); err != nil {
		s.log.Error("upsert failed", "type", env.Type, "id", env.ID, "error", err)
		return fmt.Errorf("upsert entity: %w", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, typ Type, id string) error {
	if !typ.Known() {
		return ErrUnknownType
	}
	if id == "" {
		return ErrMissingID
	}
	if err := s.repo.Delete(ctx, typ, id); err != nil {
		s.log.Error("delete failed", "type", typ, "id", id, "error", err)
		return fmt.Errorf("delete entity: %w", err)
	}
	return nil
}

// Get returns a single row, tombstones included, so a client can inspect the
// server copy of any key.
func (s *Service) Get(ctx context.Context, typ Type, id string) (*Envelope, error) {
	if !typ.Known() {
		return nil, ErrUnknownType
	}
	if id == "" {
		return nil, ErrMissingID
	}
	env, err := s.repo.Get(ctx, typ, id)
	if err != nil {
		return nil, err
	}
	return env, nil
}

func (s *Service) ListUpdatedSince(ctx context.Context, typ Type, since time.Time) ([]Envelope, error) {
	if !typ.Known() {
		return nil, ErrUnknownType
	}
	rows, err := s.repo.ListUpdatedSince(ctx, typ, since, s.limit)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	return rows, nil
}
