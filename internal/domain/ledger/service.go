package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// Servicer defines the ledger operations.
type Servicer interface {
	Credit(ctx context.Context, clientID, bookingID string, amount int64, currency, actor string) (*Transaction, error)
	Debit(ctx context.Context, clientID, bookingID string, amount int64, currency, actor string) (*Transaction, error)
	Reverse(ctx context.Context, transactionID, actor, reason string) (*Transaction, error)
	Balance(ctx context.Context, clientID string) (int64, error)
	ListByClient(ctx context.Context, clientID string) ([]Transaction, error)
}

type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With("component", "ledger_service"),
		now:  time.Now,
	}
}

// WithClock overrides the service clock. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Credit appends a positive entry. The amount is the magnitude; a negative
// or zero amount is rejected rather than silently flipping the entry's side.
func (s *Service) Credit(ctx context.Context, clientID, bookingID string, amount int64, currency, actor string) (*Transaction, error) {
	t, err := s.NewCredit(clientID, bookingID, amount, currency)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, t, actor)
}

// Debit appends a negative entry. As with Credit the amount is the magnitude.
func (s *Service) Debit(ctx context.Context, clientID, bookingID string, amount int64, currency, actor string) (*Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	t, err := s.build(clientID, bookingID, -amount, currency)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, t, actor)
}

// NewCredit validates and constructs a credit without persisting it. Payment
// settlement commits the returned entry together with the booking row in one
// store transaction; everything else goes through Credit.
func (s *Service) NewCredit(clientID, bookingID string, amount int64, currency string) (*Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	return s.build(clientID, bookingID, amount, currency)
}

func (s *Service) build(clientID, bookingID string, amount int64, currency string) (*Transaction, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: client id is required", ErrValidation)
	}
	if amount == 0 {
		return nil, fmt.Errorf("%w: amount must be non-zero", ErrValidation)
	}
	if len(currency) != 3 {
		return nil, fmt.Errorf("%w: unknown currency %q", ErrValidation, currency)
	}

	now := s.now().UTC()
	return &Transaction{
		ID:              uuid.NewString(),
		ClientID:        clientID,
		BookingID:       bookingID,
		Amount:          amount,
		Currency:        currency,
		Status:          StatusActive,
		CreatedAt:       now,
		CanReverseUntil: now.Add(ReversalWindow),
	}, nil
}

func (s *Service) persist(ctx context.Context, t *Transaction, actor string) (*Transaction, error) {
	if err := s.repo.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("save transaction: %w", err)
	}
	s.log.Info("ledger entry recorded",
		"transaction_id", t.ID, "client_id", t.ClientID, "amount", t.Amount, "actor", actor)
	return t, nil
}

// Reverse undoes a transaction while its window is still open. The window is
// closed at exactly CanReverseUntil: reversal requires now < CanReverseUntil.
// The original amount is never mutated; the entry is marked reversed and the
// client balance is recomputed as a fold over the remaining active entries.
func (s *Service) Reverse(ctx context.Context, transactionID, actor, reason string) (*Transaction, error) {
	t, err := s.repo.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusActive {
		return nil, ErrAlreadyReversed
	}

	now := s.now().UTC()
	if !now.Before(t.CanReverseUntil) {
		return nil, ErrWindowExpired
	}

	t.Status = StatusReversed
	t.ReversedAt = &now
	t.ReversedBy = actor
	t.ReverseReason = reason
	if err := s.repo.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("save reversal: %w", err)
	}
	s.log.Info("transaction reversed",
		"transaction_id", t.ID, "actor", actor, "reason", reason)
	return t, nil
}

// Balance is the sum of the client's active transactions. Reversed entries
// are excluded by status, keeping the balance auditable after the fact.
func (s *Service) Balance(ctx context.Context, clientID string) (int64, error) {
	entries, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return 0, fmt.Errorf("list transactions: %w", err)
	}
	var balance int64
	for _, t := range entries {
		if t.Status == StatusActive {
			balance += t.Amount
		}
	}
	return balance, nil
}

func (s *Service) ListByClient(ctx context.Context, clientID string) ([]Transaction, error) {
	return s.repo.ListByClient(ctx, clientID)
}
