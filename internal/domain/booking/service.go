package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"studiosync/internal/domain/ledger"
)

// EffectResult is the outcome of one dispatched side effect. FolderPath is
// populated only for a successful EffectCreateFolder.
type EffectResult struct {
	Effect     Effect
	FolderPath string
	Err        error
}

// Dispatcher executes side effects through the injected collaborators.
// Implementations must never mutate bookings directly; data follow-ups flow
// back through the service.
type Dispatcher interface {
	Dispatch(ctx context.Context, b *Booking, effects []Effect) []EffectResult
}

// PaymentLedger builds the financial leg of a payment settlement. The
// returned transaction is not persisted by the ledger; the repository commits
// it together with the booking row so neither leg can land without the other.
type PaymentLedger interface {
	NewCredit(clientID, bookingID string, amount int64, currency string) (*ledger.Transaction, error)
}

// Servicer defines the booking operations exposed to the CLI and API layers.
type Servicer interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	Get(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, f Filter) ([]Booking, error)
	Transition(ctx context.Context, id string, target Status, actor string) (*Booking, error)
	RecordPayment(ctx context.Context, id string, amount int64, actor string) (*Booking, error)
	SoftDelete(ctx context.Context, id string) error

	RequestAddOn(ctx context.Context, req AddOnRequest) (*AddOn, error)
	ApproveAddOn(ctx context.Context, addOnID, approver string) (*AddOn, error)
	RejectAddOn(ctx context.Context, addOnID, approver string) (*AddOn, error)
}

type Service struct {
	repo       Repository
	dispatcher Dispatcher
	ledger     PaymentLedger
	validate   *validator.Validate
	log        *slog.Logger
	now        func() time.Time
}

func NewService(repo Repository, dispatcher Dispatcher, ledger PaymentLedger, log *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		dispatcher: dispatcher,
		ledger:     ledger,
		validate:   validator.New(),
		log:        log.With("component", "booking_service"),
		now:        time.Now,
	}
}

// WithClock overrides the service clock. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := s.now().UTC()
	b := &Booking{
		ID:            uuid.NewString(),
		ClientID:      req.ClientID,
		ClientName:    req.ClientName,
		Status:        StatusInquiry,
		Package:       req.Package,
		TotalAmount:   req.TotalAmount,
		Currency:      req.Currency,
		ShootDate:     req.ShootDate,
		AssignedStaff: req.AssignedStaff,
		StatusHistory: []StatusChange{{Status: StatusInquiry, At: now, Actor: req.ClientName}},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("save booking: %w", err)
	}
	s.log.Info("booking created", "booking_id", b.ID, "client", b.ClientName)
	return b, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Booking, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Booking, error) {
	return s.repo.List(ctx, f)
}

// Transition moves the booking to target if the state table allows it,
// appending every step (composite transitions included) to the status
// history and dispatching the steps' side effects.
//
// The state change is committed before effects run and is never rolled back
// by an effect failure: on such a failure Transition returns the updated
// booking together with a *SideEffectError so callers can offer a manual
// retry. ErrInvalidTransition and ErrPaymentRequired leave the booking
// completely untouched.
func (s *Service) Transition(ctx context.Context, id string, target Status, actor string) (*Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	steps, err := PlanTransition(b, target)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	for _, step := range steps {
		b.Status = step.To
		b.StatusHistory = append(b.StatusHistory, StatusChange{Status: step.To, At: now, Actor: actor})
	}
	b.UpdatedAt = now
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("save transition: %w", err)
	}
	s.log.Info("booking transitioned",
		"booking_id", b.ID, "from", steps[0].From, "to", b.Status, "actor", actor)

	var effects []Effect
	for _, step := range steps {
		effects = append(effects, step.Effects...)
	}
	if len(effects) == 0 || s.dispatcher == nil {
		return b, nil
	}

	var effErr error
	for _, res := range s.dispatcher.Dispatch(ctx, b, effects) {
		if res.Err != nil {
			s.log.Warn("side effect failed",
				"booking_id", b.ID, "effect", res.Effect.Kind, "error", res.Err)
			effErr = &SideEffectError{Effect: res.Effect.Kind, Err: res.Err}
			continue
		}
		if res.Effect.Kind == EffectCreateFolder && res.FolderPath != "" && b.FolderPath == nil {
			// Folder path is set once, as a follow-up mutation riding the
			// same local-commit-then-sync path as any other write.
			path := res.FolderPath
			b.FolderPath = &path
			b.UpdatedAt = s.now().UTC()
			if err := s.repo.Save(ctx, b); err != nil {
				effErr = &SideEffectError{Effect: EffectCreateFolder, Err: err}
			}
		}
	}
	return b, effErr
}

// RecordPayment raises the booking's paid amount and appends the matching
// ledger credit, committed as one transaction so a failed save cannot leave
// one leg recorded without the other. PaidAmount only ever grows here; the
// one sanctioned way down is a ledger reversal.
func (s *Service) RecordPayment(ctx context.Context, id string, amount int64, actor string) (*Booking, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrValidation)
	}

	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if amount > b.Outstanding() {
		return nil, fmt.Errorf("%w: payment exceeds outstanding balance", ErrValidation)
	}

	b.PaidAmount += amount
	b.UpdatedAt = s.now().UTC()

	if s.ledger == nil {
		if err := s.repo.Save(ctx, b); err != nil {
			return nil, fmt.Errorf("save payment: %w", err)
		}
	} else {
		credit, err := s.ledger.NewCredit(b.ClientID, b.ID, amount, b.Currency)
		if err != nil {
			return nil, fmt.Errorf("build ledger credit: %w", err)
		}
		if err := s.repo.SavePayment(ctx, b, credit); err != nil {
			return nil, fmt.Errorf("save payment: %w", err)
		}
	}
	s.log.Info("payment recorded", "booking_id", b.ID, "amount", amount, "actor", actor)
	return b, nil
}

func (s *Service) SoftDelete(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, id, s.now().UTC())
}

func (s *Service) RequestAddOn(ctx context.Context, req AddOnRequest) (*AddOn, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, err := s.repo.Get(ctx, req.BookingID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	a := &AddOn{
		ID:          uuid.NewString(),
		BookingID:   req.BookingID,
		Amount:      req.Amount,
		Status:      AddOnPending,
		RequestedBy: req.RequestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.SaveAddOn(ctx, a); err != nil {
		return nil, fmt.Errorf("save add-on: %w", err)
	}
	return a, nil
}

// ApproveAddOn folds the add-on amount into the booking total, capturing the
// prior total so the charge can be unwound exactly. The add-on and the raised
// total commit together: a failed approval leaves the add-on pending and the
// total untouched, so retrying it cannot charge the booking twice.
func (s *Service) ApproveAddOn(ctx context.Context, addOnID, approver string) (*AddOn, error) {
	a, err := s.repo.GetAddOn(ctx, addOnID)
	if err != nil {
		return nil, err
	}
	if a.Status != AddOnPending {
		return nil, ErrAddOnNotPending
	}

	b, err := s.repo.Get(ctx, a.BookingID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	a.PreviousTotal = b.TotalAmount
	a.Status = AddOnApproved
	a.ApprovedBy = approver
	a.UpdatedAt = now

	b.TotalAmount += a.Amount
	b.UpdatedAt = now

	if err := s.repo.SaveWithAddOn(ctx, b, a); err != nil {
		return nil, fmt.Errorf("save approval: %w", err)
	}
	s.log.Info("add-on approved", "addon_id", a.ID, "booking_id", b.ID, "amount", a.Amount)
	return a, nil
}

// RejectAddOn closes a pending add-on without touching the booking total.
func (s *Service) RejectAddOn(ctx context.Context, addOnID, approver string) (*AddOn, error) {
	a, err := s.repo.GetAddOn(ctx, addOnID)
	if err != nil {
		return nil, err
	}
	if a.Status != AddOnPending {
		return nil, ErrAddOnNotPending
	}

	a.Status = AddOnRejected
	a.ApprovedBy = approver
	a.UpdatedAt = s.now().UTC()
	if err := s.repo.SaveAddOn(ctx, a); err != nil {
		return nil, fmt.Errorf("save add-on: %w", err)
	}
	return a, nil
}
