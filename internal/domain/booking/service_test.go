package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/exp/slog"

	"studiosync/internal/domain/ledger"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Get(ctx context.Context, id string) (*Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) Save(ctx context.Context, b *Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockRepository) List(ctx context.Context, f Filter) ([]Booking, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *MockRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockRepository) SavePayment(ctx context.Context, b *Booking, credit *ledger.Transaction) error {
	args := m.Called(ctx, b, credit)
	return args.Error(0)
}

func (m *MockRepository) SaveWithAddOn(ctx context.Context, b *Booking, a *AddOn) error {
	args := m.Called(ctx, b, a)
	return args.Error(0)
}

func (m *MockRepository) GetAddOn(ctx context.Context, id string) (*AddOn, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AddOn), args.Error(1)
}

func (m *MockRepository) SaveAddOn(ctx context.Context, a *AddOn) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockRepository) ListAddOns(ctx context.Context, bookingID string) ([]AddOn, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]AddOn), args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, b *Booking, effects []Effect) []EffectResult {
	args := m.Called(ctx, b, effects)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]EffectResult)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) NewCredit(clientID, bookingID string, amount int64, currency string) (*ledger.Transaction, error) {
	args := m.Called(clientID, bookingID, amount, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func newTestService(repo Repository, dispatcher Dispatcher, lg PaymentLedger) *Service {
	return NewService(repo, dispatcher, lg, slog.Default())
}

func TestService_Create(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, nil, nil)

	mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(b *Booking) bool {
		return b.ID != "" &&
			b.Status == StatusInquiry &&
			b.ClientName == "Ana" &&
			len(b.StatusHistory) == 1 &&
			b.StatusHistory[0].Status == StatusInquiry
	})).Return(nil)

	b, err := service.Create(context.Background(), CreateRequest{
		ClientID:    "c-1",
		ClientName:  "Ana",
		Package:     PackageStudio,
		TotalAmount: 1500_00,
		Currency:    "IDR",
		ShootDate:   time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
	})
	assert.NoError(t, err)
	assert.Equal(t, StatusInquiry, b.Status)
	assert.Equal(t, int64(1500_00), b.Outstanding())

	mockRepo.AssertExpectations(t)
}

func TestService_Create_Invalid(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, nil, nil)

	// Missing client name.
	_, err := service.Create(context.Background(), CreateRequest{
		ClientID:  "c-1",
		Package:   PackageStudio,
		Currency:  "IDR",
		ShootDate: time.Now(),
	})
	assert.ErrorIs(t, err, ErrValidation)

	// Unknown package kind.
	_, err = service.Create(context.Background(), CreateRequest{
		ClientID:   "c-1",
		ClientName: "Ana",
		Package:    "drone",
		Currency:   "IDR",
		ShootDate:  time.Now(),
	})
	assert.ErrorIs(t, err, ErrValidation)

	mockRepo.AssertNotCalled(t, "Save")
}

func TestService_Transition(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, nil, nil)

	b := testBooking(StatusInquiry)
	b.StatusHistory = []StatusChange{{Status: StatusInquiry, At: time.Now()}}

	mockRepo.On("Get", mock.Anything, "b-1").Return(b, nil)
	mockRepo.On("Save", mock.Anything, b).Return(nil)

	got, err := service.Transition(context.Background(), "b-1", StatusConfirmed, "desk")
	assert.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
	assert.Len(t, got.StatusHistory, 2)
	assert.Equal(t, "desk", got.StatusHistory[1].Actor)

	mockRepo.AssertExpectations(t)
}

func TestService_Transition_InvalidLeavesBookingUntouched(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, nil, nil)

	b := testBooking(StatusInquiry)
	mockRepo.On("Get", mock.Anything, "b-1").Return(b, nil)

	_, err := service.Transition(context.Background(), "b-1", StatusPrinting, "desk")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusInquiry, b.Status)
	assert.Empty(t, b.StatusHistory)

	mockRepo.AssertNotCalled(t, "Save")
}

func TestService_Transition_PaymentGate(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, nil, nil)

	b := testBooking(StatusConfirmed)
	b.TotalAmount = 100
	mockRepo.On("Get", mock.Anything, "b-1").Return(b, nil)

	_, err := service.Transition(context.Background(), "b-1", StatusShooting, "desk")
	assert.ErrorIs(t, err, ErrPaymentRequired)

	mockRepo.AssertNotCalled(t, "Save")
}

func TestService_Transition_CompositeCreatesFolderOnce(t *testing.T) {
	mockRepo := new(MockRepository)
	mockDispatcher := new(MockDispatcher)
	service := newTestService(mockRepo, mockDispatcher, nil)

	b := testBooking(StatusShooting)
	mockRepo.On("Get", mock.Anything, "b-1").Return(b, nil)
	mockRepo.On("Save", mock.Anything, b).Return(nil)

	mockDispatcher.On("Dispatch", mock.Anything, b, mock.MatchedBy(func(effects []Effect) bool {
		return len(effects) == 1 && effects[0].Kind == EffectCreateFolder
	})).Return([]EffectResult{{
		Effect:     Effect{Kind: EffectCreateFolder, BookingID: "b-1"},
		FolderPath: "/sessions/2026-09-12_ana_b-1",
	}})

	got, err := service.Transition(context.Background(), "b-1", StatusDelivered, "desk")
	assert.NoError(t, err)
	assert.Equal(t, StatusDelivered, got.Status)
	assert.NotNil(t, got.FolderPath)
	assert.Equal(t, "/sessions/2026-09-12_ana_b-1", *got.FolderPath)

	// History records both the intermediate and the final step.
	assert.Equal(t, StatusShootingCompleted, got.StatusHistory[len(got.StatusHistory)-2].Status)
	assert.Equal(t, StatusDelivered, got.StatusHistory[len(got.StatusHistory)-1].Status)

	// One Save for the transition, one follow-up for the folder path.
	mockRepo.AssertNumberOfCalls(t, "Save", 2)
	mockDispatcher.AssertExpectations(t)
}

func TestService_Transition_SideEffectFailureKeepsState(t *testing.T) {
	mockRepo := new(MockRepository)
	mockDispatcher := new(MockDispatcher)
	service := newTestService(mockRepo, mockDispatcher, nil)

	b := testBooking(StatusShooting)
	mockRepo.On("Get", mock.Anything, "b-1").Return(b, nil)
	mockRepo.On("Save", mock.Anything, b).Return(nil)

	diskErr := errors.New("mkdir: read-only file system")
	mockDispatcher.On("Dispatch", mock.Anything, b, mock.Anything).Return([]EffectResult{{
		Effect: Effect{Kind: EffectCreateFolder, BookingID: "b-1"},
		Err:    diskErr,
	}})

	got, err := service.Transition(context.Background(), "b-1", StatusShootingCompleted, "desk")

	var sideEffectErr *SideEffectError
	assert.ErrorAs(t, err, &sideEffectErr)
	assert.Equal(t, EffectCreateFolder, sideEffectErr.Effect)
	assert.ErrorIs(t, err, diskErr)

	// The state change is committed regardless of the effect outcome.
	assert.NotNil(t, got)
	assert.Equal(t, StatusShootingCompleted, got.Status)
	assert.Nil(t, got.FolderPath)
}

func TestService_RecordPayment(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLedger := new(MockLedger)
	service := newTestService(mockRepo, nil, mockLedger)

	b := testBooking(StatusConfirmed)
	b.TotalAmount = 1000
	credit := &ledger.Transaction{ID: "t-1", ClientID: "c-1", BookingID: "b-1", Amount: 400, Currency: "IDR"}
	mockRepo.On("Get", mock.Anything, "b-1").Return(b, nil)
	mockLedger.On("NewCredit", "c-1", "b-1", int64(400), "IDR").Return(credit, nil)
	mockRepo.On("SavePayment", mock.Anything, b, credit).Return(nil)

	got, err := service.RecordPayment(context.Background(), "b-1", 400, "desk")
	assert.NoError(t, err)
	assert.Equal(t, int64(400), got.PaidAmount)
	assert.Equal(t, int64(600), got.Outstanding())

	// Both legs go through the single atomic save; never a bare booking save.
	mockRepo.AssertNotCalled(t, "Save")
	mockRepo.AssertExpectations(t)
	mockLedger.AssertExpectations(t)
}

func TestService_RecordPayment_LedgerFailureLeavesBookingUnsaved(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLedger := new(MockLedger)
	service := newTestService(mockRepo, nil, mockLedger)

	b := testBooking(StatusConfirmed)
	b.TotalAmount = 1000
	mockRepo.On("Get", mock.Anything, "b-1").Return(b, nil)
	mockLedger.On("NewCredit", "c-1", "b-1", int64(400), "IDR").
		Return(nil, ledger.ErrValidation)

	_, err := service.RecordPayment(context.Background(), "b-1", 400, "desk")
	assert.Error(t, err)

	// A payment whose credit cannot be built must not raise the paid amount.
	mockRepo.AssertNotCalled(t, "Save")
	mockRepo.AssertNotCalled(t, "SavePayment")
}

func TestService_RecordPayment_Invalid(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, nil, nil)

	_, err := service.RecordPayment(context.Background(), "b-1", 0, "desk")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = service.RecordPayment(context.Background(), "b-1", -50, "desk")
	assert.ErrorIs(t, err, ErrValidation)

	b := testBooking(StatusConfirmed)
	b.TotalAmount = 100
	mockRepo.On("Get", mock.Anything, "b-1").Return(b, nil)

	_, err = service.RecordPayment(context.Background(), "b-1", 101, "desk")
	assert.ErrorIs(t, err, ErrValidation)

	mockRepo.AssertNotCalled(t, "Save")
}

func TestService_ApproveAddOn(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, nil, nil)

	b := testBooking(StatusShooting)
	b.TotalAmount = 1000
	a := &AddOn{ID: "a-1", BookingID: "b-1", Amount: 250, Status: AddOnPending}

	mockRepo.On("GetAddOn", mock.Anything, "a-1").Return(a, nil)
	mockRepo.On("Get", mock.Anything, "b-1").Return(b, nil)
	mockRepo.On("SaveWithAddOn", mock.Anything, b, a).Return(nil)

	got, err := service.ApproveAddOn(context.Background(), "a-1", "owner")
	assert.NoError(t, err)
	assert.Equal(t, AddOnApproved, got.Status)
	assert.Equal(t, int64(1000), got.PreviousTotal)
	assert.Equal(t, int64(1250), b.TotalAmount)
	assert.Equal(t, "owner", got.ApprovedBy)

	mockRepo.AssertExpectations(t)
}

// A failed approval must leave nothing behind: the total and the add-on
// commit together, so retrying after an error charges the booking once.
func TestService_ApproveAddOn_RetryAfterFailureChargesOnce(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, nil, nil)

	first := testBooking(StatusShooting)
	first.TotalAmount = 1000
	firstAddOn := &AddOn{ID: "a-1", BookingID: "b-1", Amount: 250, Status: AddOnPending}

	mockRepo.On("GetAddOn", mock.Anything, "a-1").Return(firstAddOn, nil).Once()
	mockRepo.On("Get", mock.Anything, "b-1").Return(first, nil).Once()
	mockRepo.On("SaveWithAddOn", mock.Anything, first, firstAddOn).
		Return(errors.New("disk I/O error")).Once()

	_, err := service.ApproveAddOn(context.Background(), "a-1", "owner")
	assert.Error(t, err)

	// The retry reloads both rows; the failed attempt committed nothing, so
	// they come back unchanged.
	second := testBooking(StatusShooting)
	second.TotalAmount = 1000
	secondAddOn := &AddOn{ID: "a-1", BookingID: "b-1", Amount: 250, Status: AddOnPending}

	mockRepo.On("GetAddOn", mock.Anything, "a-1").Return(secondAddOn, nil).Once()
	mockRepo.On("Get", mock.Anything, "b-1").Return(second, nil).Once()
	mockRepo.On("SaveWithAddOn", mock.Anything, second, secondAddOn).Return(nil).Once()

	got, err := service.ApproveAddOn(context.Background(), "a-1", "owner")
	assert.NoError(t, err)
	assert.Equal(t, AddOnApproved, got.Status)
	assert.Equal(t, int64(1250), second.TotalAmount)

	mockRepo.AssertExpectations(t)
}

func TestService_ApproveAddOn_NotPending(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, nil, nil)

	a := &AddOn{ID: "a-1", BookingID: "b-1", Amount: 250, Status: AddOnApproved}
	mockRepo.On("GetAddOn", mock.Anything, "a-1").Return(a, nil)

	_, err := service.ApproveAddOn(context.Background(), "a-1", "owner")
	assert.ErrorIs(t, err, ErrAddOnNotPending)

	mockRepo.AssertNotCalled(t, "SaveWithAddOn")
}

func TestService_RejectAddOn(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, nil, nil)

	a := &AddOn{ID: "a-1", BookingID: "b-1", Amount: 250, Status: AddOnPending}
	mockRepo.On("GetAddOn", mock.Anything, "a-1").Return(a, nil)
	mockRepo.On("SaveAddOn", mock.Anything, a).Return(nil)

	got, err := service.RejectAddOn(context.Background(), "a-1", "owner")
	assert.NoError(t, err)
	assert.Equal(t, AddOnRejected, got.Status)

	// Rejection never touches the booking total.
	mockRepo.AssertNotCalled(t, "Save")
}

func TestService_SoftDelete(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, nil, nil)

	b := testBooking(StatusInquiry)
	mockRepo.On("Get", mock.Anything, "b-1").Return(b, nil)
	mockRepo.On("SoftDelete", mock.Anything, "b-1", mock.Anything).Return(nil)

	err := service.SoftDelete(context.Background(), "b-1")
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestService_SoftDelete_NotFound(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, nil, nil)

	mockRepo.On("Get", mock.Anything, "missing").Return(nil, ErrNotFound)

	err := service.SoftDelete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	mockRepo.AssertNotCalled(t, "SoftDelete")
}
