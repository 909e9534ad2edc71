package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testBooking(status Status) *Booking {
	return &Booking{
		ID:          "b-1",
		ClientID:    "c-1",
		ClientName:  "Ana",
		Status:      status,
		Package:     PackageStudio,
		TotalAmount: 0,
		PaidAmount:  0,
		Currency:    "IDR",
	}
}

func TestPlanTransition_SingleStep(t *testing.T) {
	b := testBooking(StatusInquiry)

	steps, err := PlanTransition(b, StatusConfirmed)
	assert.NoError(t, err)
	assert.Len(t, steps, 1)
	assert.Equal(t, StatusInquiry, steps[0].From)
	assert.Equal(t, StatusConfirmed, steps[0].To)
	assert.Empty(t, steps[0].Effects)
}

func TestPlanTransition_Invalid(t *testing.T) {
	b := testBooking(StatusInquiry)

	_, err := PlanTransition(b, StatusEditing)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Backwards moves are not in the table either.
	b = testBooking(StatusSelection)
	_, err = PlanTransition(b, StatusShooting)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPlanTransition_Deleted(t *testing.T) {
	b := testBooking(StatusInquiry)
	now := time.Now()
	b.DeletedAt = &now

	_, err := PlanTransition(b, StatusConfirmed)
	assert.ErrorIs(t, err, ErrDeleted)
}

func TestPlanTransition_PaymentGate(t *testing.T) {
	b := testBooking(StatusConfirmed)
	b.TotalAmount = 1000_00
	b.PaidAmount = 500_00

	_, err := PlanTransition(b, StatusShooting)
	assert.ErrorIs(t, err, ErrPaymentRequired)

	b.PaidAmount = 1000_00
	steps, err := PlanTransition(b, StatusShooting)
	assert.NoError(t, err)
	assert.Len(t, steps, 1)
}

func TestPlanTransition_PaymentGateDelivered(t *testing.T) {
	b := testBooking(StatusReadyForPickup)
	b.TotalAmount = 250_00

	_, err := PlanTransition(b, StatusDelivered)
	assert.ErrorIs(t, err, ErrPaymentRequired)
}

func TestPlanTransition_Composite(t *testing.T) {
	b := testBooking(StatusShooting)

	steps, err := PlanTransition(b, StatusDelivered)
	assert.NoError(t, err)
	assert.Len(t, steps, 2)

	assert.Equal(t, StatusShooting, steps[0].From)
	assert.Equal(t, StatusShootingCompleted, steps[0].To)
	assert.Len(t, steps[0].Effects, 1)
	assert.Equal(t, EffectCreateFolder, steps[0].Effects[0].Kind)

	assert.Equal(t, StatusShootingCompleted, steps[1].From)
	assert.Equal(t, StatusDelivered, steps[1].To)
	assert.Empty(t, steps[1].Effects)
}

func TestPlanTransition_CompositePaymentGate(t *testing.T) {
	b := testBooking(StatusShooting)
	b.TotalAmount = 100

	_, err := PlanTransition(b, StatusDelivered)
	assert.ErrorIs(t, err, ErrPaymentRequired)
}

func TestEffectsFor_BatterySkippedForRental(t *testing.T) {
	b := testBooking(StatusShootingCompleted)
	b.AssignedStaff = "staff-1"

	steps, err := PlanTransition(b, StatusSelection)
	assert.NoError(t, err)
	assert.Len(t, steps[0].Effects, 1)
	assert.Equal(t, EffectConsumeBattery, steps[0].Effects[0].Kind)
	assert.Equal(t, "staff-1", steps[0].Effects[0].StaffID)

	b.Package = PackageRental
	steps, err = PlanTransition(b, StatusSelection)
	assert.NoError(t, err)
	assert.Empty(t, steps[0].Effects)
}

func TestEffectsFor_ChargingReminderOnEditing(t *testing.T) {
	b := testBooking(StatusSelection)

	steps, err := PlanTransition(b, StatusEditing)
	assert.NoError(t, err)
	assert.Len(t, steps[0].Effects, 1)
	assert.Equal(t, EffectChargingReminder, steps[0].Effects[0].Kind)
}

func TestPlanTransition_FullPath(t *testing.T) {
	order := []Status{
		StatusInquiry, StatusConfirmed, StatusShooting, StatusShootingCompleted,
		StatusSelection, StatusEditing, StatusReadyToPrint, StatusPrinting,
		StatusReadyForPickup, StatusDelivered, StatusArchived,
	}

	b := testBooking(order[0])
	for _, next := range order[1:] {
		steps, err := PlanTransition(b, next)
		assert.NoError(t, err, "from %s to %s", b.Status, next)
		assert.Len(t, steps, 1)
		b.Status = next
	}
}
