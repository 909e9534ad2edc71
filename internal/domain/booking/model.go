package booking

import (
	"time"
)

// Status is a booking lifecycle state.
type Status string

const (
	StatusInquiry           Status = "inquiry"
	StatusConfirmed         Status = "confirmed"
	StatusShooting          Status = "shooting"
	StatusShootingCompleted Status = "shooting_completed"
	StatusSelection         Status = "selection"
	StatusEditing           Status = "editing"
	StatusReadyToPrint      Status = "ready_to_print"
	StatusPrinting          Status = "printing"
	StatusReadyForPickup    Status = "ready_for_pickup"
	StatusDelivered         Status = "delivered"
	StatusArchived          Status = "archived"
)

// StatusChange is one entry of a booking's append-only status history.
type StatusChange struct {
	Status Status    `json:"status"`
	At     time.Time `json:"at"`
	Actor  string    `json:"actor"`
}

// PackageKind distinguishes bookings whose equipment is rented externally
// from those served by the studio's own battery pool.
type PackageKind string

const (
	PackageStudio PackageKind = "studio"
	PackageRental PackageKind = "rental"
)

// Booking is the aggregate root of the studio workflow. Amounts are minor
// currency units; TotalAmount and PaidAmount are always the same currency.
type Booking struct {
	ID            string         `json:"id"`
	ClientID      string         `json:"client_id"`
	ClientName    string         `json:"client_name"`
	Status        Status         `json:"status"`
	Package       PackageKind    `json:"package"`
	TotalAmount   int64          `json:"total_amount"`
	PaidAmount    int64          `json:"paid_amount"`
	Currency      string         `json:"currency"`
	ShootDate     time.Time      `json:"shoot_date"`
	AssignedStaff string         `json:"assigned_staff,omitempty"`
	FolderPath    *string        `json:"folder_path,omitempty"`
	StatusHistory []StatusChange `json:"status_history"`
	DeletedAt     *time.Time     `json:"deleted_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Outstanding is the unpaid remainder of the booking total.
func (b *Booking) Outstanding() int64 {
	return b.TotalAmount - b.PaidAmount
}

// AddOnStatus tracks an add-on request through approval and billing.
type AddOnStatus string

const (
	AddOnPending  AddOnStatus = "pending"
	AddOnApproved AddOnStatus = "approved"
	AddOnRejected AddOnStatus = "rejected"
	AddOnInvoiced AddOnStatus = "invoiced"
	AddOnPaid     AddOnStatus = "paid"
)

// AddOn is an extra charge attached to a booking. PreviousTotal captures the
// booking total at approval time so the add-on can be cleanly unwound.
type AddOn struct {
	ID            string      `json:"id"`
	BookingID     string      `json:"booking_id"`
	Amount        int64       `json:"amount"`
	Status        AddOnStatus `json:"status"`
	RequestedBy   string      `json:"requested_by"`
	ApprovedBy    string      `json:"approved_by,omitempty"`
	PreviousTotal int64       `json:"previous_total,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
