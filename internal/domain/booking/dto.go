package booking

import (
	"time"
)

type CreateRequest struct {
	ClientID      string      `json:"client_id" validate:"required"`
	ClientName    string      `json:"client_name" validate:"required"`
	Package       PackageKind `json:"package" validate:"required,oneof=studio rental"`
	TotalAmount   int64       `json:"total_amount" validate:"gte=0"`
	Currency      string      `json:"currency" validate:"required,len=3"`
	ShootDate     time.Time   `json:"shoot_date" validate:"required"`
	AssignedStaff string      `json:"assigned_staff"`
}

type AddOnRequest struct {
	BookingID   string `json:"booking_id" validate:"required"`
	Amount      int64  `json:"amount" validate:"gt=0"`
	RequestedBy string `json:"requested_by" validate:"required"`
}
