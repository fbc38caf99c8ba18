package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// BookingStatusCompleted is the only payment status that means "paid".
const BookingStatusCompleted = "Completed"

// BookingSnapshot is the backend's read-only view of a booking.
type BookingSnapshot struct {
	ID              string          `json:"_id,omitempty"`
	CustomBookingID string          `json:"customBookingId"`
	PaymentStatus   string          `json:"paymentStatus"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	CustomerName    string          `json:"customerName,omitempty"`
	ItemName        string          `json:"itemName,omitempty"`
	VisitDate       string          `json:"date,omitempty"`
}

// IsCompleted reports whether the backend recorded the payment.
func (b BookingSnapshot) IsCompleted() bool {
	return strings.TrimSpace(b.PaymentStatus) == BookingStatusCompleted
}

// BookingEnvelope is the fetch-booking response shape.
type BookingEnvelope struct {
	Success bool             `json:"success"`
	Booking *BookingSnapshot `json:"booking"`
	Message string           `json:"message,omitempty"`
}
