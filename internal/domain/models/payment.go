package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentAttempt is one external payment capture awaiting backend
// confirmation. Timestamp is epoch milliseconds, as written by the browser.
type PaymentAttempt struct {
	OrderRef        string `json:"orderRef"`
	PaymentRef      string `json:"paymentRef"`
	Signature       string `json:"signature"`
	BookingID       string `json:"bookingId"`
	CustomBookingID string `json:"customBookingId"`
	Timestamp       int64  `json:"timestamp"`
}

// CreatedAt converts Timestamp to time.Time.
func (a PaymentAttempt) CreatedAt() time.Time {
	return time.UnixMilli(a.Timestamp)
}

// Age is the elapsed time since capture.
func (a PaymentAttempt) Age(now time.Time) time.Duration {
	return now.Sub(a.CreatedAt())
}

// CaptureResult is what the checkout widget hands back on success.
type CaptureResult struct {
	OrderRef        string `json:"orderRef" binding:"required"`
	PaymentRef      string `json:"paymentRef" binding:"required"`
	Signature       string `json:"signature" binding:"required"`
	BookingID       string `json:"bookingId" binding:"required"`
	CustomBookingID string `json:"customBookingId"`
}

// VerifyRequest is the payload sent to the verification endpoint.
type VerifyRequest struct {
	OrderRef   string `json:"orderRef"`
	PaymentRef string `json:"paymentRef"`
	Signature  string `json:"signature"`
	BookingID  string `json:"bookingId"`
}

// VerifyResponse is the verification endpoint's answer.
type VerifyResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message,omitempty"`
}

// OrderRequest asks the backend to open a payment order.
type OrderRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Receipt  string          `json:"receipt"`
}

// Order is the backend's created payment order.
type Order struct {
	Success  bool            `json:"success"`
	ID       string          `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}
