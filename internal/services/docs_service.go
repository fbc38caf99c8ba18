package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/domain/models"
	"storefront/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// DocsService renders the PDF payment receipt of a paid booking.
type DocsService struct {
	Bookings  BookingReader
	Currency  string
	RequestID string
	Now       func() time.Time
}

// GenerateReceipt returns the PDF bytes and a download file name. Bookings
// whose payment is not Completed have no receipt.
func (s DocsService) GenerateReceipt(ctx context.Context, bookingID string) ([]byte, string, error) {
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return nil, "", domain.ValidationError{Field: "bookingId", Msg: "booking id is required"}
	}

	snap, err := s.Bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	if !snap.IsCompleted() {
		return nil, "", domain.ConflictError{Resource: "booking", Msg: "payment is not completed yet"}
	}
	if snap.ID == "" {
		snap.ID = bookingID
	}

	utils.LogEvent(s.RequestID, "docs", "generate_receipt", "booking_id="+bookingID)
	return buildReceiptPDF(snap, s.currency(), s.now())
}

func (s DocsService) currency() string {
	if c := strings.TrimSpace(s.Currency); c != "" {
		return c
	}
	return DefaultCurrency
}

func (s DocsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func buildReceiptPDF(b models.BookingSnapshot, currency string, issued time.Time) ([]byte, string, error) {
	code := safe(b.CustomBookingID, b.ID)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payment Receipt", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "PAYMENT RECEIPT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Receipt No   : RCPT-%s", utils.SafeFilenamePart(code)),
		fmt.Sprintf("Issued       : %s", utils.FormatDateTime(issued)),
		fmt.Sprintf("Booking Code : %s", code),
		fmt.Sprintf("Customer     : %s", safe(b.CustomerName, "-")),
		fmt.Sprintf("Item         : %s", safe(b.ItemName, "-")),
		fmt.Sprintf("Visit Date   : %s", safe(dateOnly(b.VisitDate), "-")),
		fmt.Sprintf("Status       : %s", b.PaymentStatus),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "Amount Paid: "+utils.FormatCurrency(currency, b.TotalAmount))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "This receipt confirms the payment recorded for the booking above. Keep it for your visit.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("RECEIPT_%s.pdf", utils.SafeFilenamePart(code))
	return buf.Bytes(), filename, nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func dateOnly(v string) string {
	if d, ok := utils.NormalizeDate(v); ok {
		return d
	}
	return strings.TrimSpace(v)
}
