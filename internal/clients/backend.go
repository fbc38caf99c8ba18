package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/domain/models"
)

const maxBodyBytes = 1 << 20

// BackendClient talks to the booking backend.
type BackendClient struct {
	BaseURL    string
	HTTPClient *http.Client
	// Header, when set, decorates every outgoing request (request id, auth).
	Header func(ctx context.Context, req *http.Request)
}

// NewBackendClient builds a client with a bounded per-request timeout.
func NewBackendClient(baseURL string, timeout time.Duration) *BackendClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &BackendClient{
		BaseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// GetBooking fetches the booking snapshot by id. A response without
// success=true and a booking body is a TransportError: the backend did not
// give us anything we can act on.
func (c *BackendClient) GetBooking(ctx context.Context, bookingID string) (models.BookingSnapshot, error) {
	const op = "get booking"
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return models.BookingSnapshot{}, domain.ValidationError{Field: "bookingId", Msg: "booking id is required"}
	}

	status, body, err := c.do(ctx, http.MethodGet, "/bookings/"+url.PathEscape(bookingID), nil)
	if err != nil {
		return models.BookingSnapshot{}, domain.TransportError{Op: op, Err: err}
	}
	if status == http.StatusNotFound {
		return models.BookingSnapshot{}, domain.NotFoundError{Resource: "booking"}
	}
	if status >= 300 {
		return models.BookingSnapshot{}, domain.TransportError{Op: op, Status: status}
	}

	var env models.BookingEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return models.BookingSnapshot{}, domain.TransportError{Op: op, Status: status, Err: fmt.Errorf("decode booking: %w", err)}
	}
	if !env.Success || env.Booking == nil {
		return models.BookingSnapshot{}, domain.TransportError{Op: op, Status: status, Err: errors.New("booking response not successful")}
	}
	return *env.Booking, nil
}

// VerifyPayment submits the capture proof. A well-formed {success:false}
// answer below 500 is an explicit rejection; anything else that is not a
// clean success is a TransportError and may be retried.
func (c *BackendClient) VerifyPayment(ctx context.Context, req models.VerifyRequest) error {
	const op = "verify payment"

	status, body, err := c.do(ctx, http.MethodPost, "/payments/verify", req)
	if err != nil {
		return domain.TransportError{Op: op, Err: err}
	}
	if status >= 500 {
		return domain.TransportError{Op: op, Status: status}
	}

	var resp models.VerifyResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Success == nil {
		if err == nil {
			err = errors.New("missing success flag")
		}
		return domain.TransportError{Op: op, Status: status, Err: fmt.Errorf("decode verification: %w", err)}
	}
	if !*resp.Success {
		return domain.RejectionError{Msg: resp.Message}
	}
	if status >= 300 {
		return domain.TransportError{Op: op, Status: status}
	}
	return nil
}

// CreateOrder opens a payment order upstream of reconciliation.
func (c *BackendClient) CreateOrder(ctx context.Context, req models.OrderRequest) (models.Order, error) {
	const op = "create order"

	status, body, err := c.do(ctx, http.MethodPost, "/payments/orders", req)
	if err != nil {
		return models.Order{}, domain.TransportError{Op: op, Err: err}
	}
	if status >= 500 {
		return models.Order{}, domain.TransportError{Op: op, Status: status}
	}

	var order models.Order
	if err := json.Unmarshal(body, &order); err != nil {
		return models.Order{}, domain.TransportError{Op: op, Status: status, Err: fmt.Errorf("decode order: %w", err)}
	}
	if status >= 300 || !order.Success || order.ID == "" {
		return models.Order{}, domain.ValidationError{Field: "order", Msg: "backend refused to create order"}
	}
	return order, nil
}

func (c *BackendClient) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Header != nil {
		c.Header(ctx, req)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (c *BackendClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
