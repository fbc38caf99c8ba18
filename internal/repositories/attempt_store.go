package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/domain/models"
)

// PendingPaymentKey is the fixed record name of a pending payment attempt.
const PendingPaymentKey = "pending_payment"

var (
	// ErrNoAttempt means nothing is persisted under the key.
	ErrNoAttempt = errors.New("no pending payment attempt")
	// ErrLocked means another process holds the attempt's call lock.
	ErrLocked = errors.New("payment attempt is locked")
)

// AttemptStore persists at most one pending payment attempt per key.
// Save and Clear are atomic; Load returns ErrNoAttempt or a
// domain.MalformedStateError when the record cannot be used.
//
// ClearIf removes the record only while it still holds the attempt with
// paymentRef, and reports whether it did.
type AttemptStore interface {
	Load(ctx context.Context, key string) (models.PaymentAttempt, error)
	Save(ctx context.Context, key string, a models.PaymentAttempt) error
	Clear(ctx context.Context, key string) error
	ClearIf(ctx context.Context, key, paymentRef string) (bool, error)
}

// AttemptLocker serializes backend calls for one attempt key across
// processes sharing a store. Lock returns ErrLocked while someone else
// holds the key; the lock lapses after ttl if unlock is never called.
type AttemptLocker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SessionAttemptKey namespaces the fixed record name by browser session.
func SessionAttemptKey(sessionID string) string {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return PendingPaymentKey
	}
	return PendingPaymentKey + ":" + sessionID
}

func lockKey(key string) string {
	return key + ":lock"
}

// ownedBy reports whether raw is a readable attempt with paymentRef.
func ownedBy(raw []byte, paymentRef string) bool {
	a, err := decodeAttempt(raw)
	return err == nil && paymentRef != "" && a.PaymentRef == paymentRef
}

func encodeAttempt(a models.PaymentAttempt) ([]byte, error) {
	return json.Marshal(a)
}

func decodeAttempt(raw []byte) (models.PaymentAttempt, error) {
	var a models.PaymentAttempt
	if err := json.Unmarshal(raw, &a); err != nil {
		return models.PaymentAttempt{}, domain.MalformedStateError{Err: err}
	}
	if a.Timestamp <= 0 || strings.TrimSpace(a.BookingID) == "" {
		return models.PaymentAttempt{}, domain.MalformedStateError{Err: errors.New("missing timestamp or booking id")}
	}
	return a, nil
}

// recordTTL keeps abandoned records from living forever; the freshness
// check itself is done by the reconciler against its own clock.
func recordTTL(freshness time.Duration) time.Duration {
	if freshness <= 0 {
		return 0
	}
	return freshness + time.Minute
}
