package services

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"storefront/internal/domain"
)

// RetryManager decides whether a failed status check is worth repeating and
// how long to wait before doing so.
type RetryManager struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	// jitter returns a value in [0, n); tests pin it.
	jitter func(n int64) int64
}

// NewRetryManager creates a RetryManager whose delay grows from baseDelay
// and is capped at 16x baseDelay.
func NewRetryManager(maxRetries int, baseDelay time.Duration) *RetryManager {
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &RetryManager{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   baseDelay * 16,
		jitter:     rand.Int63n,
	}
}

func (r *RetryManager) MaxRetries() int {
	return r.maxRetries
}

// ShouldRetry reports whether attempt number `attempt` may run after err and
// the delay to wait first.
func (r *RetryManager) ShouldRetry(attempt int, err error) (bool, time.Duration) {
	if attempt >= r.maxRetries {
		return false, 0
	}
	if !isRetryableError(err) {
		return false, 0
	}
	return true, r.Backoff(attempt)
}

// Backoff is base * 2^(attempt-1) with up to ±25% jitter, capped.
func (r *RetryManager) Backoff(attempt int) time.Duration {
	if attempt <= 0 {
		return r.baseDelay
	}
	if attempt > 30 {
		attempt = 30
	}

	backoff := r.baseDelay * time.Duration(1<<(attempt-1))
	if backoff <= 0 || backoff > r.maxDelay {
		backoff = r.maxDelay
	}

	if quarter := int64(backoff / 4); quarter > 0 && r.jitter != nil {
		// spread over [-25%, +25%)
		backoff += time.Duration(r.jitter(2*quarter) - quarter)
	}

	if backoff > r.maxDelay {
		backoff = r.maxDelay
	}
	return backoff
}

// isRetryableError treats only failures to reach a usable backend answer as
// retryable. Rejection, staleness and bad input never get better on retry.
func isRetryableError(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, domain.ErrBusy):
		return true
	case domain.IsRejection(err), domain.IsStale(err), domain.IsMalformed(err), domain.IsValidation(err):
		return false
	}
	return true
}
