package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// StatusPoller periodically re-runs CheckStatus on a reconciler while the
// booking is still pending. The wait between checks comes from Retry.
type StatusPoller struct {
	Reconciler *PaymentReconciler
	Retry      *RetryManager
	// After is the timer source; defaults to time.After.
	After func(time.Duration) <-chan time.Time
	// OnResult, when set, sees every check outcome.
	OnResult func(CheckResult, error)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Start launches the polling loop. It returns false if one is running.
func (p *StatusPoller) Start(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		select {
		case <-p.done:
		default:
			return false
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.run(ctx, done)
	return true
}

// Stop cancels the loop and blocks until it has exited.
func (p *StatusPoller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *StatusPoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *StatusPoller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	retry := p.Retry
	if retry == nil {
		retry = NewRetryManager(10, 3*time.Second)
	}
	after := p.After
	if after == nil {
		after = time.After
	}

	logrus.WithField("key", p.Reconciler.Key).Debug("status poller started")
	defer logrus.WithField("key", p.Reconciler.Key).Debug("status poller stopped")

	delay := retry.Backoff(0)
	for attempt := 0; ; {
		select {
		case <-ctx.Done():
			return
		case <-after(delay):
		}

		res, err := p.Reconciler.CheckStatus(ctx)
		if p.OnResult != nil {
			p.OnResult(res, err)
		}
		if res.State.Terminal() || ctx.Err() != nil {
			return
		}

		attempt++
		if err != nil {
			ok, next := retry.ShouldRetry(attempt, err)
			if !ok {
				logrus.WithError(err).WithField("key", p.Reconciler.Key).Info("status poller giving up")
				return
			}
			delay = next
			continue
		}
		if attempt >= retry.MaxRetries() {
			return
		}
		delay = retry.Backoff(attempt)
	}
}
