package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"storefront/internal/domain/models"
	"storefront/internal/repositories"

	"github.com/shopspring/decimal"
)

type memStore struct {
	mu      sync.Mutex
	records map[string]models.PaymentAttempt
	loadErr error
	clears  int
}

func newMemStore() *memStore {
	return &memStore{records: map[string]models.PaymentAttempt{}}
}

func (s *memStore) Load(_ context.Context, key string) (models.PaymentAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return models.PaymentAttempt{}, s.loadErr
	}
	a, ok := s.records[key]
	if !ok {
		return models.PaymentAttempt{}, repositories.ErrNoAttempt
	}
	return a, nil
}

func (s *memStore) Save(_ context.Context, key string, a models.PaymentAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = a
	return nil
}

func (s *memStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	s.loadErr = nil
	s.clears++
	return nil
}

func (s *memStore) ClearIf(_ context.Context, key, paymentRef string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.records[key]
	if !ok || paymentRef == "" || a.PaymentRef != paymentRef {
		return false, nil
	}
	delete(s.records, key)
	s.clears++
	return true, nil
}

func (s *memStore) get(key string) (models.PaymentAttempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.records[key]
	return a, ok
}

func (s *memStore) put(key string, a models.PaymentAttempt) {
	s.mu.Lock()
	s.records[key] = a
	s.mu.Unlock()
}

// fakeLocker hands out one lock per key, or fails every Lock with err.
type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
	err  error
	ttls []time.Duration
}

func (l *fakeLocker) Lock(_ context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ttls = append(l.ttls, ttl)
	if l.err != nil {
		return nil, l.err
	}
	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[key] {
		return nil, repositories.ErrLocked
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}, nil
}

func (l *fakeLocker) locked(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[key]
}

func (s *memStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[key]
	return ok
}

// fakeBackend answers from scripted queues; the last entry repeats.
type fakeBackend struct {
	mu        sync.Mutex
	statuses  []string
	bookErrs  []error
	verifyErr []error

	// gate, when set, blocks VerifyPayment until closed; entered is
	// signalled as soon as the call arrives.
	gate    chan struct{}
	entered chan struct{}

	bookingCalls atomic.Int32
	verifyCalls  atomic.Int32
	lastVerify   models.VerifyRequest
}

func pick[T any](q []T, n int) T {
	var zero T
	if len(q) == 0 {
		return zero
	}
	if n >= len(q) {
		return q[len(q)-1]
	}
	return q[n]
}

func (b *fakeBackend) GetBooking(_ context.Context, id string) (models.BookingSnapshot, error) {
	n := int(b.bookingCalls.Add(1)) - 1
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := pick(b.bookErrs, n); err != nil {
		return models.BookingSnapshot{}, err
	}
	return models.BookingSnapshot{
		ID:              id,
		CustomBookingID: "BK-100",
		PaymentStatus:   pick(b.statuses, n),
		TotalAmount:     decimal.NewFromInt(1300),
	}, nil
}

func (b *fakeBackend) VerifyPayment(ctx context.Context, req models.VerifyRequest) error {
	n := int(b.verifyCalls.Add(1)) - 1
	if b.entered != nil {
		b.entered <- struct{}{}
	}
	if b.gate != nil {
		select {
		case <-b.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastVerify = req
	return pick(b.verifyErr, n)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

var testNow = time.Date(2024, 12, 25, 10, 0, 0, 0, time.UTC)

func testAttempt(created time.Time) models.PaymentAttempt {
	return models.PaymentAttempt{
		OrderRef:        "order_1",
		PaymentRef:      "pay_1",
		Signature:       "sig_1",
		BookingID:       "b-1",
		CustomBookingID: "BK-100",
		Timestamp:       created.UnixMilli(),
	}
}

// newTestReconciler wires a reconciler to fakes with an attempt persisted
// `age` ago.
func newTestReconciler(age time.Duration) (*PaymentReconciler, *fakeBackend, *memStore, *fakeClock) {
	clock := &fakeClock{t: testNow}
	store := newMemStore()
	store.records[repositories.PendingPaymentKey] = testAttempt(testNow.Add(-age))
	backend := &fakeBackend{}
	r := NewPaymentReconciler(backend, store, "", ReconcilerOptions{Now: clock.Now})
	return r, backend, store, clock
}
