package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"storefront/internal/repositories"

	"github.com/sirupsen/logrus"
)

// ReconcilerRegistry hands out one PaymentReconciler per browser session,
// each bound to its own attempt key. A session's reconciler is only
// replaced once nobody holds it and it has no call or poller running, so
// two reconcilers never work the same key in one process.
type ReconcilerRegistry struct {
	Backend BookingBackend
	Store   repositories.AttemptStore
	Locker  repositories.AttemptLocker
	Options ReconcilerOptions
	Retry   *RetryManager

	mu    sync.Mutex
	items map[string]*registryEntry
}

type registryEntry struct {
	r    *PaymentReconciler
	refs int
}

func (e *registryEntry) idle() bool {
	return e.refs == 0 && !e.r.Busy() && !e.r.Polling()
}

func NewReconcilerRegistry(backend BookingBackend, store repositories.AttemptStore, opts ReconcilerOptions, retry *RetryManager) *ReconcilerRegistry {
	return &ReconcilerRegistry{
		Backend: backend,
		Store:   store,
		Options: opts,
		Retry:   retry,
		items:   map[string]*registryEntry{},
	}
}

// Acquire returns the session's reconciler, creating it on first use, and
// holds it until done is called. A held reconciler is never released or
// swept. done may be called more than once.
func (g *ReconcilerRegistry) Acquire(sessionID string) (*PaymentReconciler, func()) {
	sessionID = strings.TrimSpace(sessionID)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.items == nil {
		g.items = map[string]*registryEntry{}
	}
	e, ok := g.items[sessionID]
	if !ok {
		r := NewPaymentReconciler(g.Backend, g.Store, repositories.SessionAttemptKey(sessionID), g.Options)
		r.Locker = g.Locker
		e = &registryEntry{r: r}
		g.items[sessionID] = e
	}
	e.refs++

	var once sync.Once
	return e.r, func() {
		once.Do(func() {
			g.mu.Lock()
			e.refs--
			g.mu.Unlock()
		})
	}
}

// Lookup returns the session's reconciler without creating or holding it.
func (g *ReconcilerRegistry) Lookup(sessionID string) (*PaymentReconciler, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.items[strings.TrimSpace(sessionID)]
	if !ok {
		return nil, false
	}
	return e.r, true
}

// Release stops the session's poller and forgets its reconciler unless it
// is still held or has a call in flight. It reports whether the
// reconciler was forgotten. The persisted attempt is left alone.
func (g *ReconcilerRegistry) Release(sessionID string) bool {
	sessionID = strings.TrimSpace(sessionID)
	r, ok := g.Lookup(sessionID)
	if !ok {
		return false
	}
	r.StopPolling()

	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.items[sessionID]
	if !ok || e.r != r || !e.idle() {
		return false
	}
	delete(g.items, sessionID)
	return true
}

func (g *ReconcilerRegistry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.items)
}

// Sweep drops reconcilers that reached a terminal state or never got an
// attempt, and are neither held, busy nor polling. It returns how many were removed.
func (g *ReconcilerRegistry) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	removed := 0
	for id, e := range g.items {
		if !e.idle() {
			continue
		}
		if s := e.r.State(); s.Terminal() || s == StateIdle {
			delete(g.items, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx ends.
func (g *ReconcilerRegistry) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logrus.Info("Reconciler sweeper started")
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Reconciler sweeper stopped")
			return
		case <-ticker.C:
			if n := g.Sweep(); n > 0 {
				logrus.Debugf("Released %d finished reconcilers", n)
			}
		}
	}
}

// Close stops every running poller.
func (g *ReconcilerRegistry) Close() {
	g.mu.Lock()
	all := make([]*PaymentReconciler, 0, len(g.items))
	for _, e := range g.items {
		all = append(all, e.r)
	}
	g.items = map[string]*registryEntry{}
	g.mu.Unlock()

	for _, r := range all {
		r.StopPolling()
	}
}
