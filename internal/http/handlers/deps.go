package handlers

import (
	"context"
	"sync"

	"storefront/internal/pricing"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

// Deps are the long-lived collaborators handlers build services from.
type Deps struct {
	Items    services.ItemSource
	Cache    repositories.ItemCache
	Resolver pricing.Resolver
	Bookings services.BookingReader
	Orders   services.OrderCreator
	Registry *services.ReconcilerRegistry
	Retry    *services.RetryManager
	Currency string
	// BaseCtx outlives requests; background pollers run under it.
	BaseCtx context.Context
	Checks  map[string]func(context.Context) error
}

var (
	depsMu  sync.RWMutex
	current Deps
)

// Configure installs the collaborators used by every handler.
func Configure(d Deps) {
	depsMu.Lock()
	defer depsMu.Unlock()
	current = d
}

func deps() Deps {
	depsMu.RLock()
	defer depsMu.RUnlock()
	return current
}

func (d Deps) baseCtx() context.Context {
	if d.BaseCtx != nil {
		return d.BaseCtx
	}
	return context.Background()
}
