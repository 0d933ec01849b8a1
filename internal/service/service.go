// Package service provides the storefront business logic that sits on top of
// the session state: sign-in, checkout pricing and order placement, order
// history and shipment tracking. Services hold no per-session data; the
// session's state is passed to every call.
package service

import (
	"context"
	"time"

	"github.com/atinyakov/storefront/internal/models"
)

// SessionState is the part of the session state the auth service drives.
type SessionState interface {
	Login(email, password string) (models.User, error)
	Register(name, email, password string) (models.User, error)
	UpdateProfile(name, email string) (models.User, error)
	Logout() error
}

// CartState is the part of the cart that checkout reads and clears.
type CartState interface {
	Items() []models.CartLine
	Total() float64
	Clear() error
}

// OrderBook is the order history of a session.
type OrderBook interface {
	Record(order models.Order) error
	Find(number string) (models.Order, bool)
	Items() []models.Order
}

// wait blocks for d or until ctx is done. It stands in for the latency of
// the backend the storefront pretends to talk to.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
