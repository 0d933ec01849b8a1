package state

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// App is the storefront state container. It is built once per session with
// Open and handed to whatever needs it.
type App struct {
	Session   *Session
	Cart      *Cart
	Wishlist  *Wishlist
	Addresses *Addresses
	Orders    *Orders

	log *zap.Logger
}

// Option configures Open.
type Option func(*App)

// WithLogger sets the logger used for persistence warnings.
func WithLogger(log *zap.Logger) Option {
	return func(a *App) {
		if log != nil {
			a.log = log
		}
	}
}

// Open loads every collection from store once.
func Open(store Store, opts ...Option) (*App, error) {
	a := &App{log: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}

	var err error
	if a.Session, err = openSession(store, a.log); err != nil {
		return nil, err
	}
	if a.Cart, err = openCart(store, a.log); err != nil {
		return nil, err
	}
	if a.Wishlist, err = openWishlist(store, a.log); err != nil {
		return nil, err
	}
	if a.Addresses, err = openAddresses(store, a.log); err != nil {
		return nil, err
	}
	if a.Orders, err = openOrders(store, a.log); err != nil {
		return nil, err
	}
	return a, nil
}

// Reset logs out and clears every collection. All keys are attempted even if
// some removals fail.
func (a *App) Reset() error {
	var err error
	err = multierr.Append(err, a.Session.Logout())
	err = multierr.Append(err, a.Cart.Clear())
	err = multierr.Append(err, a.Wishlist.Clear())
	err = multierr.Append(err, a.Addresses.Clear())
	err = multierr.Append(err, a.Orders.Clear())
	return err
}
