// Package state holds the storefront's client-side state: the session user,
// the cart, the wishlist, the address book and the order history. Every
// mutation updates the in-memory collection and then writes the whole
// collection back to a key-value Store.
package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Keys under which the collections are persisted.
const (
	KeyUser      = "user"
	KeyCart      = "cart"
	KeyWishlist  = "wishlist"
	KeyAddresses = "addresses"
	KeyOrders    = "orders"
)

var (
	// ErrPersist marks a mutation that was applied in memory but could not be
	// written to the store.
	ErrPersist = errors.New("state not persisted")
	// ErrInvalidQuantity is returned when a non-positive quantity is added to the cart.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	// ErrInvalidPrice is returned when an item with a negative price is added to the cart.
	ErrInvalidPrice = errors.New("price must not be negative")
	// ErrInvalidCredentials is returned by Login/Register when the email is empty.
	ErrInvalidCredentials = errors.New("email is required")
	// ErrNotLoggedIn is returned by operations that need a session user.
	ErrNotLoggedIn = errors.New("not logged in")
)

// Store is the persisted key-value layer. Implementations are synchronous and
// values are opaque strings.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
}

// Repository loads and saves one JSON-encoded collection under a single key.
type Repository[T any] struct {
	store Store
	key   string
	log   *zap.Logger
}

// NewRepository returns a repository for key on store.
func NewRepository[T any](store Store, key string, log *zap.Logger) *Repository[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository[T]{store: store, key: key, log: log}
}

// Load returns the stored collection. A missing entry yields the zero value.
// An entry that cannot be decoded is treated as missing.
func (r *Repository[T]) Load() (T, error) {
	var v T
	raw, ok, err := r.store.Get(r.key)
	if err != nil {
		return v, fmt.Errorf("load %s: %w", r.key, err)
	}
	if !ok || raw == "" {
		return v, nil
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		r.log.Warn("discarding undecodable state entry", zap.String("key", r.key), zap.Error(err))
		var zero T
		return zero, nil
	}
	return v, nil
}

// Save replaces the stored collection with v.
func (r *Repository[T]) Save(v T) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrPersist, r.key, err)
	}
	if err := r.store.Set(r.key, string(b)); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrPersist, r.key, err)
	}
	return nil
}

// Clear removes the stored entry.
func (r *Repository[T]) Clear() error {
	if err := r.store.Remove(r.key); err != nil {
		return fmt.Errorf("%w: remove %s: %w", ErrPersist, r.key, err)
	}
	return nil
}

// Key returns the store key of the repository.
func (r *Repository[T]) Key() string { return r.key }
