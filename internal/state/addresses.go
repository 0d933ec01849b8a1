package state

import (
	"slices"
	"sync"

	"github.com/atinyakov/storefront/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Addresses is the address book. When it is not empty exactly one address is
// the default.
type Addresses struct {
	mu    sync.Mutex
	items []models.Address
	repo  *Repository[[]models.Address]
	log   *zap.Logger
}

func openAddresses(store Store, log *zap.Logger) (*Addresses, error) {
	repo := NewRepository[[]models.Address](store, KeyAddresses, log)
	items, err := repo.Load()
	if err != nil {
		return nil, err
	}
	a := &Addresses{items: items, repo: repo, log: log}
	a.normalize()
	return a, nil
}

// Add stores addr with a fresh id. The first address, or one flagged as
// default, becomes the default.
func (a *Addresses) Add(addr models.Address) (models.Address, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	addr.ID = uuid.NewString()
	if len(a.items) == 0 {
		addr.IsDefault = true
	}
	a.items = append(a.items, addr)
	if addr.IsDefault {
		a.makeDefault(addr.ID)
	}
	return addr, a.persist()
}

// Update replaces the address with the same id. It reports whether the
// address was found. The default address stays default.
func (a *Addresses) Update(addr models.Address) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.index(addr.ID)
	if i < 0 {
		return false, nil
	}
	wasDefault := a.items[i].IsDefault
	a.items[i] = addr
	if addr.IsDefault || wasDefault {
		a.makeDefault(addr.ID)
	}
	return true, a.persist()
}

// Remove deletes the address with id. Removing the default promotes the first
// remaining address.
func (a *Addresses) Remove(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.index(id)
	if i < 0 {
		return nil
	}
	a.items = slices.Delete(a.items, i, i+1)
	a.normalize()
	return a.persist()
}

// SetDefault makes id the default address. It reports whether id was found.
func (a *Addresses) SetDefault(id string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.index(id) < 0 {
		return false, nil
	}
	a.makeDefault(id)
	return true, a.persist()
}

// Default returns the default address.
func (a *Addresses) Default() (models.Address, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, addr := range a.items {
		if addr.IsDefault {
			return addr, true
		}
	}
	return models.Address{}, false
}

// Get returns the address with id.
func (a *Addresses) Get(id string) (models.Address, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i := a.index(id); i >= 0 {
		return a.items[i], true
	}
	return models.Address{}, false
}

// Items returns a copy of the address book.
func (a *Addresses) Items() []models.Address {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.items)
}

// Clear removes every address and the persisted entry.
func (a *Addresses) Clear() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = nil
	return a.repo.Clear()
}

func (a *Addresses) makeDefault(id string) {
	for i := range a.items {
		a.items[i].IsDefault = a.items[i].ID == id
	}
}

// normalize restores the single-default invariant.
func (a *Addresses) normalize() {
	if len(a.items) == 0 {
		return
	}
	def := slices.IndexFunc(a.items, func(x models.Address) bool { return x.IsDefault })
	if def < 0 {
		def = 0
	}
	a.makeDefault(a.items[def].ID)
}

func (a *Addresses) index(id string) int {
	return slices.IndexFunc(a.items, func(x models.Address) bool { return x.ID == id })
}

func (a *Addresses) persist() error {
	items := a.items
	if items == nil {
		items = []models.Address{}
	}
	if err := a.repo.Save(items); err != nil {
		a.log.Warn("address book not persisted", zap.Error(err))
		return err
	}
	return nil
}
