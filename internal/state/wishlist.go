package state

import (
	"slices"
	"sync"

	"github.com/atinyakov/storefront/internal/models"
	"go.uber.org/zap"
)

// Wishlist is a set of saved products keyed by id.
type Wishlist struct {
	mu    sync.Mutex
	items []models.WishlistEntry
	repo  *Repository[[]models.WishlistEntry]
	log   *zap.Logger
}

func openWishlist(store Store, log *zap.Logger) (*Wishlist, error) {
	repo := NewRepository[[]models.WishlistEntry](store, KeyWishlist, log)
	items, err := repo.Load()
	if err != nil {
		return nil, err
	}
	w := &Wishlist{repo: repo, log: log}
	for _, e := range items {
		if w.index(e.ID) < 0 {
			w.items = append(w.items, e)
		}
	}
	return w, nil
}

// AddItem appends entry unless its id is already saved.
func (w *Wishlist) AddItem(entry models.WishlistEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.index(entry.ID) >= 0 {
		return nil
	}
	w.items = append(w.items, entry)
	return w.persist()
}

// RemoveItem deletes the entry with id if present.
func (w *Wishlist) RemoveItem(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.index(id)
	if i < 0 {
		return nil
	}
	w.items = slices.Delete(w.items, i, i+1)
	return w.persist()
}

// Toggle removes entry if saved and adds it otherwise. It reports whether the
// entry is saved afterwards.
func (w *Wishlist) Toggle(entry models.WishlistEntry) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i := w.index(entry.ID); i >= 0 {
		w.items = slices.Delete(w.items, i, i+1)
		return false, w.persist()
	}
	w.items = append(w.items, entry)
	return true, w.persist()
}

// Contains reports whether id is saved.
func (w *Wishlist) Contains(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index(id) >= 0
}

// Items returns a copy of the saved entries.
func (w *Wishlist) Items() []models.WishlistEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.items)
}

// Count is the number of saved entries.
func (w *Wishlist) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.items)
}

// Clear removes every entry and the persisted entry.
func (w *Wishlist) Clear() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.items = nil
	return w.repo.Clear()
}

func (w *Wishlist) index(id string) int {
	return slices.IndexFunc(w.items, func(e models.WishlistEntry) bool { return e.ID == id })
}

func (w *Wishlist) persist() error {
	items := w.items
	if items == nil {
		items = []models.WishlistEntry{}
	}
	if err := w.repo.Save(items); err != nil {
		w.log.Warn("wishlist not persisted", zap.Error(err))
		return err
	}
	return nil
}
