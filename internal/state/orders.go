package state

import (
	"slices"
	"strings"
	"sync"

	"github.com/atinyakov/storefront/internal/models"
	"go.uber.org/zap"
)

// Orders is the history of orders placed in this session.
type Orders struct {
	mu    sync.Mutex
	items []models.Order
	repo  *Repository[[]models.Order]
	log   *zap.Logger
}

func openOrders(store Store, log *zap.Logger) (*Orders, error) {
	repo := NewRepository[[]models.Order](store, KeyOrders, log)
	items, err := repo.Load()
	if err != nil {
		return nil, err
	}
	return &Orders{items: items, repo: repo, log: log}, nil
}

// Record appends o to the history.
func (o *Orders) Record(order models.Order) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.items = append(o.items, order)
	if err := o.repo.Save(o.items); err != nil {
		o.log.Warn("order history not persisted", zap.Error(err))
		return err
	}
	return nil
}

// Find returns the order whose order number or tracking number matches
// number, ignoring case.
func (o *Orders) Find(number string) (models.Order, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, ord := range o.items {
		if strings.EqualFold(ord.OrderNumber, number) || (ord.TrackingNumber != "" && strings.EqualFold(ord.TrackingNumber, number)) {
			return ord, true
		}
	}
	return models.Order{}, false
}

// Items returns a copy of the history in the order it was recorded.
func (o *Orders) Items() []models.Order {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.items)
}

// Clear removes the history and its persisted entry.
func (o *Orders) Clear() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.items = nil
	return o.repo.Clear()
}
