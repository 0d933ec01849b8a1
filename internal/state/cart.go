package state

import (
	"math"
	"slices"
	"sync"

	"github.com/atinyakov/storefront/internal/models"
	"go.uber.org/zap"
)

// Cart is the ordered list of line items. No two lines share an identity key,
// every stored quantity is >= 1 and every price is >= 0.
type Cart struct {
	mu    sync.Mutex
	items []models.CartLine
	repo  *Repository[[]models.CartLine]
	log   *zap.Logger
}

func openCart(store Store, log *zap.Logger) (*Cart, error) {
	repo := NewRepository[[]models.CartLine](store, KeyCart, log)
	items, err := repo.Load()
	if err != nil {
		return nil, err
	}
	c := &Cart{repo: repo, log: log}
	// Stored data is rebuilt line by line so a hand-edited or stale snapshot
	// cannot break the identity and quantity invariants.
	for _, l := range items {
		if !storable(l) {
			continue
		}
		c.merge(l.CartItem, l.Quantity)
	}
	return c, nil
}

// AddItem adds quantity units of item. An existing line with the same
// (id, variant) is incremented in place; otherwise a new line is appended.
func (c *Cart) AddItem(item models.CartItem, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if !validPrice(item.Price) {
		return ErrInvalidPrice
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.merge(item, quantity)
	return c.persist()
}

// Replace rebuilds the cart from lines, merging duplicates and dropping
// lines with a non-positive quantity or a negative price.
func (c *Cart) Replace(lines []models.CartLine) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	for _, l := range lines {
		if !storable(l) {
			continue
		}
		c.merge(l.CartItem, l.Quantity)
	}
	return c.persist()
}

// UpdateQuantity sets the quantity of the (id, variant) line. A quantity <= 0
// removes the line. A missing line is left alone.
func (c *Cart) UpdateQuantity(id, variant string, quantity int) error {
	if quantity <= 0 {
		return c.RemoveItem(id, variant)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(models.LineKey{ID: id, Variant: variant})
	if i < 0 {
		return nil
	}
	c.items[i].Quantity = quantity
	return c.persist()
}

// RemoveItem deletes the (id, variant) line if present.
func (c *Cart) RemoveItem(id, variant string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(models.LineKey{ID: id, Variant: variant})
	if i < 0 {
		return nil
	}
	c.items = slices.Delete(c.items, i, i+1)
	return c.persist()
}

// Clear empties the cart and removes its persisted entry.
func (c *Cart) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	if err := c.repo.Clear(); err != nil {
		c.log.Warn("cart clear not persisted", zap.Error(err))
		return err
	}
	return nil
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []models.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Total is the sum of price*quantity over all lines.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total float64
	for _, l := range c.items {
		total += l.Price * float64(l.Quantity)
	}
	return total
}

// ItemCount is the sum of quantities over all lines.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.items {
		n += l.Quantity
	}
	return n
}

func (c *Cart) merge(item models.CartItem, quantity int) {
	key := models.LineKey{ID: item.ID, Variant: item.Variant}
	if i := c.index(key); i >= 0 {
		c.items[i].Quantity += quantity
		return
	}
	c.items = append(c.items, models.CartLine{CartItem: item, Quantity: quantity})
}

func storable(l models.CartLine) bool {
	return l.Quantity >= 1 && validPrice(l.Price)
}

func validPrice(p float64) bool {
	return p >= 0 && !math.IsInf(p, 0)
}

func (c *Cart) index(key models.LineKey) int {
	return slices.IndexFunc(c.items, func(l models.CartLine) bool { return l.Key() == key })
}

func (c *Cart) persist() error {
	items := c.items
	if items == nil {
		items = []models.CartLine{}
	}
	if err := c.repo.Save(items); err != nil {
		c.log.Warn("cart not persisted", zap.Error(err))
		return err
	}
	return nil
}
