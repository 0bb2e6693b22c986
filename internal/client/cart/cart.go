// Package cart holds the client-side shopping cart. The cart is a purely
// local aggregate: every mutation writes the serialized item list to the
// durable store before returning, so a restarted client resumes where it
// left off.
package cart

import (
	"encoding/json"
	"fmt"

	"github.com/zsimmons25/see-more/internal/client/api"
	"github.com/zsimmons25/see-more/internal/client/storage"
)

type Cart struct {
	store storage.Store
	items []api.LineItem
}

// New loads any persisted cart from the store. A missing or unreadable
// value yields an empty cart, never an error: the cart is a convenience
// cache and losing it must not break the client.
func New(store storage.Store) *Cart {
	c := &Cart{store: store}

	raw, ok, err := store.Get(storage.KeyCart)
	if err != nil || !ok {
		return c
	}
	var items []api.LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return c
	}
	c.items = items
	return c
}

// AddItem merges by product id: an existing entry has its quantity
// incremented, a new product is appended. Quantity bounds are enforced at
// order submission, not here.
func (c *Cart) AddItem(item api.LineItem) error {
	for i := range c.items {
		if c.items[i].ProductID == item.ProductID {
			c.items[i].Quantity += item.Quantity
			return c.persist()
		}
	}
	c.items = append(c.items, item)
	return c.persist()
}

func (c *Cart) RemoveItem(productID int64) error {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return c.persist()
		}
	}
	return c.persist()
}

// UpdateQuantity sets the quantity verbatim. A non-positive quantity removes
// the entry. Unknown product ids are ignored.
func (c *Cart) UpdateQuantity(productID int64, quantity int) error {
	if quantity <= 0 {
		return c.RemoveItem(productID)
	}
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Quantity = quantity
			break
		}
	}
	return c.persist()
}

// Clear empties the cart and deletes the stored key outright.
func (c *Cart) Clear() error {
	c.items = nil
	if err := c.store.Delete(storage.KeyCart); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// Items returns a copy of the current entries in insertion order.
func (c *Cart) Items() []api.LineItem {
	return append([]api.LineItem(nil), c.items...)
}

func (c *Cart) ItemCount() int {
	count := 0
	for _, item := range c.items {
		count += item.Quantity
	}
	return count
}

func (c *Cart) Total() float64 {
	total := 0.0
	for _, item := range c.items {
		total += float64(item.Quantity) * item.UnitPrice
	}
	return total
}

func (c *Cart) persist() error {
	items := c.items
	if items == nil {
		items = []api.LineItem{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to serialize cart: %w", err)
	}
	if err := c.store.Set(storage.KeyCart, string(payload)); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	return nil
}
