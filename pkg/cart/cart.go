// Package cart keeps the line items of the transaction being rung up.
//
// A Cart holds at most one line item per product type. Quantities start at 1
// and an item leaves the cart when its quantity reaches zero.
package cart

import (
	"fmt"

	"github.com/samber/lo"

	"posterminal/pkg/audio"
	"posterminal/pkg/catalog"
	"posterminal/pkg/errs"
)

// LineItem is one product type in the cart. Name, image and price are
// copied from the product when it is first added.
type LineItem struct {
	ProductType int     `json:"productType"`
	Name        string  `json:"name"`
	Image       string  `json:"image"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"qty"`
}

// Subtotal is Quantity × Price.
func (li LineItem) Subtotal() float64 {
	return float64(li.Quantity) * li.Price
}

// Cart is an ordered list of line items. The zero value is an empty cart.
// It is not safe for concurrent use; the terminal session serializes access.
type Cart struct {
	items []LineItem
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add puts one unit of p in the cart and returns the cue to play. A product
// without a name is listed under its item type name.
func (c *Cart) Add(p catalog.Product) audio.Cue {
	if i := c.index(p.Type); i >= 0 {
		c.items[i].Quantity++
		return audio.CueConfirm
	}
	name := p.Name
	if name == "" {
		name = catalog.ItemType(p.Type).String()
	}
	c.items = append(c.items, LineItem{
		ProductType: p.Type,
		Name:        name,
		Image:       p.Image,
		Price:       p.Price,
		Quantity:    1,
	})
	return audio.CueConfirm
}

// Adjust adds delta to the quantity of the line item for productType.
// A result of exactly zero removes the item. A product type that is not in
// the cart yields errs.ErrNotFound and a result below zero yields
// errs.ErrValidation; in both cases the cart is left untouched.
func (c *Cart) Adjust(productType, delta int) (audio.Cue, error) {
	i := c.index(productType)
	if i < 0 {
		return audio.CueNone, fmt.Errorf("%w: product type %d not in cart", errs.ErrNotFound, productType)
	}
	after := c.items[i].Quantity + delta
	switch {
	case after < 0:
		return audio.CueNone, fmt.Errorf("%w: quantity of product type %d would be %d", errs.ErrValidation, productType, after)
	case after == 0:
		c.items = append(c.items[:i], c.items[i+1:]...)
		return audio.CueClear, nil
	default:
		c.items[i].Quantity = after
		return audio.CueConfirm, nil
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []LineItem {
	return append([]LineItem(nil), c.items...)
}

// Get returns the line item for productType.
func (c *Cart) Get(productType int) (LineItem, bool) {
	if i := c.index(productType); i >= 0 {
		return c.items[i], true
	}
	return LineItem{}, false
}

// Len is the number of distinct line items.
func (c *Cart) Len() int {
	return len(c.items)
}

// Count is the number of units across all line items.
func (c *Cart) Count() int {
	return lo.SumBy(c.items, func(li LineItem) int { return li.Quantity })
}

// Empty reports whether the cart has no line items.
func (c *Cart) Empty() bool {
	return len(c.items) == 0
}

func (c *Cart) index(productType int) int {
	_, i, ok := lo.FindIndexOf(c.items, func(li LineItem) bool {
		return li.ProductType == productType
	})
	if !ok {
		return -1
	}
	return i
}
