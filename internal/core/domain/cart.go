package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrInvalidOptions  = errors.New("invalid line options")
)

// MaxLineQuantity bounds the quantity of a single row.
const MaxLineQuantity = 999

type (
	Grind string
	Size  string
)

const (
	GrindWhole    Grind = "entero"
	GrindEspresso Grind = "espresso"
	GrindFilter   Grind = "filtro"
	GrindPress    Grind = "prensa"
)

const (
	Size250g Size = "250g"
	Size500g Size = "500g"
	Size1kg  Size = "1kg"
)

// Valid reports whether g is a known grind. Empty means not chosen.
func (g Grind) Valid() bool {
	switch g {
	case "", GrindWhole, GrindEspresso, GrindFilter, GrindPress:
		return true
	}
	return false
}

// Valid reports whether s is a known size. Empty means not chosen.
func (s Size) Valid() bool {
	switch s {
	case "", Size250g, Size500g, Size1kg:
		return true
	}
	return false
}

type LineOptions struct {
	Grind Grind
	Size  Size
}

func (o LineOptions) Validate() error {
	if !o.Grind.Valid() {
		return fmt.Errorf("%w: unknown grind %q", ErrInvalidOptions, o.Grind)
	}
	if !o.Size.Valid() {
		return fmt.Errorf("%w: unknown size %q", ErrInvalidOptions, o.Size)
	}
	return nil
}

type LineItem struct {
	Product  Product
	Quantity int
	Options  LineOptions
}

// PricingRules are the jurisdiction constants used to derive totals.
type PricingRules struct {
	TaxRate               float64
	FreeShippingThreshold float64
	ShippingFee           float64
}

func DefaultPricingRules() PricingRules {
	return PricingRules{
		TaxRate:               0.12,
		FreeShippingThreshold: 500,
		ShippingFee:           35,
	}
}

type Totals struct {
	Subtotal float64
	Tax      float64
	Shipping float64
	Total    float64
}

// A Cart holds one row per product in insertion order and derives
// monetary totals on every call. Amounts are never rounded here.
//
// Cart is not safe for concurrent use.
type Cart struct {
	rules PricingRules
	order []string
	items map[string]LineItem
}

func NewCart(rules PricingRules) *Cart {
	return &Cart{
		rules: rules,
		items: make(map[string]LineItem),
	}
}

// AddItem increments the row of an already present product or appends
// a new one. Options of an existing row are kept unless opts sets them.
func (c *Cart) AddItem(p Product, quantity int, opts LineOptions) error {
	const op = "Cart.AddItem"

	if quantity <= 0 || quantity > MaxLineQuantity {
		return fmt.Errorf("%s: %w", op, ErrInvalidQuantity)
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	li, ok := c.items[p.ID]
	if !ok {
		c.order = append(c.order, p.ID)
		c.items[p.ID] = LineItem{Product: p, Quantity: quantity, Options: opts}
		return nil
	}

	if li.Quantity > MaxLineQuantity-quantity {
		return fmt.Errorf(
			"%s: %w: row would exceed %d", op, ErrInvalidQuantity, MaxLineQuantity,
		)
	}
	li.Quantity += quantity
	if opts.Grind != "" {
		li.Options.Grind = opts.Grind
	}
	if opts.Size != "" {
		li.Options.Size = opts.Size
	}
	c.items[p.ID] = li
	return nil
}

// UpdateQuantity sets the row quantity. A non-positive quantity removes
// the row and an unknown product is ignored.
func (c *Cart) UpdateQuantity(productID string, quantity int) error {
	const op = "Cart.UpdateQuantity"

	if quantity > MaxLineQuantity {
		return fmt.Errorf("%s: %w", op, ErrInvalidQuantity)
	}

	li, ok := c.items[productID]
	if !ok {
		return nil
	}
	if quantity <= 0 {
		c.RemoveItem(productID)
		return nil
	}
	li.Quantity = quantity
	c.items[productID] = li
	return nil
}

func (c *Cart) RemoveItem(productID string) {
	if _, ok := c.items[productID]; !ok {
		return
	}
	delete(c.items, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *Cart) Clear() {
	c.order = nil
	c.items = make(map[string]LineItem)
}

func (c *Cart) IsEmpty() bool {
	return len(c.order) == 0
}

// Items returns a copy of the rows in insertion order.
func (c *Cart) Items() []LineItem {
	items := make([]LineItem, 0, len(c.order))
	for _, id := range c.order {
		items = append(items, c.items[id])
	}
	return items
}

func (c *Cart) Item(productID string) (LineItem, bool) {
	li, ok := c.items[productID]
	return li, ok
}

// ItemCount is the sum of quantities, not the number of rows.
func (c *Cart) ItemCount() int {
	var n int
	for _, li := range c.items {
		n += li.Quantity
	}
	return n
}

func (c *Cart) LineTotal(li LineItem) float64 {
	return li.Product.EffectivePrice() * float64(li.Quantity)
}

func (c *Cart) Subtotal() float64 {
	var sum float64
	for _, id := range c.order {
		sum += c.LineTotal(c.items[id])
	}
	return sum
}

func (c *Cart) Tax() float64 {
	return c.Subtotal() * c.rules.TaxRate
}

// Shipping is free only when the subtotal is strictly above the threshold.
func (c *Cart) Shipping() float64 {
	return c.rules.shipping(c.Subtotal())
}

func (c *Cart) Total() float64 {
	return c.Totals().Total
}

func (c *Cart) Totals() Totals {
	subtotal := c.Subtotal()
	tax := subtotal * c.rules.TaxRate
	shipping := c.rules.shipping(subtotal)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal + tax + shipping,
	}
}

func (r PricingRules) shipping(subtotal float64) float64 {
	if subtotal > r.FreeShippingThreshold {
		return 0
	}
	return r.ShippingFee
}
