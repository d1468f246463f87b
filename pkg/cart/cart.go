// Package cart holds the per-session shopping cart.
//
// A Cart keeps at most one line per canonical item name and never stores a
// line with a quantity below one. It is owned by a single session and is not
// safe for concurrent use.
package cart

import (
	"github.com/teslashibe/go-drivethru/pkg/menu"
)

// MaxQuantity is the most units a single line can hold.
const MaxQuantity = 99

// Line is one cart row. Price is the unit price.
type Line struct {
	Name     string     `json:"name"`
	Quantity int        `json:"quantity"`
	Price    menu.Money `json:"price"`
	Image    string     `json:"image"`
}

// Subtotal returns Price × Quantity.
func (l Line) Subtotal() menu.Money {
	return l.Price.Times(l.Quantity)
}

// Snapshot is an immutable copy of the cart with its total.
type Snapshot struct {
	Items []Line     `json:"items"`
	Total menu.Money `json:"total"`
}

// Cart is an ordered list of lines keyed by canonical name.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

func (c *Cart) index(name string) int {
	for i := range c.lines {
		if c.lines[i].Name == name {
			return i
		}
	}
	return -1
}

// Add merges qty of it into the cart. A quantity of zero or less counts as one,
// and a line never holds more than MaxQuantity.
// Existing lines keep their position; new lines are appended with the catalog
// price and image. The resulting line is returned.
func (c *Cart) Add(it menu.Item, qty int) Line {
	if qty <= 0 {
		qty = 1
	}
	qty = min(qty, MaxQuantity)
	if i := c.index(it.Name); i >= 0 {
		c.lines[i].Quantity = min(c.lines[i].Quantity+qty, MaxQuantity)
		return c.lines[i]
	}
	l := Line{Name: it.Name, Quantity: qty, Price: it.Price, Image: it.Image}
	c.lines = append(c.lines, l)
	return l
}

// Remove decrements the line for name by qty (zero or less counts as one) and
// deletes it once the quantity drops to zero. It reports whether a line existed.
func (c *Cart) Remove(name string, qty int) bool {
	if qty <= 0 {
		qty = 1
	}
	i := c.index(name)
	if i < 0 {
		return false
	}
	c.lines[i].Quantity -= qty
	if c.lines[i].Quantity <= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Quantity returns the quantity held for name, zero when absent.
func (c *Cart) Quantity(name string) int {
	if i := c.index(name); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int { return len(c.lines) }

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Total returns the exact sum of line subtotals.
func (c *Cart) Total() menu.Money {
	var t menu.Money
	for _, l := range c.lines {
		t += l.Subtotal()
	}
	return t
}

// Snapshot copies the current state. Items is never nil so it encodes as [].
func (c *Cart) Snapshot() Snapshot {
	return Snapshot{Items: c.Lines(), Total: c.Total()}
}
