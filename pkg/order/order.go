// Package order persists confirmed orders.
//
// Every Store assigns ids starting at 1 with no gaps, atomically with the
// append, so concurrent sessions never share or skip an id.
package order

import (
	"context"
	"errors"
	"time"

	"github.com/teslashibe/go-drivethru/pkg/cart"
	"github.com/teslashibe/go-drivethru/pkg/menu"
)

// StatusConfirmed is the only status an order is created with.
const StatusConfirmed = "confirmed"

// Sentinel errors.
var (
	ErrEmptyOrder = errors.New("order: cart is empty")
	ErrClosed     = errors.New("order: store closed")
)

// Order is an immutable snapshot of a finalized cart.
type Order struct {
	ID        int64       `json:"id"`
	Items     []cart.Line `json:"items"`
	Total     menu.Money  `json:"total"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// Store is an append-only list of orders.
type Store interface {
	// Append turns snap into a confirmed order with the next id.
	Append(ctx context.Context, snap cart.Snapshot) (Order, error)
	// List returns all orders in id order.
	List(ctx context.Context) ([]Order, error)
	Close() error
}

// build fills everything except the id.
func build(snap cart.Snapshot, now time.Time) (Order, error) {
	if len(snap.Items) == 0 {
		return Order{}, ErrEmptyOrder
	}
	items := make([]cart.Line, len(snap.Items))
	copy(items, snap.Items)
	return Order{
		Items:     items,
		Total:     snap.Total,
		Status:    StatusConfirmed,
		CreatedAt: now.UTC(),
	}, nil
}
