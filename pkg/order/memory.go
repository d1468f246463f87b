package order

import (
	"context"
	"sync"
	"time"

	"github.com/teslashibe/go-drivethru/pkg/cart"
)

// MemoryStore keeps orders in process memory. Orders are lost on restart.
type MemoryStore struct {
	mu     sync.Mutex
	orders []Order
	closed bool
	now    func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Append implements Store.
func (s *MemoryStore) Append(ctx context.Context, snap cart.Snapshot) (Order, error) {
	if err := ctx.Err(); err != nil {
		return Order{}, err
	}
	o, err := build(snap, s.now())
	if err != nil {
		return Order{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Order{}, ErrClosed
	}
	o.ID = int64(len(s.orders)) + 1
	s.orders = append(s.orders, o)
	return o, nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]Order, len(s.orders))
	copy(out, s.orders)
	return out, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
