package memory

import (
	"context"
	"sync"

	"github.com/dmehra2102/prod-golang-projects/order-ingestor/internal/domain"
)

// Store keeps orders in a map keyed by order id. Writes to the same id
// replace the previous record.
type Store struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
	puts   int
}

func New() *Store {
	return &Store{orders: make(map[string]domain.Order)}
}

func (s *Store) Put(ctx context.Context, orderID string, order domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.orders[orderID] = order.Clone()
	s.puts++
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the stored order.
func (s *Store) Get(_ context.Context, orderID string) (domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, false
	}
	return o.Clone(), true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// Puts reports how many writes the store has accepted, including overwrites.
func (s *Store) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}

// Snapshot returns copies of every stored order.
func (s *Store) Snapshot() map[string]domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.Order, len(s.orders))
	for id, o := range s.orders {
		out[id] = o.Clone()
	}
	return out
}
