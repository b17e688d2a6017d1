package cart

import (
	"sync"

	"github.com/example/bookshop-client/internal/domain"
	"github.com/example/bookshop-client/internal/persist"
)

// Store holds the shopping cart for the current session. All mutations are
// purely local and synchronous; the persisted mirror is written best-effort
// after every change. There is at most one item per distinct book id.
type Store struct {
	mu    sync.Mutex
	items []domain.CartItem
	save  persist.Adapter
}

// New builds a Store, restoring any persisted cart.
func New(save persist.Adapter) *Store {
	s := &Store{save: save}
	var items []domain.CartItem
	if persist.LoadJSON(save, persist.KeyCart, &items) {
		s.items = items
	}
	return s
}

// AddItem puts a book in the cart. If it is already present its quantity is
// incremented; otherwise a new line is appended with quantity 1 using the
// price/image snapshot supplied now.
func (s *Store) AddItem(b domain.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == b.ID {
			s.items[i].Quantity++
			s.persist()
			return
		}
	}
	s.items = append(s.items, domain.CartItem{
		ID:       b.ID,
		Title:    b.Title,
		Author:   b.Author,
		Price:    b.Price,
		Image:    b.Image,
		Quantity: 1,
	})
	s.persist()
}

// UpdateQuantity adds delta to the item's quantity, floored at 1. Dropping
// an item is only possible through RemoveItem.
func (s *Store) UpdateQuantity(id string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			q := s.items[i].Quantity + delta
			if q < 1 {
				q = 1
			}
			s.items[i].Quantity = q
			s.persist()
			return
		}
	}
}

// RemoveItem deletes the item regardless of quantity.
func (s *Store) RemoveItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.persist()
			return
		}
	}
}

// Clear empties the cart, e.g. after checkout initiation.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.persist()
}

// Items returns a copy of the current lines in insertion order.
func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// Subtotal is recomputed on every call, never cached.
func (s *Store) Subtotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0.0
	for _, item := range s.items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// TotalItems is the sum of quantities across all lines.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, item := range s.items {
		n += item.Quantity
	}
	return n
}

// persist mirrors the cart; callers hold the lock.
func (s *Store) persist() {
	persist.SaveJSON(s.save, persist.KeyCart, s.items)
}
