// Package cart holds the session shopping cart: line items keyed by product
// and selected options, stock ceilings on additions, and totals computed at
// read time.
package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrStockExceeded   = errors.New("requested quantity exceeds available stock")
	ErrItemNotFound    = errors.New("item not in cart")
	ErrCorrupt         = errors.New("stored cart is corrupt")
)

// Store is an ordered list of line items. The zero value is not usable; call
// New or Restore.
type Store struct {
	mu    sync.Mutex
	items []LineItem
}

func New() *Store {
	return &Store{}
}

// Restore decodes a previously encoded cart. Unparseable or invalid data
// yields an empty store together with ErrCorrupt; the store is usable either
// way.
func Restore(data []byte) (*Store, error) {
	s := New()
	if len(data) == 0 {
		return s, nil
	}
	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return s, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	seen := make(map[Identity]bool, len(items))
	for _, it := range items {
		id := it.Identity()
		if it.ProductID == "" || it.Quantity <= 0 || seen[id] {
			return s, fmt.Errorf("%w: bad line %q", ErrCorrupt, id)
		}
		seen[id] = true
	}
	s.items = items
	return s, nil
}

// Encode serialises the line items as a JSON array.
func (s *Store) Encode() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.items)
}

func (s *Store) MarshalJSON() ([]byte, error) { return s.Encode() }

// Add puts qty units of item into the cart. item.Stock is the ceiling for the
// line's total quantity; an add that would cross it is rejected whole.
func (s *Store) Add(item LineItem, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := item.Identity()
	if i := s.indexOf(id); i >= 0 {
		cur := &s.items[i]
		if cur.Quantity+qty > item.Stock {
			return ErrStockExceeded
		}
		cur.Quantity += qty
		cur.Stock = item.Stock
		return nil
	}
	if qty > item.Stock {
		return ErrStockExceeded
	}
	item.SelectedOptions = cloneOptions(item.SelectedOptions)
	item.Quantity = qty
	s.items = append(s.items, item)
	return nil
}

// Remove deletes the line; it reports whether anything was removed.
func (s *Store) Remove(id Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeAt(s.indexOf(id))
}

// SetQuantity replaces a line's quantity. Zero or less removes the line.
func (s *Store) SetQuantity(id Identity, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return ErrItemNotFound
	}
	if qty <= 0 {
		s.removeAt(i)
		return nil
	}
	if qty > s.items[i].Stock {
		return ErrStockExceeded
	}
	s.items[i].Quantity = qty
	return nil
}

// Decrement lowers a line's quantity by one, removing it at zero.
func (s *Store) Decrement(id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return ErrItemNotFound
	}
	if s.items[i].Quantity <= 1 {
		s.removeAt(i)
		return nil
	}
	s.items[i].Quantity--
	return nil
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LineItem, len(s.items))
	for i, it := range s.items {
		it.SelectedOptions = cloneOptions(it.SelectedOptions)
		out[i] = it
	}
	return out
}

func (s *Store) Quantity(id Identity) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i].Quantity
	}
	return 0
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) Empty() bool { return s.Len() == 0 }

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// TotalPrice sums price × quantity over the current lines.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// TotalWeight sums per-unit weight × quantity; lines without a weight count
// as zero.
func (s *Store) TotalWeight() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, it := range s.items {
		if it.Weight.Valid {
			total = total.Add(it.Weight.Decimal.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
	}
	return total
}

func (s *Store) indexOf(id Identity) int {
	for i := range s.items {
		if s.items[i].Identity() == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeAt(i int) bool {
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	if len(s.items) == 0 {
		s.items = nil
	}
	return true
}
