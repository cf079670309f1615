// Package cart holds the ordered list of line items the customer is building
// and keeps it persisted under the deployment namespace.
package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"le-palanka/internal/logger"
	"le-palanka/internal/models"
	"le-palanka/internal/pricing"
	"le-palanka/internal/storage"
	"le-palanka/internal/validation"
)

// IndexError reports a removal that references no line item
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("cart index %d out of range [0,%d)", e.Index, e.Len)
}

// Listener is called with a snapshot after every successful mutation
type Listener func(items []models.LineItem)

type Store struct {
	mu        sync.Mutex
	store     storage.Store
	key       string
	items     []models.LineItem
	listeners []Listener
	logger    *logger.Logger
}

// NewStore creates an empty cart persisted under namespace. Call Load to
// restore a previously saved snapshot.
func NewStore(store storage.Store, namespace string, log *logger.Logger) *Store {
	return &Store{
		store:  store,
		key:    storage.Key(namespace, storage.CartKey),
		items:  []models.LineItem{},
		logger: log,
	}
}

// Load restores the persisted snapshot. Entries that break the line item
// invariants are dropped.
func (s *Store) Load(ctx context.Context) error {
	var saved []models.LineItem
	if _, err := storage.LoadJSON(ctx, s.store, s.key, &saved); err != nil {
		return err
	}

	items := make([]models.LineItem, 0, len(saved))
	seen := make(map[string]bool, len(saved))
	var subtotal int64
	for _, item := range saved {
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" || item.Quantity < 1 || seen[item.Name] ||
			!pricing.CanAdd(subtotal, item.UnitPrice, item.Quantity) {
			continue
		}
		seen[item.Name] = true
		subtotal += item.LineTotal()
		items = append(items, item)
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()

	s.logger.Info("cart_loaded", "Cart restored from storage", "startup", map[string]interface{}{
		"key":   s.key,
		"lines": len(items),
	})
	return nil
}

// OnChange registers l to be called after every successful mutation
func (s *Store) OnChange(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// AddItem increments the line named name, or appends it with quantity 1.
// Names are matched after trimming surrounding whitespace.
func (s *Store) AddItem(ctx context.Context, name string, unitPrice int64) error {
	name = strings.TrimSpace(name)

	var errs validation.Errors
	if name == "" {
		errs.Add("name", "name is required")
	}
	if unitPrice < 0 {
		errs.Add("price", "price must not be negative")
	} else if unitPrice > pricing.MaxSubtotal {
		errs.Add("price", "price is too large")
	}
	if err := errs.Err(); err != nil {
		return err
	}

	return s.mutate(ctx, "cart_item_added", func(items []models.LineItem) ([]models.LineItem, error) {
		subtotal := pricing.Subtotal(items)
		for i := range items {
			if items[i].Name == name {
				if !pricing.CanAdd(subtotal, items[i].UnitPrice, 1) {
					return nil, validation.New("price", "cart total would exceed the supported maximum")
				}
				items[i].Quantity++
				return items, nil
			}
		}
		if !pricing.CanAdd(subtotal, unitPrice, 1) {
			return nil, validation.New("price", "cart total would exceed the supported maximum")
		}
		return append(items, models.LineItem{Name: name, UnitPrice: unitPrice, Quantity: 1}), nil
	})
}



// RemoveOne decrements the line at index and deletes it when it reaches zero
func (s *Store) RemoveOne(ctx context.Context, index int) error {
	return s.mutate(ctx, "cart_item_removed", func(items []models.LineItem) ([]models.LineItem, error) {
		if index < 0 || index >= len(items) {
			return nil, &IndexError{Index: index, Len: len(items)}
		}
		items[index].Quantity--
		if items[index].Quantity == 0 {
			items = append(items[:index], items[index+1:]...)
		}
		return items, nil
	})
}

// Clear empties the cart
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, "cart_cleared", func([]models.LineItem) ([]models.LineItem, error) {
		return []models.LineItem{}, nil
	})
}

// Items returns a copy of the ordered snapshot
func (s *Store) Items() []models.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneItems(s.items)
}

// Len returns the number of distinct line items
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Count returns the total quantity across all line items
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

// mutate applies fn to a working copy and commits it only once persisted
func (s *Store) mutate(ctx context.Context, action string, fn func([]models.LineItem) ([]models.LineItem, error)) error {
	s.mu.Lock()

	next, err := fn(models.CloneItems(s.items))
	if err != nil {
		s.mu.Unlock()
		return err
	}

	if err := storage.SaveJSON(ctx, s.store, s.key, next); err != nil {
		s.mu.Unlock()
		s.logger.Error("cart_persist_failed", "Failed to persist cart, change discarded", "", err, map[string]interface{}{
			"key": s.key,
		})
		return err
	}

	s.items = next
	snapshot := models.CloneItems(next)
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	s.logger.Debug(action, "Cart updated", "", map[string]interface{}{
		"lines": len(snapshot),
	})

	for _, l := range listeners {
		l(snapshot)
	}
	return nil
}
