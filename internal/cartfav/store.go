package cartfav

import (
	"encoding/json"
	"log"
	"sync"

	"shopsync/internal/domain"
	"shopsync/internal/kv"
)

const (
	keyCart      = "cart"
	keyFavorites = "favorites"
)

// Store holds the cart and favorites collections for the current session.
// Each collection keeps at most one entry per (productID, store) key and is
// re-serialized to the client-state store after every mutation. Invalid
// inputs are normalized, never rejected.
type Store struct {
	mu        sync.RWMutex
	state     kv.Store
	cart      []domain.CartItem
	favorites []domain.FavoriteItem
}

// NewStore loads both collections from the client-state store. Malformed
// persisted JSON resets the collection to empty and is logged, not surfaced.
func NewStore(state kv.Store) *Store {
	s := &Store{state: state}
	if raw, ok := state.Get(keyCart); ok {
		if err := json.Unmarshal([]byte(raw), &s.cart); err != nil {
			log.Printf("discarding malformed cart: %v", err)
			s.cart = nil
		}
	}
	if raw, ok := state.Get(keyFavorites); ok {
		if err := json.Unmarshal([]byte(raw), &s.favorites); err != nil {
			log.Printf("discarding malformed favorites: %v", err)
			s.favorites = nil
		}
	}
	return s
}

func (s *Store) AddToFavorites(item domain.FavoriteItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.favorites {
		if f.ProductID == item.ProductID && f.Store == item.Store {
			return
		}
	}
	s.favorites = append(s.favorites, item)
	s.persistFavorites()
}

func (s *Store) RemoveFromFavorites(productID int64, store string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.favorites[:0]
	for _, f := range s.favorites {
		if !(f.ProductID == productID && f.Store == store) {
			kept = append(kept, f)
		}
	}
	if len(kept) == len(s.favorites) {
		return
	}
	s.favorites = kept
	s.persistFavorites()
}

func (s *Store) IsFavorite(productID int64, store string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.favorites {
		if f.ProductID == productID && f.Store == store {
			return true
		}
	}
	return false
}

func (s *Store) ToggleFavorite(item domain.FavoriteItem) {
	if s.IsFavorite(item.ProductID, item.Store) {
		s.RemoveFromFavorites(item.ProductID, item.Store)
		return
	}
	s.AddToFavorites(item)
}

// AddToCart increments the quantity of an existing line or inserts a new one.
// Non-positive quantities are normalized to 1.
func (s *Store) AddToCart(item domain.CartItem) {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.cart {
		if c.ProductID == item.ProductID && c.Store == item.Store {
			s.cart[i].Quantity += item.Quantity
			s.persistCart()
			return
		}
	}
	s.cart = append(s.cart, item)
	s.persistCart()
}

func (s *Store) RemoveFromCart(productID int64, store string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeCartLocked(productID, store)
}

// UpdateCartQuantity sets the quantity exactly; a quantity of zero or less
// removes the line.
func (s *Store) UpdateCartQuantity(productID int64, store string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if quantity <= 0 {
		s.removeCartLocked(productID, store)
		return
	}
	for i, c := range s.cart {
		if c.ProductID == productID && c.Store == store {
			s.cart[i].Quantity = quantity
			s.persistCart()
			return
		}
	}
}

func (s *Store) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = nil
	s.persistCart()
}

// CartTotal sums price times quantity over the cart, treating missing values
// as zero.
func (s *Store) CartTotal() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total float64
	for _, c := range s.cart {
		if c.Price <= 0 || c.Quantity <= 0 {
			continue
		}
		total += c.Price * float64(c.Quantity)
	}
	return total
}

func (s *Store) CartItems() []domain.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CartItem, len(s.cart))
	copy(out, s.cart)
	return out
}

func (s *Store) Favorites() []domain.FavoriteItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.FavoriteItem, len(s.favorites))
	copy(out, s.favorites)
	return out
}

// Reset empties both collections; called on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = nil
	s.favorites = nil
	s.persistCart()
	s.persistFavorites()
}

func (s *Store) removeCartLocked(productID int64, store string) {
	kept := s.cart[:0]
	for _, c := range s.cart {
		if !(c.ProductID == productID && c.Store == store) {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(s.cart) {
		return
	}
	s.cart = kept
	s.persistCart()
}

func (s *Store) persistCart() {
	s.persist(keyCart, s.cart)
}

func (s *Store) persistFavorites() {
	s.persist(keyFavorites, s.favorites)
}

func (s *Store) persist(key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("serialize %s: %v", key, err)
		return
	}
	if err := s.state.Set(key, string(raw)); err != nil {
		log.Printf("persist %s: %v", key, err)
	}
}
