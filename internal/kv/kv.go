package kv

// Store is the persisted client-state contract shared by the cart/favorites
// store, the session manager, and the order-status watcher. Writes are
// last-writer-wins per key; there are no cross-key transactions.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
	Keys(prefix string) []string
	Clear() error
}
