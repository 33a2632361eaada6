// Package store defines the flat key/value engine behind the reference server
// and its backend implementations.
package store

// Store is the interface that all backing stores must implement.
// Keys are opaque strings; values are the raw bytes a client posted,
// usually JSON text. Implementations must be safe for concurrent use.
type Store interface {
	// Keys returns every key starting with prefix, sorted. An empty prefix
	// lists every key.
	Keys(prefix string) ([]string, error)

	// Get returns the value stored under key. ok is false if the key does
	// not exist; that is not an error.
	Get(key string) (value []byte, ok bool, err error)

	// Set inserts or replaces every entry in one call.
	Set(entries map[string][]byte) error

	// Delete removes a key. Returns true if it existed.
	Delete(key string) (bool, error)

	// Close releases the backend's resources.
	Close() error
}
