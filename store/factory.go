package store

import (
	"fmt"
	"path/filepath"
)

// New creates a Store based on the backend name.
//
// Supported backends:
//
//	"json"   - a single JSON file at dataDir/db.json (default)
//	"sqlite" - SQLite database at dataDir/kv.db
//	"badger" - Badger database in dataDir/badger
//	"memory" - In-memory (ephemeral, for testing)
func New(backend, dataDir string) (Store, error) {
	switch backend {
	case "json", "":
		return NewJsonFileStore(filepath.Join(dataDir, "db.json"))
	case "sqlite":
		return NewSqliteStore(filepath.Join(dataDir, "kv.db"))
	case "badger":
		return NewBadgerStore(filepath.Join(dataDir, "badger"))
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: json, sqlite, badger, memory)", backend)
	}
}
