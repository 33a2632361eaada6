package store_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stevemurr/kvtable/store"
)

// runStoreTests runs a common test suite against any Store implementation.
func runStoreTests(t *testing.T, s store.Store) {
	t.Helper()

	t.Run("Keys empty", func(t *testing.T) {
		keys, err := s.Keys("")
		if err != nil {
			t.Fatal(err)
		}
		if len(keys) != 0 {
			t.Fatalf("expected 0 keys, got %d", len(keys))
		}
	})

	t.Run("Set and Get", func(t *testing.T) {
		if err := s.Set(map[string][]byte{"k1": []byte(`{"title":"hello"}`)}); err != nil {
			t.Fatal(err)
		}
		got, ok, err := s.Get("k1")
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("expected value, got none")
		}
		if string(got) != `{"title":"hello"}` {
			t.Fatalf("unexpected value %q", got)
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		got, ok, err := s.Get("missing")
		if err != nil {
			t.Fatal(err)
		}
		if ok || got != nil {
			t.Fatalf("expected nothing, got %q", got)
		}
	})

	t.Run("Set overwrites", func(t *testing.T) {
		if err := s.Set(map[string][]byte{"k1": []byte(`"updated"`)}); err != nil {
			t.Fatal(err)
		}
		got, _, err := s.Get("k1")
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != `"updated"` {
			t.Fatalf("expected updated value, got %q", got)
		}
	})

	t.Run("Set bulk", func(t *testing.T) {
		err := s.Set(map[string][]byte{
			"users":     []byte(`[]`),
			"users_old": []byte(`[{"id":1}]`),
			"k2":        []byte(`2`),
		})
		if err != nil {
			t.Fatal(err)
		}
		keys, err := s.Keys("")
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"k1", "k2", "users", "users_old"}
		if !slices.Equal(keys, want) {
			t.Fatalf("expected %v, got %v", want, keys)
		}
	})

	t.Run("Keys prefix", func(t *testing.T) {
		keys, err := s.Keys("users")
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(keys, []string{"users", "users_old"}) {
			t.Fatalf("unexpected keys %v", keys)
		}
		keys, err = s.Keys("user_")
		if err != nil {
			t.Fatal(err)
		}
		if len(keys) != 0 {
			t.Fatalf("expected no keys for user_, got %v", keys)
		}
	})

	t.Run("Empty value", func(t *testing.T) {
		if err := s.Set(map[string][]byte{"blank": {}}); err != nil {
			t.Fatal(err)
		}
		got, ok, err := s.Get("blank")
		if err != nil {
			t.Fatal(err)
		}
		if !ok || len(got) != 0 {
			t.Fatalf("expected present empty value, got ok=%v %q", ok, got)
		}
	})

	t.Run("Delete existing", func(t *testing.T) {
		existed, err := s.Delete("k1")
		if err != nil {
			t.Fatal(err)
		}
		if !existed {
			t.Fatal("expected existed=true")
		}
		_, ok, err := s.Get("k1")
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatal("expected nothing after delete")
		}
	})

	t.Run("Delete missing", func(t *testing.T) {
		existed, err := s.Delete("nope")
		if err != nil {
			t.Fatal(err)
		}
		if existed {
			t.Fatal("expected existed=false")
		}
	})
}

func TestMemoryStore(t *testing.T) {
	s := store.NewMemoryStore()
	runStoreTests(t, s)
}

func TestJsonFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewJsonFileStore(filepath.Join(dir, "db.json"))
	if err != nil {
		t.Fatal(err)
	}
	runStoreTests(t, s)
}

func TestSqliteStore(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewSqliteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	runStoreTests(t, s)
}

func TestBadgerStore(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewBadgerStore(filepath.Join(dir, "badger"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	runStoreTests(t, s)
}

func TestSqliteStorePrefixWildcards(t *testing.T) {
	s, err := store.NewSqliteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.Set(map[string][]byte{"a_b": []byte("1"), "axb": []byte("2"), "a%": []byte("3")}); err != nil {
		t.Fatal(err)
	}
	keys, err := s.Keys("a_")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(keys, []string{"a_b"}) {
		t.Fatalf("expected [a_b], got %v", keys)
	}
}

func TestFactory(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		backend string
	}{
		{"json"},
		{"sqlite"},
		{"badger"},
		{"memory"},
		{""},
	}
	for _, tc := range tests {
		t.Run(tc.backend, func(t *testing.T) {
			s, err := store.New(tc.backend, filepath.Join(dir, tc.backend))
			if err != nil {
				t.Fatal(err)
			}
			defer s.Close()
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := store.New("redis", dir)
		if err == nil {
			t.Fatal("expected error for unknown backend")
		}
	})
}

func TestJsonFileStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	s, err := store.NewJsonFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(map[string][]byte{"a": []byte(`[{"x":1}]`)}); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected db.json to exist: %v", err)
	}

	reopened, err := store.NewJsonFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := reopened.Get("a")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || string(got) != `[{"x":1}]` {
		t.Fatalf("expected persisted value, got ok=%v %q", ok, got)
	}
}

func TestJsonFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	corrupt := []byte(`{"a": "1",`)
	if err := os.WriteFile(path, corrupt, 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := store.NewJsonFileStore(path)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Keys(""); err == nil {
		t.Fatal("expected error listing a corrupt file")
	}
	if _, _, err := s.Get("a"); err == nil {
		t.Fatal("expected error reading a corrupt file")
	}
	if err := s.Set(map[string][]byte{"b": []byte(`2`)}); err == nil {
		t.Fatal("expected error writing over a corrupt file")
	}
	if _, err := s.Delete("a"); err == nil {
		t.Fatal("expected error deleting from a corrupt file")
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(corrupt) {
		t.Fatalf("corrupt file was overwritten: %q", got)
	}
}
