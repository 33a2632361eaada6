// Package kvtest runs an in-process key/value server for tests.
package kvtest

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/stevemurr/kvtable/handler"
	"github.com/stevemurr/kvtable/store"
)

// Server is an httptest.Server speaking the store protocol over a
// MemoryStore. It counts requests per method so tests can tell cached reads
// from remote ones.
type Server struct {
	*httptest.Server
	Store *store.MemoryStore

	requests map[string]*atomic.Int64
	// non-zero: status every request answers with
	failWith atomic.Int64
}

// NewServer starts a Server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		Store: store.NewMemoryStore(),
		requests: map[string]*atomic.Int64{
			http.MethodGet:    {},
			http.MethodPost:   {},
			http.MethodDelete: {},
		},
	}
	h := handler.New(s.Store, zerolog.Nop())
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n, ok := s.requests[r.Method]; ok {
			n.Add(1)
		}
		if code := s.failWith.Load(); code != 0 {
			http.Error(w, "injected failure", int(code))
			return
		}
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// Requests returns how many requests with method the server has received.
func (s *Server) Requests(method string) int {
	if n, ok := s.requests[method]; ok {
		return int(n.Load())
	}
	return 0
}

// FailWith makes every following request fail with status. Zero restores
// normal behavior.
func (s *Server) FailWith(status int) {
	s.failWith.Store(int64(status))
}

// Put stores raw value text directly, bypassing any client.
func (s *Server) Put(t testing.TB, key, value string) {
	t.Helper()
	if err := s.Store.Set(map[string][]byte{key: []byte(value)}); err != nil {
		t.Fatal(err)
	}
}

// Raw returns the stored text for key.
func (s *Server) Raw(t testing.TB, key string) (string, bool) {
	t.Helper()
	v, ok, err := s.Store.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	return string(v), ok
}
