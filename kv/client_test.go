package kv_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevemurr/kvtable/kv"
	"github.com/stevemurr/kvtable/kvtest"
)

func newClient(t *testing.T, srv *kvtest.Server, opts ...kv.Option) *kv.Client {
	t.Helper()
	c, err := kv.NewClient(srv.URL, opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNewClientRequiresURL(t *testing.T) {
	t.Setenv(kv.EnvURL, "")
	_, err := kv.NewClient("")
	assert.ErrorIs(t, err, kv.ErrNoStoreURL)
}

func TestNewClientFromEnv(t *testing.T) {
	srv := kvtest.NewServer(t)
	t.Setenv(kv.EnvURL, srv.URL+"/")
	c, err := kv.NewClient("")
	require.NoError(t, err)
	assert.Equal(t, srv.URL, c.URL())

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "a", "b"))
	raw, ok := srv.Raw(t, "a")
	assert.True(t, ok)
	assert.Equal(t, `"b"`, raw)
}

func TestNewClientInvalidURL(t *testing.T) {
	_, err := kv.NewClient("not a url")
	require.Error(t, err)
	assert.NotErrorIs(t, err, kv.ErrNoStoreURL)
}

func TestSetGetRoundTrip(t *testing.T) {
	srv := kvtest.NewServer(t)
	ctx := context.Background()
	writer := newClient(t, srv)
	reader := newClient(t, srv, kv.WithoutCache())

	values := map[string]any{
		"object":  map[string]any{"name": "a", "id": float64(1)},
		"table":   []any{map[string]any{"id": float64(1)}, map[string]any{"id": float64(2)}},
		"string":  "hello",
		"number":  float64(42),
		"boolean": true,
		"empty":   []any{},
	}
	for k, v := range values {
		require.NoError(t, writer.Set(ctx, k, v))
	}
	for k, v := range values {
		got, ok, err := writer.Get(ctx, k)
		require.NoError(t, err)
		assert.True(t, ok, k)
		assert.Equal(t, v, got, "cached %s", k)

		got, ok, err = reader.Get(ctx, k)
		require.NoError(t, err)
		assert.True(t, ok, k)
		assert.Equal(t, v, got, "remote %s", k)
	}
}

func TestGetMissingKey(t *testing.T) {
	srv := kvtest.NewServer(t)
	c := newClient(t, srv)

	v, ok, err := c.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestGetPlainText(t *testing.T) {
	srv := kvtest.NewServer(t)
	srv.Put(t, "greeting", "hello world")
	c := newClient(t, srv)

	v, ok, err := c.Get(context.Background(), "greeting")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello world", v)
}

func TestKeysWithSpecialCharacters(t *testing.T) {
	srv := kvtest.NewServer(t)
	c := newClient(t, srv, kv.WithoutCache())
	ctx := context.Background()

	key := "users/with space?&"
	require.NoError(t, c.Set(ctx, key, []any{}))
	v, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []any{}, v)

	keys, err := c.ListKeys(ctx, "users/")
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)

	require.NoError(t, c.Delete(ctx, key))
	_, ok = srv.Raw(t, key)
	assert.False(t, ok)
}

func TestListKeys(t *testing.T) {
	srv := kvtest.NewServer(t)
	c := newClient(t, srv)
	ctx := context.Background()

	keys, err := c.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, c.SetBulk(ctx, map[string]any{
		"things":   []any{},
		"thing_id": float64(3),
		"other":    "x",
	}))

	keys, err = c.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"other", "thing_id", "things"}, keys)

	keys, err = c.ListKeys(ctx, "thing")
	require.NoError(t, err)
	assert.Equal(t, []string{"thing_id", "things"}, keys)
}

func TestSetBulkSingleRequest(t *testing.T) {
	srv := kvtest.NewServer(t)
	cache := kv.NewMapCache()
	c := newClient(t, srv, kv.WithCache(cache))

	require.NoError(t, c.SetBulk(context.Background(), map[string]any{"a": float64(1), "b": "two"}))
	assert.Equal(t, 1, srv.Requests(http.MethodPost))
	assert.Equal(t, []string{"a", "b"}, cache.Keys())

	raw, _ := srv.Raw(t, "b")
	assert.Equal(t, `"two"`, raw)

	require.NoError(t, c.SetBulk(context.Background(), nil))
	assert.Equal(t, 1, srv.Requests(http.MethodPost))
}

func TestSetUnencodableValue(t *testing.T) {
	srv := kvtest.NewServer(t)
	c := newClient(t, srv)

	err := c.Set(context.Background(), "ch", make(chan int))
	require.Error(t, err)
	assert.False(t, kv.IsTransportError(err))
	assert.Equal(t, 0, srv.Requests(http.MethodPost))
}

func TestDelete(t *testing.T) {
	srv := kvtest.NewServer(t)
	cache := kv.NewMapCache()
	c := newClient(t, srv, kv.WithCache(cache))
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v"))
	require.NoError(t, c.Delete(ctx, "k"))
	assert.Zero(t, cache.Len())

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// never cached, never stored
	require.NoError(t, c.Delete(ctx, "k"))
	require.NoError(t, c.Delete(ctx, "unknown"))
}

func TestTransportErrors(t *testing.T) {
	srv := kvtest.NewServer(t)
	cache := kv.NewMapCache()
	c := newClient(t, srv, kv.WithCache(cache))
	ctx := context.Background()

	srv.FailWith(http.StatusInternalServerError)

	err := c.Set(ctx, "k", "v")
	var te *kv.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
	assert.Equal(t, "set", te.Op)
	assert.Equal(t, "k", te.Key)
	_, cached := cache.Get("k")
	assert.False(t, cached, "failed write must not touch the cache")

	_, _, err = c.Get(ctx, "k")
	assert.True(t, kv.IsTransportError(err))

	_, err = c.Keys(ctx)
	assert.True(t, kv.IsTransportError(err))

	err = c.Delete(ctx, "k")
	assert.True(t, kv.IsTransportError(err))

	srv.FailWith(0)
	require.NoError(t, c.Set(ctx, "k", "v"))
}

func TestNetworkFailure(t *testing.T) {
	srv := kvtest.NewServer(t)
	c := newClient(t, srv)
	srv.Close()

	_, _, err := c.Get(context.Background(), "k")
	var te *kv.TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.StatusCode)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestCanceledContext(t *testing.T) {
	srv := kvtest.NewServer(t)
	c := newClient(t, srv)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Set(ctx, "k", "v")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCachedReadsSkipTheStore(t *testing.T) {
	srv := kvtest.NewServer(t)
	c := newClient(t, srv)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "mine"))
	// another writer changes the value behind the client's back
	srv.Put(t, "k", `"theirs"`)

	v, _, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "mine", v)
	assert.Equal(t, 0, srv.Requests(http.MethodGet))

	fresh := newClient(t, srv)
	v, _, err = fresh.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "theirs", v)

	// reads are cached too
	v, _, err = fresh.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "theirs", v)
	assert.Equal(t, 1, srv.Requests(http.MethodGet))
}

func TestCachedValuesAreIsolated(t *testing.T) {
	srv := kvtest.NewServer(t)
	c := newClient(t, srv)
	ctx := context.Background()

	doc := map[string]any{"id": float64(1)}
	require.NoError(t, c.Set(ctx, "k", doc))
	doc["id"] = float64(2)

	v, _, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": float64(1)}, v)
}

func TestWithoutCache(t *testing.T) {
	srv := kvtest.NewServer(t)
	c := newClient(t, srv, kv.WithoutCache())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v"))
	for i := 0; i < 3; i++ {
		_, _, err := c.Get(ctx, "k")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, srv.Requests(http.MethodGet))
	require.NoError(t, c.PopulateCache(ctx))
}

func TestPopulateCache(t *testing.T) {
	srv := kvtest.NewServer(t)
	srv.Put(t, "a", `1`)
	srv.Put(t, "b", `"two"`)
	srv.Put(t, "c", `plain`)
	cache := kv.NewMapCache()
	c := newClient(t, srv, kv.WithCache(cache))
	ctx := context.Background()

	require.NoError(t, c.PopulateCache(ctx))
	assert.Equal(t, []string{"a", "b", "c"}, cache.Keys())
	gets := srv.Requests(http.MethodGet)

	v, ok, err := c.Get(ctx, "c")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "plain", v)
	assert.Equal(t, gets, srv.Requests(http.MethodGet))
}

func TestPopulateCacheKeepsUnlistedKeys(t *testing.T) {
	srv := kvtest.NewServer(t)
	cache := kv.NewMapCache()
	c := newClient(t, srv, kv.WithCache(cache))
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "gone", "old"))
	require.NoError(t, c.Set(ctx, "kept", "old"))
	_, err := srv.Store.Delete("gone")
	require.NoError(t, err)
	srv.Put(t, "kept", `"new"`)

	require.NoError(t, c.PopulateCache(ctx))
	v, ok, err := c.Get(ctx, "kept")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "new", v)

	// never listed, so the stale value survives
	v, ok, err = c.Get(ctx, "gone")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "old", v)
}

type headerRecorder struct {
	header http.Header
	next   http.RoundTripper
}

func (r *headerRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	r.header = req.Header.Clone()
	return r.next.RoundTrip(req)
}

func TestWithHeaderAndTransport(t *testing.T) {
	srv := kvtest.NewServer(t)
	rec := &headerRecorder{next: http.DefaultTransport}
	c := newClient(t, srv,
		kv.WithTransport(rec),
		kv.WithHeader(http.Header{"X-Replit-Token": {"secret"}}),
	)

	_, err := c.Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "secret", rec.header.Get("X-Replit-Token"))
}
