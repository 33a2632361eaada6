// Package kv is a client for a remote flat key/value store spoken to over HTTP.
//
// The store exposes four operations on a base URL: list keys by prefix
// (GET ?prefix=), read a key (GET /key, 404 when absent), bulk upsert
// (POST / with form fields key=<json>) and delete (DELETE /key).
//
// A Client keeps a write-through cache of every value it has written or read.
// The cache is never invalidated by other clients; two processes sharing a
// store can observe stale values from their own caches.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/go-logr/logr"
	"golang.org/x/net/publicsuffix"
)

const (
	CTForm = "application/x-www-form-urlencoded"
)

type Client struct {
	http *http.Client
	// baseURL is the store URL without a trailing slash
	baseURL string
	header  http.Header
	cache   Cache
	logger  logr.Logger
}

// NewClient creates a Client for the store at dbURL. An empty dbURL is
// resolved from the REPLIT_DB_URL environment variable; if that is unset
// too, ErrNoStoreURL is returned.
func NewClient(dbURL string, opts ...Option) (*Client, error) {
	cfg, err := LoadConfig(nil)
	if err != nil {
		return nil, err
	}
	if dbURL != "" {
		cfg.URL = dbURL
	}
	return New(cfg, opts...)
}

// New creates a Client from cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.URL == "" {
		return nil, ErrNoStoreURL
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid store URL %q: %w", cfg.URL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid store URL %q: scheme and host are required", cfg.URL)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	c := &Client{
		http: &http.Client{
			Jar:     jar,
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.URL, "/"),
		header:  http.Header{},
		cache:   NewMapCache(),
		logger:  logr.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URL returns the store URL the client talks to.
func (c *Client) URL() string {
	return c.baseURL
}

func (c *Client) keyPath(key string) string {
	return "/" + url.PathEscape(key)
}

func (c *Client) request(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	for k, sl := range c.header {
		for _, v := range sl {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	c.logger.V(1).Info("request", "method", method, "path", path, "status", resp.StatusCode)
	return resp, nil
}

// Keys lists every key in the store.
func (c *Client) Keys(ctx context.Context) ([]string, error) {
	return c.ListKeys(ctx, "")
}

// ListKeys lists every key starting with prefix. An empty prefix lists all
// keys.
func (c *Client) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	resp, err := c.request(ctx, http.MethodGet, "?prefix="+url.QueryEscape(prefix), nil, "")
	if err != nil {
		return nil, &TransportError{Op: "list", Key: prefix, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, newStatusError("list", prefix, resp)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "list", Key: prefix, Err: err}
	}
	keys := []string{}
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		keys = append(keys, line)
	}
	return keys, nil
}

// Get returns the value stored under key. ok is false when the key does not
// exist. Values that are not valid JSON are returned as plain strings.
// A cached value is returned without contacting the store.
func (c *Client) Get(ctx context.Context, key string) (value any, ok bool, err error) {
	if c.cache != nil {
		if b, hit := c.cache.Get(key); hit {
			c.logger.V(2).Info("cache hit", "key", key)
			return decodeValue(b), true, nil
		}
	}
	b, ok, err := c.fetch(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	if c.cache != nil {
		c.cache.Set(key, b)
	}
	return decodeValue(b), true, nil
}

func (c *Client) fetch(ctx context.Context, key string) ([]byte, bool, error) {
	resp, err := c.request(ctx, http.MethodGet, c.keyPath(key), nil, "")
	if err != nil {
		return nil, false, &TransportError{Op: "get", Key: key, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode/100 != 2 {
		return nil, false, newStatusError("get", key, resp)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, &TransportError{Op: "get", Key: key, Err: err}
	}
	return b, true, nil
}

func decodeValue(b []byte) any {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return string(b)
	}
	return v
}

// Set stores value under key. The cache is updated only after the store
// confirms the write.
func (c *Client) Set(ctx context.Context, key string, value any) error {
	return c.SetBulk(ctx, map[string]any{key: value})
}

// SetBulk stores every entry in one request.
func (c *Client) SetBulk(ctx context.Context, entries map[string]any) error {
	if len(entries) == 0 {
		return nil
	}
	form := url.Values{}
	encoded := make(map[string][]byte, len(entries))
	for k, v := range entries {
		if k == "" {
			return errors.New("kv: empty key")
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("kv: encode %q: %w", k, err)
		}
		encoded[k] = b
		form.Set(k, string(b))
	}
	op, key := "set", ""
	if len(entries) == 1 {
		for k := range entries {
			key = k
		}
	} else {
		op = "set bulk"
	}
	resp, err := c.request(ctx, http.MethodPost, "", strings.NewReader(form.Encode()), CTForm)
	if err != nil {
		return &TransportError{Op: op, Key: key, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return newStatusError(op, key, resp)
	}
	io.Copy(io.Discard, resp.Body)
	if c.cache != nil {
		for k, b := range encoded {
			c.cache.Set(k, b)
		}
	}
	return nil
}

// Delete removes key from the store and evicts it from the cache. Deleting a
// key that does not exist is not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	resp, err := c.request(ctx, http.MethodDelete, c.keyPath(key), nil, "")
	if err != nil {
		return &TransportError{Op: "delete", Key: key, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 && resp.StatusCode != http.StatusNotFound {
		return newStatusError("delete", key, resp)
	}
	io.Copy(io.Discard, resp.Body)
	if c.cache != nil {
		c.cache.Delete(key)
	}
	return nil
}

// PopulateCache loads every key in the store into the cache, overwriting
// cached values of keys the store lists. Cached keys the store no longer
// has are left in the cache. It does nothing when caching is disabled.
func (c *Client) PopulateCache(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	keys, err := c.Keys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		b, ok, err := c.fetch(ctx, key)
		if err != nil {
			return err
		}
		if !ok {
			// deleted after listing
			c.cache.Delete(key)
			continue
		}
		c.cache.Set(key, b)
	}
	return nil
}

// Close releases idle connections held by the underlying transport.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}
