package kv

import (
	"net/http"
	"time"

	"github.com/go-logr/logr"
)

type Option func(c *Client)

func WithLogger(logger logr.Logger) Option {
	return func(c *Client) {
		c.logger = logger.WithName("kv")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.http.Transport = transport
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHeader adds headers to every request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for k, sl := range header {
			for _, v := range sl {
				c.header.Add(k, v)
			}
		}
	}
}

// WithCache replaces the default MapCache.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithoutCache disables caching; every Get goes to the store.
func WithoutCache() Option {
	return func(c *Client) {
		c.cache = nil
	}
}
