package kv

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrNoStoreURL is returned by NewClient when no store URL was given and
// none could be found in the environment.
var ErrNoStoreURL = errors.New("no store URL given and " + EnvURL + " is not set")

// TransportError reports a failed exchange with the remote store: either the
// request never completed (Err is set) or the store answered with a status
// that is neither 2xx nor 404 (StatusCode is set).
type TransportError struct {
	Op         string
	Key        string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	var target string
	if e.Key != "" {
		target = fmt.Sprintf(" %q", e.Key)
	}
	if e.Err != nil {
		return fmt.Sprintf("kv %s%s: %v", e.Op, target, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("kv %s%s: status %d: %s", e.Op, target, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("kv %s%s: status %d", e.Op, target, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// newStatusError builds a TransportError from an unexpected response. The
// response body is consumed.
func newStatusError(op, key string, resp *http.Response) *TransportError {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &TransportError{
		Op:         op,
		Key:        key,
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(b)),
	}
}

// IsTransportError reports whether err is or wraps a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
