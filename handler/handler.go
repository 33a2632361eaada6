// Package handler provides the HTTP handlers for the reference key/value server.
package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stevemurr/kvtable/store"
)

// maxBodySize bounds a single bulk upsert.
const maxBodySize = 64 << 20

// Handler holds the server dependencies and registers routes.
type Handler struct {
	store  store.Store
	mux    *http.ServeMux
	logger zerolog.Logger
}

// New creates a Handler and wires up all routes.
func New(s store.Store, logger zerolog.Logger) *Handler {
	h := &Handler{store: s, mux: http.NewServeMux(), logger: logger}
	h.routes()
	return h
}

// ServeHTTP makes Handler an http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.mux.HandleFunc("GET /{$}", h.listKeys)
	h.mux.HandleFunc("GET /{key...}", h.getValue)
	h.mux.HandleFunc("POST /{$}", h.setValues)
	h.mux.HandleFunc("DELETE /{key...}", h.deleteKey)
}

// ---------- helpers ----------

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("store failure")
	}
	writeText(w, status, err.Error())
}

// readEntries decodes a bulk upsert body. Form bodies carry one field per
// key whose value is the JSON text to store. JSON bodies are an object
// whose members are re-encoded individually.
func readEntries(r *http.Request) (map[string][]byte, error) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	entries := make(map[string][]byte)
	if ct == "application/json" {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		for k, v := range obj {
			entries[k] = []byte(v)
		}
	} else {
		form, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
		for k, vs := range form {
			if len(vs) == 0 {
				continue
			}
			entries[k] = []byte(vs[len(vs)-1])
		}
	}
	for k := range entries {
		if k == "" {
			return nil, fmt.Errorf("empty key")
		}
	}
	return entries, nil
}

// ---------- endpoints ----------

func (h *Handler) listKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.store.Keys(r.URL.Query().Get("prefix"))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeText(w, http.StatusOK, strings.Join(keys, "\n"))
}

func (h *Handler) getValue(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	v, ok, err := h.store.Get(key)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		writeText(w, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(v)
}

func (h *Handler) setValues(w http.ResponseWriter, r *http.Request) {
	entries, err := readEntries(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(entries) == 0 {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("no entries in request body"))
		return
	}
	if err := h.store.Set(entries); err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteKey(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.Delete(r.PathValue("key")); err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
