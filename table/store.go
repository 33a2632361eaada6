// Package table stores lists of documents in a remote key/value store.
//
// A table is a single key whose value is a JSON array of objects. Opening a
// table loads the whole array into memory; every mutation rewrites the whole
// array back to the store. There is no locking or versioning: when two
// handles mutate the same table, the last write wins and the other write is
// silently lost. Callers that need cross-process consistency must serialize
// access themselves.
package table

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/go-logr/logr"

	"github.com/stevemurr/kvtable/schema"
)

// KV is the subset of the key/value client a Store needs. *kv.Client
// implements it.
type KV interface {
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	Get(ctx context.Context, key string) (value any, ok bool, err error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

type Option func(s *Store)

func WithLogger(logger logr.Logger) Option {
	return func(s *Store) {
		s.logger = logger.WithName("table")
	}
}

// Store opens, lists and drops tables in a key/value store.
type Store struct {
	kv     KV
	logger logr.Logger
}

func NewStore(client KV, opts ...Option) *Store {
	s := &Store{kv: client, logger: logr.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Exists reports whether a key named name exists in the store. It does not
// check that the value is a valid table.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	keys, err := s.kv.ListKeys(ctx, name)
	if err != nil {
		return false, err
	}
	return slices.Contains(keys, name), nil
}

// GetTable loads the table stored under name. A missing table is created
// empty in the store first. If the stored value is not an array of objects
// a *ValidationError wrapping ErrInvalidTable is returned.
func (s *Store) GetTable(ctx context.Context, name string) (*Table, error) {
	if name == "" {
		return nil, errors.New("table name is empty")
	}
	exists, err := s.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		s.logger.V(1).Info("creating table", "table", name)
		if err := s.kv.Set(ctx, name, []Document{}); err != nil {
			return nil, err
		}
	}
	v, ok, err := s.kv.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	var docs []Document
	if ok {
		docs, err = toDocuments(name, v)
		if err != nil {
			return nil, err
		}
	}
	if docs == nil {
		docs = []Document{}
	}
	return &Table{name: name, kv: s.kv, docs: docs, logger: s.logger}, nil
}

// ListTables returns the keys whose values are arrays of objects. Keys
// holding any other value are skipped without error.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	keys, err := s.kv.ListKeys(ctx, "")
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, key := range keys {
		v, ok, err := s.kv.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok || schema.ValidateTable(v) != nil {
			continue
		}
		names = append(names, key)
	}
	return names, nil
}

// DropTable deletes the table's key. Dropping a missing table is not an
// error.
func (s *Store) DropTable(ctx context.Context, name string) error {
	s.logger.V(1).Info("dropping table", "table", name)
	return s.kv.Delete(ctx, name)
}

func toDocuments(name string, v any) ([]Document, error) {
	if err := schema.ValidateTable(v); err != nil {
		return nil, &ValidationError{Table: name, Err: ErrInvalidTable, Reason: err.Error()}
	}
	var docs []Document
	switch items := v.(type) {
	case []any:
		docs = make([]Document, 0, len(items))
		for _, item := range items {
			d, ok := asDocument(item)
			if !ok {
				return nil, &ValidationError{Table: name, Err: ErrInvalidTable, Reason: fmt.Sprintf("element of type %s", schema.JSONType(item))}
			}
			docs = append(docs, d)
		}
	case []map[string]any:
		docs = make([]Document, 0, len(items))
		for _, item := range items {
			docs = append(docs, Document(item))
		}
	case []Document:
		docs = slices.Clone(items)
	default:
		return nil, &ValidationError{Table: name, Err: ErrInvalidTable, Reason: fmt.Sprintf("value of type %s", schema.JSONType(v))}
	}
	return docs, nil
}
