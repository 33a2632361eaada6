package table

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/stevemurr/kvtable/schema"
)

// Table is an in-memory copy of one table. Mutations change the copy first
// and then write the whole table back; if that write fails the copy keeps
// the change and diverges from the store until the next successful write.
//
// A Table is not safe for concurrent use.
type Table struct {
	name   string
	kv     KV
	docs   []Document
	logger logr.Logger
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) Len() int {
	return len(t.docs)
}

func (t *Table) persist(ctx context.Context, op string) error {
	if t.docs == nil {
		t.docs = []Document{}
	}
	t.logger.V(1).Info(op, "table", t.name, "documents", len(t.docs))
	return t.kv.Set(ctx, t.name, t.docs)
}

// Insert appends doc and writes the table. doc must be a non-nil map with
// string keys; anything else is rejected with a *ValidationError wrapping
// ErrNotDocument and the table is left unchanged.
func (t *Table) Insert(ctx context.Context, doc any) error {
	d, ok := asDocument(doc)
	if !ok {
		return &ValidationError{Table: t.name, Err: ErrNotDocument, Reason: "got " + schema.JSONType(doc)}
	}
	t.docs = append(t.docs, d)
	return t.persist(ctx, "insert")
}

// Get returns the documents that have every filter field with an equal
// value, in table order. With an empty filter it returns the table's own
// slice rather than a copy: callers must not modify it, and later
// mutations may or may not show through it.
func (t *Table) Get(filter Filter) []Document {
	if len(filter) == 0 {
		return t.docs
	}
	return Equals(filter).Select(t.docs)
}

// GetOne returns the first document Get(filter) would return.
func (t *Table) GetOne(filter Filter) (Document, bool) {
	if len(filter) == 0 {
		if len(t.docs) == 0 {
			return nil, false
		}
		return t.docs[0], true
	}
	p := Equals(filter)
	for _, d := range t.docs {
		if p.Match(d) {
			return d, true
		}
	}
	return nil, false
}

// Update replaces every document that has all filter fields set to truthy
// values with doc, then writes the table. Unlike Get, filter values are
// not compared: Update(doc, Filter{"id": 1}) replaces every document with a
// truthy "id". An empty filter replaces nothing. The table is written even
// when nothing matched. A nil doc is rejected like in Insert.
func (t *Table) Update(ctx context.Context, doc Document, filter Filter) error {
	if doc == nil {
		return &ValidationError{Table: t.name, Err: ErrNotDocument, Reason: "got null"}
	}
	p := AllTruthy(filter)
	for i, d := range t.docs {
		if p.Match(d) {
			t.docs[i] = doc
		}
	}
	return t.persist(ctx, "update")
}

// Delete removes every document that has at least one filter field set to
// a truthy value, then writes the table. Like Update, filter values are not
// compared, and an empty filter removes nothing. The table is written even
// when nothing was removed.
func (t *Table) Delete(ctx context.Context, filter Filter) error {
	p := AnyTruthy(filter)
	kept := make([]Document, 0, len(t.docs))
	for _, d := range t.docs {
		if !p.Match(d) {
			kept = append(kept, d)
		}
	}
	t.docs = kept
	return t.persist(ctx, "delete")
}

// Drop deletes the table from the store. The in-memory documents are kept;
// a later mutation through this handle writes them back.
func (t *Table) Drop(ctx context.Context) error {
	t.logger.V(1).Info("drop", "table", t.name)
	return t.kv.Delete(ctx, t.name)
}
