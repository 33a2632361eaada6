package table

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// Document is one element of a table: a mapping from field names to
// JSON-compatible values. No field is required or interpreted by the table.
type Document map[string]any

// asDocument accepts any non-nil map keyed by strings. Maps with other
// value types are copied into a new Document.
func asDocument(v any) (Document, bool) {
	switch d := v.(type) {
	case Document:
		return d, d != nil
	case map[string]any:
		return Document(d), d != nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.IsNil() || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	d := make(Document, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		d[iter.Key().String()] = iter.Value().Interface()
	}
	return d, true
}

// Equal reports whether two field values are equal as JSON values, so that
// an int filter value matches a float64 decoded from the store.
func Equal(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// Truthy reports whether v counts as set: false for nil, false, zero
// numbers, empty strings and empty collections; true otherwise.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Map, reflect.Slice, reflect.Array, reflect.String:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// Unique returns docs without duplicates, keeping the first occurrence of
// each document in order.
func Unique(docs []Document) []Document {
	result := make([]Document, 0, len(docs))
outer:
	for _, d := range docs {
		for _, seen := range result {
			if Equal(d, seen) {
				continue outer
			}
		}
		result = append(result, d)
	}
	return result
}
