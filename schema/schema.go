// Package schema checks decoded JSON values against a small JSON Schema subset.
// It is used to decide whether a stored value has the shape of a table.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Table is the shape every table value must have: a sequence of objects.
var Table = map[string]any{
	"type":  "array",
	"items": map[string]any{"type": "object"},
}

// Validate checks a value against a schema. A nil schema accepts anything.
//
// Supported keywords:
//   - type (string, number, integer, boolean, object, array, null)
//   - items (for arrays)
func Validate(schema map[string]any, value any) error {
	if schema == nil {
		return nil
	}
	return validateValue(schema, value, "$")
}

// ValidateTable reports whether value is a sequence of objects.
func ValidateTable(value any) error {
	return Validate(Table, value)
}

func validateValue(schema map[string]any, value any, path string) error {
	if expected, ok := schema["type"].(string); ok {
		if actual := JSONType(value); actual != expected {
			return fmt.Errorf("%s: expected type %q, got %q", path, expected, actual)
		}
	}
	itemSchema, ok := schema["items"].(map[string]any)
	if !ok {
		return nil
	}
	switch v := value.(type) {
	case []any:
		for i, elem := range v {
			if err := validateValue(itemSchema, elem, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case []map[string]any:
		for i, elem := range v {
			if err := validateValue(itemSchema, elem, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// JSONType names the JSON type of a decoded value.
func JSONType(v any) string {
	if v == nil {
		return "null"
	}
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return "null"
		}
		return "object"
	case []any, []map[string]any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float32, float64, json.Number:
		return "number"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "integer"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return "null"
		}
		if rv.Type().Key().Kind() == reflect.String {
			return "object"
		}
	case reflect.Slice, reflect.Array:
		return "array"
	}
	return reflect.TypeOf(v).String()
}
