package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/stevemurr/kvtable/table"
)

// parseValue decodes s as JSON, falling back to the plain string.
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

func parseDocument(s string) (table.Document, error) {
	var doc table.Document
	if err := json.Unmarshal([]byte(s), &doc); err != nil || doc == nil {
		return nil, fmt.Errorf("document must be a JSON object: %q", s)
	}
	return doc, nil
}

// parseFilter turns "field=value" pairs into a Filter.
func parseFilter(pairs []string) (table.Filter, error) {
	f := table.Filter{}
	for _, p := range pairs {
		k, val, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid filter %q, expected field=value", p)
		}
		f[k] = parseValue(val)
	}
	return f, nil
}

func printValue(w io.Writer, v any) error {
	if s, ok := v.(string); ok {
		_, err := fmt.Fprintln(w, s)
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
