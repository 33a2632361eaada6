package table

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTable = errors.New("not a valid table")
	ErrNotDocument  = errors.New("document is not a mapping")
)

// ValidationError reports a table value that is not a sequence of documents,
// or a document argument that is not a mapping.
type ValidationError struct {
	Table  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("table %q: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("table %q: %v: %s", e.Table, e.Err, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
