package dataset

import (
	"errors"
	"fmt"
)

var (
	ErrMissingInput   = errors.New("missing input")
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// SchemaError reports a column that is absent or holds a value the loader
// cannot accept. Row is the zero-based data row, or -1 for header problems.
type SchemaError struct {
	Source string
	Column string
	Row    int
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("%s: column %q: %s", e.Source, e.Column, e.Reason)
	}
	return fmt.Sprintf("%s: column %q row %d: %s", e.Source, e.Column, e.Row, e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaMismatch
}

func missingColumn(source, column string) error {
	return &SchemaError{Source: source, Column: column, Row: -1, Reason: "column not found"}
}
