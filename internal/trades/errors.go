package trades

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is matching at the service boundary.
var (
	ErrNotFound  = errors.New("trade source not found")
	ErrEmptyData = errors.New("trade source has no data rows")
)

// SchemaError reports required columns missing from a trade source. It
// always names both the missing and the available columns so a caller can
// see what the file actually contained.
type SchemaError struct {
	Path      string
	Missing   []string
	Available []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s (available: %s)",
		e.Path,
		strings.Join(e.Missing, ", "),
		strings.Join(e.Available, ", "))
}

// ParseError reports a timestamp or date argument that did not match the
// expected format. Parse failures on the schema-required time columns are
// fatal, never silently coerced.
type ParseError struct {
	Field  string
	Value  string
	Layout string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: expected format %s: %v", e.Field, e.Value, e.Layout, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
