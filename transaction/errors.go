package transaction

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchemaMismatch is matched by every *SchemaMismatchError.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrUnrecoverableID means a row's id could not be read, so the row
	// cannot even be reported as malformed.
	ErrUnrecoverableID = errors.New("unrecoverable id")

	// ErrMissingDate is returned when a batch is transformed without a date.
	ErrMissingDate = errors.New("missing transaction date")
)

// SchemaMismatchError describes how an input header differs from Columns.
type SchemaMismatchError struct {
	Missing    []string
	Unexpected []string
	Duplicated []string
}

func (e *SchemaMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ","))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, "unexpected "+strings.Join(e.Unexpected, ","))
	}
	if len(e.Duplicated) > 0 {
		parts = append(parts, "duplicated "+strings.Join(e.Duplicated, ","))
	}
	return fmt.Sprintf("%s: %s", ErrSchemaMismatch, strings.Join(parts, "; "))
}

func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// ConversionError reports the first field of a row that failed coercion.
type ConversionError struct {
	ID    string
	Field string
	Value any
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("row %q: bad %s %v: %v", e.ID, e.Field, e.Value, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
