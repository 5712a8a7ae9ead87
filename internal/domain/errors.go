package domain

import (
	"fmt"
	"time"
)

// SchemaError reports a source file whose normalized headers cannot satisfy
// the required canonical columns. Non-retriable.
type SchemaError struct {
	Missing  []string
	Found    []string
	Required []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns %v (found %d headers)", e.Missing, len(e.Found))
}

// EncodingError reports a file no encoding/delimiter combination could turn
// into a non-empty table. Non-retriable.
type EncodingError struct {
	Path     string
	Attempts []string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("could not decode %s with any of %v", e.Path, e.Attempts)
}

// DateParseError reports a file where no row yielded a parseable open
// timestamp. Carries the first raw sample for the operator.
type DateParseError struct {
	Column string
	Sample string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("no parseable %s values (sample: %q)", e.Column, e.Sample)
}

// EmptyWindowWarning signals a baseline build that found zero history in the
// lookback window. The stage reports a warning and leaves prior artifacts
// untouched.
type EmptyWindowWarning struct {
	Dimension string
	From      time.Time
	To        time.Time
}

func (e *EmptyWindowWarning) Error() string {
	return fmt.Sprintf("no %s history in [%s, %s]", e.Dimension,
		e.From.Format(DateLayout), e.To.Format(DateLayout))
}

// MissingBaselineError signals an absent baseline artifact. The anomaly
// detector skips the dimension and keeps going.
type MissingBaselineError struct {
	Dimension string
	Path      string
}

func (e *MissingBaselineError) Error() string {
	return fmt.Sprintf("no baseline artifact for %s at %s", e.Dimension, e.Path)
}

// StoreError wraps a persistence failure. The transaction is already rolled
// back when a stage sees one; downstream stages must not run.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store failure during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
