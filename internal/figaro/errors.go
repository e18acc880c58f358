package figaro

import (
	"errors"
	"fmt"
)

// Sentinel load failures. All of them are fatal: loading either produces a
// complete record set or nothing.
var (
	ErrEmptySource    = errors.New("source file is empty")
	ErrSchemaMismatch = errors.New("source file does not match the expected schema")
)

// LoadError wraps a fatal load failure with the path of the offending source.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
