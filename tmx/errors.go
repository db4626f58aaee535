package tmx

import (
	"errors"
	"fmt"
)

var (
	ErrUnexpectedEOF = errors.New("libtmx: unexpected end of document")
	ErrNoDocument    = errors.New("libtmx: no matching top-level element")
	ErrWrongKind     = errors.New("libtmx: cached document has a different kind")
	ErrGIDConflict   = errors.New("libtmx: conflicting tileset ranges")
	ErrUnresolvedRef = errors.New("libtmx: unresolved reference")
	ErrSelfReference = errors.New("libtmx: document references itself")
	ErrExtension     = errors.New("libtmx: unexpected file extension")
)

// ParseError is the fatal error class. It aborts the enclosing top-level
// read and carries the document location where parsing stopped; the wrapped
// error is one of the package sentinels or an underlying decode error.
type ParseError struct {
	Path     string
	Location string // "line:column", or "unknown" when unavailable
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v (%v at %v)", e.Err, e.Path, e.Location)
}

func (e *ParseError) Unwrap() error { return e.Err }
