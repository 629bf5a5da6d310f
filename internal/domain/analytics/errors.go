package analytics

import "errors"

var (
	// ErrNoTable is returned by analyzers given no event table.
	ErrNoTable = errors.New("analytics: no event table")
	// ErrPanic wraps a recovered analyzer panic.
	ErrPanic = errors.New("analytics: analyzer panicked")
)
