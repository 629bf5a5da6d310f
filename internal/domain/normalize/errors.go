package normalize

import (
	"errors"
	"fmt"
)

// ErrParse is the kind of every structural input failure.
var ErrParse = errors.New("parse export")

// ParseError reports an export that cannot be turned into an event table,
// such as unreadable CSV or a missing required column.
type ParseError struct {
	Column string // set when a required column is missing
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%v: missing required column %q", ErrParse, e.Column)
	}
	return fmt.Sprintf("%v: %v", ErrParse, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is makes every ParseError match ErrParse.
func (e *ParseError) Is(target error) bool { return target == ErrParse }
