package service

import (
	"errors"
	"strings"

	"github.com/okian/compass-wrapped/internal/adapters/repository"
)

var (
	// ErrValidation marks a rejected user stats submission.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned by Lookup for an unknown user id.
	ErrNotFound = repository.ErrNotFound
	// ErrUnavailable marks a retryable store failure.
	ErrUnavailable = repository.ErrUnavailable
)

// FieldError describes one invalid field, named by its JSON path.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid field of a submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Message
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
