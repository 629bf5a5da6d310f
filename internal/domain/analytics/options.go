package analytics

import "github.com/okian/compass-wrapped/pkg/logger"

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used to report analyzer failures.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithDetailLimit caps the number of missing-tap details returned.
func WithDetailLimit(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.detailLimit = n
		}
	}
}
