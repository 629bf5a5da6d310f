package repository

import (
	"time"

	"github.com/okian/compass-wrapped/pkg/logger"
)

const (
	defaultTimeout  = 5 * time.Second
	defaultDatabase = "compass_wrapped"
)

type settings struct {
	dsn      string
	database string
	timeout  time.Duration
	logger   logger.Logger
	now      func() time.Time
}

// Option applies a configuration option to Open.
type Option func(*settings)

// WithDSN sets the connection string of SQL and Mongo drivers.
func WithDSN(dsn string) Option {
	return func(s *settings) {
		s.dsn = dsn
	}
}

// WithDatabase sets the Mongo database name.
func WithDatabase(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.database = name
		}
	}
}

// WithTimeout bounds every store operation.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the source of CreatedAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

func newSettings(opts []Option) *settings {
	s := &settings{
		database: defaultDatabase,
		timeout:  defaultTimeout,
		logger:   logger.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
