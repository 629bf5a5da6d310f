package repository

import (
	"context"
	"fmt"
)

// Open connects to the store selected by driver and prepares its schema.
// The returned Store applies the configured timeout to every call and
// records metrics and spans for it.
func Open(ctx context.Context, driver string, opts ...Option) (Store, error) {
	s := newSettings(opts)

	var (
		store Store
		err   error
	)
	switch driver {
	case DriverMemory, "":
		driver = DriverMemory
		store = NewMemoryStore(WithClock(s.now))
	case DriverSQLite, DriverPostgres:
		store, err = openSQL(ctx, driver, s)
	case DriverMongo:
		store, err = openMongo(ctx, s)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDriver, driver)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "store opened")
	return instrument(store, driver, s.timeout), nil
}
