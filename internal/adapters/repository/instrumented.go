package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/compass-wrapped/internal/domain/model"
	"github.com/okian/compass-wrapped/pkg/metrics"
	"github.com/okian/compass-wrapped/pkg/tracing"
)

// instrumented bounds, measures and traces calls to the wrapped store.
type instrumented struct {
	next    Store
	driver  string
	timeout time.Duration
	tracer  trace.Tracer
}

func newInstrumented(next Store, driver string, timeout time.Duration) *instrumented {
	return &instrumented{
		next:    next,
		driver:  driver,
		timeout: timeout,
		tracer:  tracing.Tracer("repository"),
	}
}

func (s *instrumented) do(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "store."+op, trace.WithAttributes(
		attribute.String("db.system", s.driver),
		attribute.String("db.operation", op),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	if err != nil && !errors.Is(err, ErrUnavailable) &&
		(errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)) {
		err = fmt.Errorf("%w: %s timed out after %s: %w", ErrUnavailable, op, s.timeout, err)
	}

	failed := err
	if errors.Is(err, ErrNotFound) {
		failed = nil
	}
	metrics.RecordStoreOp(s.driver, op, float64(time.Since(start).Microseconds())/1000, failed)
	if failed != nil {
		tracing.RecordError(span, failed, tracing.ErrorTypeStore, errors.Is(failed, ErrUnavailable))
	} else {
		tracing.SetSpanOk(span)
	}
	return err
}

func (s *instrumented) Insert(ctx context.Context, stats *model.UserStats) error {
	return s.do(ctx, "insert", func(ctx context.Context) error {
		return s.next.Insert(ctx, stats)
	})
}

func (s *instrumented) Latest(ctx context.Context, userID string) (model.UserStats, error) {
	var out model.UserStats
	err := s.do(ctx, "latest", func(ctx context.Context) error {
		var err error
		out, err = s.next.Latest(ctx, userID)
		return err
	})
	return out, err
}

func (s *instrumented) ListByPeriod(ctx context.Context, periodType string) ([]model.UserStats, error) {
	var out []model.UserStats
	err := s.do(ctx, "list_by_period", func(ctx context.Context) error {
		var err error
		out, err = s.next.ListByPeriod(ctx, periodType)
		return err
	})
	return out, err
}

func (s *instrumented) Close() error { return s.next.Close() }

// Counter is implemented by stores that can report their size cheaply.
type Counter interface {
	Len() int
}

// countedInstrumented keeps Len visible through the instrumentation.
type countedInstrumented struct {
	*instrumented
	counter Counter
}

func (s *countedInstrumented) Len() int { return s.counter.Len() }

// instrument wraps next, forwarding Len when next is a Counter.
func instrument(next Store, driver string, timeout time.Duration) Store {
	in := newInstrumented(next, driver, timeout)
	if c, ok := next.(Counter); ok {
		return &countedInstrumented{instrumented: in, counter: c}
	}
	return in
}
