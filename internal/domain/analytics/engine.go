// Package analytics computes the statistics of a normalized transit-card
// export. Each analyzer runs in isolation; a failing analyzer leaves its
// result nil and records the error without affecting the others.
package analytics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/compass-wrapped/internal/domain/model"
	"github.com/okian/compass-wrapped/pkg/logger"
	"github.com/okian/compass-wrapped/pkg/metrics"
	"github.com/okian/compass-wrapped/pkg/tracing"
)

const defaultDetailLimit = 10

// Engine runs the analyzers. It is stateless and safe for concurrent use.
type Engine struct {
	logger      logger.Logger
	tracer      trace.Tracer
	detailLimit int
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:      logger.Nop(),
		tracer:      tracing.Tracer("analytics"),
		detailLimit: defaultDetailLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze runs every analyzer over table. It never fails as a whole.
func (e *Engine) Analyze(ctx context.Context, table *model.Table) *Result {
	ctx, span := e.tracer.Start(ctx, "analytics.Analyze")
	defer span.End()

	in := NewInput(table)
	if in.Journeys != nil {
		metrics.RecordJourneys(in.Journeys.Len())
		span.SetAttributes(
			attribute.Int("analytics.rows", table.Len()),
			attribute.Int("analytics.journeys", in.Journeys.Len()),
		)
	}

	res := &Result{Status: Status{Errors: map[string]string{}}}
	res.TotalStats = run(ctx, e, res, ComponentTotalStats, in, ComputeTotalStats)
	res.RouteStats = run(ctx, e, res, ComponentRouteStats, in, ComputeRouteStats)
	res.TimeStats = run(ctx, e, res, ComponentTimeStats, in, ComputeTimeStats)
	res.TransferStats = run(ctx, e, res, ComponentTransferStats, in, ComputeTransferStats)
	res.Personality = run(ctx, e, res, ComponentPersonality, in, ComputePersonality)
	res.Achievements = run(ctx, e, res, ComponentAchievements, in, ComputeAchievements)
	res.MissingTaps = run(ctx, e, res, ComponentMissingTaps, in, func(in *Input) (MissingTaps, error) {
		return ComputeMissingTaps(in, e.detailLimit)
	})

	res.Status.Success = len(res.Status.Errors) == 0
	if res.Status.Success {
		tracing.SetSpanOk(span)
	} else {
		span.SetAttributes(attribute.Int("analytics.failed_components", len(res.Status.Errors)))
	}
	return res
}

// run executes one analyzer, converting a panic into an error.
func run[T any](ctx context.Context, e *Engine, res *Result, name string, in *Input, fn func(*Input) (T, error)) *T {
	_, span := e.tracer.Start(ctx, "analytics."+name)
	defer span.End()
	start := time.Now()

	out, err := safely(in, fn)
	metrics.RecordComponent(name, float64(time.Since(start).Microseconds())/1000, err != nil)
	if err != nil {
		res.Status.Errors[name] = err.Error()
		tracing.RecordError(span, err, tracing.ErrorTypeComponent, false)
		e.logger.Error(ctx, "analyzer failed",
			logger.String("component", name),
			logger.Error(err),
		)
		return nil
	}
	tracing.SetSpanOk(span)
	return &out
}

func safely[T any](in *Input, fn func(*Input) (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn(in)
}
