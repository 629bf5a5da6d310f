// Package service wires normalization, analytics, and ranking behind the
// operations used by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/compass-wrapped/internal/adapters/repository"
	"github.com/okian/compass-wrapped/internal/domain/analytics"
	"github.com/okian/compass-wrapped/internal/domain/model"
	"github.com/okian/compass-wrapped/internal/domain/normalize"
	"github.com/okian/compass-wrapped/internal/domain/ranking"
	"github.com/okian/compass-wrapped/internal/domain/types"
	"github.com/okian/compass-wrapped/pkg/logger"
	"github.com/okian/compass-wrapped/pkg/metrics"
	"github.com/okian/compass-wrapped/pkg/tracing"
)

// FileComponent keys structural upload failures in Status.Errors.
const FileComponent = "file"

// Service implements the API dependencies. It holds no per-request state;
// the store is its only shared resource.
type Service struct {
	mu sync.RWMutex

	store      repository.Store
	normalizer *normalize.Normalizer
	engine     *analytics.Engine
	validate   *validator.Validate
	tracer     trace.Tracer

	detailLimit int

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the user stats store. Defaults to an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithNormalizer sets the CSV normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(s *Service) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// WithValidator replaces the user stats validator.
func WithValidator(v *validator.Validate) Option {
	return func(s *Service) {
		if v != nil {
			s.validate = v
		}
	}
}

// WithDetailLimit caps missing-tap details per analysis.
func WithDetailLimit(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.detailLimit = n
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		normalizer:  normalize.New(),
		validate:    NewValidator(),
		tracer:      tracing.Tracer("service"),
		detailLimit: 10,
		logger:      nil, // resolved lazily from the global logger
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	return s
}

func (s *Service) log() logger.Logger {
	if s.logger == nil {
		return logger.Get()
	}
	return s.logger
}

// Start prepares the service for requests.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	l := s.log().Named("service")
	s.logger = l
	s.engine = analytics.New(
		analytics.WithLogger(l.Named("analytics")),
		analytics.WithDetailLimit(s.detailLimit),
	)
	s.started = true
	l.Info(ctx, "compass wrapped service started", logger.Int("detailLimit", s.detailLimit))
	return nil
}

// Stop releases the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	if err := s.store.Close(); err != nil {
		s.log().Warn(context.Background(), "closing store failed", logger.Error(err))
	}
	s.started = false
	s.log().Info(context.Background(), "compass wrapped service stopped")
}

func (s *Service) analyticsEngine() *analytics.Engine {
	s.mu.RLock()
	e := s.engine
	s.mu.RUnlock()
	if e != nil {
		return e
	}
	return analytics.New(analytics.WithDetailLimit(s.detailLimit))
}

// AnalyzeRequest is one uploaded export.
type AnalyzeRequest struct {
	Filename string
	Body     io.Reader
	// EstimatedTripsPerWeek is validated and echoed, but no analyzer uses it.
	EstimatedTripsPerWeek *int
}

// AnalysisResponse is the analysis of one export.
type AnalysisResponse struct {
	FileInfo types.FileInfo `json:"file_info"`
	*analytics.Result
}

// Analyze normalizes and analyzes an export. A structural parse failure
// returns an error together with a response whose status describes it.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisResponse, error) {
	ctx, span := s.tracer.Start(ctx, "service.Analyze", trace.WithAttributes(
		attribute.String("file.name", req.Filename),
	))
	defer span.End()
	start := time.Now()
	elapsed := func() float64 { return float64(time.Since(start).Microseconds()) / 1000 }

	resp := &AnalysisResponse{
		FileInfo: types.FileInfo{
			Filename:              req.Filename,
			Columns:               []string{},
			EstimatedTripsPerWeek: req.EstimatedTripsPerWeek,
		},
	}

	table, err := s.normalizer.Normalize(ctx, req.Body)
	if err != nil {
		_ = metrics.RecordAnalysis(metrics.OutcomeFailed, elapsed())
		tracing.RecordError(span, err, tracing.ErrorTypeParse, false)
		s.log().Warn(ctx, "export rejected", logger.String("filename", req.Filename), logger.Error(err))
		resp.Result = &analytics.Result{Status: analytics.Status{
			Success: false,
			Errors:  map[string]string{FileComponent: err.Error()},
		}}
		return resp, fmt.Errorf("analyze %s: %w", req.Filename, err)
	}

	metrics.RecordNormalized(table.Len(), table.UnparsedTimestamps, table.UnparsedJourneyIDs)
	if table.UnparsedTimestamps > 0 || table.UnparsedJourneyIDs > 0 {
		s.log().Debug(ctx, "tolerated unparseable values",
			logger.Int("timestamps", table.UnparsedTimestamps),
			logger.Int("journeyIds", table.UnparsedJourneyIDs),
		)
	}

	resp.Result = s.analyticsEngine().Analyze(ctx, table)
	resp.FileInfo.Processed = true
	resp.FileInfo.Rows = table.Len()
	resp.FileInfo.Columns = table.Columns
	resp.FileInfo.UnparsedTimestamps = table.UnparsedTimestamps
	resp.FileInfo.UnparsedJourneyIDs = table.UnparsedJourneyIDs
	if resp.TotalStats != nil {
		resp.FileInfo.Journeys = resp.TotalStats.TotalJourneys
	}

	outcome := metrics.OutcomeSuccess
	if !resp.Status.Success {
		outcome = metrics.OutcomePartial
	}
	_ = metrics.RecordAnalysis(outcome, elapsed())
	tracing.SetSpanOk(span)
	s.log().Info(ctx, "export analyzed",
		logger.String("filename", req.Filename),
		logger.Int("rows", table.Len()),
		logger.String("outcome", outcome),
	)
	return resp, nil
}

// Process validates and stores a user stats record, then ranks it
// against every stored record with the same period type.
func (s *Service) Process(ctx context.Context, stats model.UserStats) (types.UserStatsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "service.Process", trace.WithAttributes(
		attribute.String("stats.period_type", stats.TimePeriod.PeriodType),
	))
	defer span.End()

	if err := s.validate.StructCtx(ctx, stats); err != nil {
		err = toValidationError(err)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation, false)
		return types.UserStatsResponse{}, err
	}

	if err := s.store.Insert(ctx, &stats); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStore, errors.Is(err, ErrUnavailable))
		return types.UserStatsResponse{}, fmt.Errorf("save user stats: %w", err)
	}
	metrics.RecordSubmission()
	s.log().Debug(ctx, "user stats saved", logger.String("id", stats.ID))

	resp, err := s.rank(ctx, stats)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStore, errors.Is(err, ErrUnavailable))
		return types.UserStatsResponse{}, err
	}
	tracing.SetSpanOk(span)
	return resp, nil
}

// Lookup ranks the most recent record of userID without storing anything.
func (s *Service) Lookup(ctx context.Context, userID string) (types.UserStatsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "service.Lookup")
	defer span.End()

	stats, err := s.store.Latest(ctx, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		metrics.RecordLookup("not_found")
		return types.UserStatsResponse{}, err
	case err != nil:
		metrics.RecordLookup("error")
		tracing.RecordError(span, err, tracing.ErrorTypeStore, errors.Is(err, ErrUnavailable))
		return types.UserStatsResponse{}, fmt.Errorf("load user stats: %w", err)
	}
	metrics.RecordLookup("found")

	resp, err := s.rank(ctx, stats)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStore, errors.Is(err, ErrUnavailable))
		return types.UserStatsResponse{}, err
	}
	tracing.SetSpanOk(span)
	return resp, nil
}

func (s *Service) rank(ctx context.Context, stats model.UserStats) (types.UserStatsResponse, error) {
	population, err := s.store.ListByPeriod(ctx, stats.TimePeriod.PeriodType)
	if err != nil {
		return types.UserStatsResponse{}, fmt.Errorf("load population: %w", err)
	}
	out := ranking.Rank(&stats, population)
	metrics.RecordRanking(stats.TimePeriod.PeriodType, out.Comparison.PopulationSize, out.Comparison.Percentile)
	return types.UserStatsResponse{
		Stats:       stats,
		Personality: out.Personality,
		Comparison:  out.Comparison,
	}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := map[string]interface{}{
		"started":     s.started,
		"detailLimit": s.detailLimit,
	}
	if m, ok := s.store.(repository.Counter); ok {
		stats["storedRecords"] = m.Len()
	}
	return stats
}
