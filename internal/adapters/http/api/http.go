// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/compass-wrapped/internal/app"
	"github.com/okian/compass-wrapped/internal/domain/model"
	"github.com/okian/compass-wrapped/internal/domain/types"
)

// Version is reported by the welcome document.
const Version = "1.0.0"

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Analyze normalizes and analyzes one uploaded export.
	Analyze(ctx context.Context, req service.AnalyzeRequest) (*service.AnalysisResponse, error)

	// Process stores a user stats record and ranks it.
	Process(ctx context.Context, stats model.UserStats) (types.UserStatsResponse, error)
	// Lookup ranks the latest stored record of a user.
	Lookup(ctx context.Context, userID string) (types.UserStatsResponse, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	analyzeHandler   *AnalyzeHandler
	userStatsHandler *UserStatsHandler

	corsOrigins []string
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithMaxUploadBytes caps the size of an uploaded export.
func WithMaxUploadBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.analyzeHandler.maxBytes = n
		}
	}
}

// WithCORSOrigins sets the origins allowed by the CORS middleware.
func WithCORSOrigins(origins []string) ServerOption {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		analyzeHandler:   NewAnalyzeHandler(deps),
		userStatsHandler: NewUserStatsHandler(deps),
		corsOrigins:      []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all business routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Use(CORSMiddleware(s.corsOrigins))

	r.Get("/", MetricsMiddleware(s.healthHandler.HandleRoot, "root"))
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Post("/analytics/analyze/", MetricsMiddleware(s.analyzeHandler.HandleAnalyze, "analyze"))
	r.Post("/stats/user", MetricsMiddleware(s.userStatsHandler.HandleSubmit, "submit_stats"))
	r.Get("/stats/user/{user_id}", MetricsMiddleware(s.userStatsHandler.HandleLookup, "lookup_stats"))
}

// Handler returns a chi router with every route registered.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	s.Register(ctx, r)
	return r
}

type errorResponse struct {
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Fields  []service.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	resp := errorResponse{Code: code, Message: msg}
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps service failures to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
