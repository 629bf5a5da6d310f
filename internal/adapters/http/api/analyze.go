package api

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	service "github.com/okian/compass-wrapped/internal/app"
	"github.com/okian/compass-wrapped/internal/domain/normalize"
)

const (
	defaultMaxUploadBytes = 10 << 20
	multipartMemory       = 1 << 20
	estimateParam         = "estimated_trips_per_week"
)

// AnalyzeHandler handles export uploads.
type AnalyzeHandler struct {
	deps     Dependencies
	maxBytes int64
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(deps Dependencies) *AnalyzeHandler {
	return &AnalyzeHandler{deps: deps, maxBytes: defaultMaxUploadBytes}
}

// HandleAnalyze handles POST /analytics/analyze/ requests.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyze"

	estimate, err := parseEstimate(r.URL.Query().Get(estimateParam))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w", op, err))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", fmt.Errorf("%s: %w", op, ErrTooLarge))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w", op, ErrMissingFile))
		return
	}
	defer func() { _ = file.Close() }()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w", op, ErrNotCSV))
		return
	}

	resp, err := h.deps.Analyze(r.Context(), service.AnalyzeRequest{
		Filename:              header.Filename,
		Body:                  file,
		EstimatedTripsPerWeek: estimate,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, normalize.ErrParse) && resp != nil:
		writeJSON(w, http.StatusBadRequest, resp)
	case resp != nil:
		writeJSON(w, http.StatusInternalServerError, resp)
	default:
		writeServiceError(w, err)
	}
}

// parseEstimate reads the optional self-estimate; empty means absent.
func parseEstimate(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: %s must be a non-negative integer", ErrBadRequest, estimateParam)
	}
	return &n, nil
}
