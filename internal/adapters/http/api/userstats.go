package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/compass-wrapped/internal/domain/model"
)

const maxStatsBodyBytes = 1 << 20

// UserStatsHandler handles user stats submission and lookup.
type UserStatsHandler struct {
	deps Dependencies
}

// NewUserStatsHandler creates a new user stats handler.
func NewUserStatsHandler(deps Dependencies) *UserStatsHandler {
	return &UserStatsHandler{deps: deps}
}

// HandleSubmit handles POST /stats/user requests.
func (h *UserStatsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_stats"
	var stats model.UserStats
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxStatsBodyBytes))
	if err := dec.Decode(&stats); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}

	resp, err := h.deps.Process(r.Context(), stats)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleLookup handles GET /stats/user/{user_id} requests.
func (h *UserStatsHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	resp, err := h.deps.Lookup(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
