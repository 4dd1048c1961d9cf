// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"
)

// MatchingDependencies defines the interface for matching operations.
type MatchingDependencies interface {
	RunMatchingPass(ctx context.Context, maxMatches int) (MatchReport, error)
}

// MatchingHandler handles matching pass requests.
type MatchingHandler struct {
	deps MatchingDependencies
}

// NewMatchingHandler creates a new matching handler.
func NewMatchingHandler(deps MatchingDependencies) *MatchingHandler {
	return &MatchingHandler{deps: deps}
}

// HandleRunPass handles POST /matching/run?max=N requests. An empty
// report with a reason code is still a 200; only infrastructure
// failures surface as errors.
func (h *MatchingHandler) HandleRunPass(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	maxMatches := 0
	if maxStr := r.URL.Query().Get("max"); maxStr != "" {
		n, err := strconv.Atoi(maxStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		maxMatches = n
	}
	report, err := h.deps.RunMatchingPass(r.Context(), maxMatches)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
