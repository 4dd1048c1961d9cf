// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/versus/internal/domain/analytics"
)

// AnalyticsDependencies defines the interface for analytics reads.
type AnalyticsDependencies interface {
	BattleAnalytics(ctx context.Context, battleID string) (analytics.BattleAnalytics, error)
	Dashboard(ctx context.Context) (analytics.Dashboard, error)
}

// AnalyticsHandler handles analytics read requests.
type AnalyticsHandler struct {
	deps AnalyticsDependencies
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(deps AnalyticsDependencies) *AnalyticsHandler {
	return &AnalyticsHandler{deps: deps}
}

// HandleBattleAnalytics handles GET /analytics/battles/{battle_id} requests.
func (h *AnalyticsHandler) HandleBattleAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /analytics/battles/
	path := strings.TrimPrefix(r.URL.Path, "/analytics/battles/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	result, err := h.deps.BattleAnalytics(r.Context(), path)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleDashboard handles GET /analytics/dashboard requests.
func (h *AnalyticsHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	dashboard, err := h.deps.Dashboard(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}
