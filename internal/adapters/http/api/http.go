// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	service "github.com/okian/versus/internal/app"
	"github.com/okian/versus/internal/battle"
	"github.com/okian/versus/internal/domain/analytics"
	"github.com/okian/versus/internal/domain/model"
	"github.com/okian/versus/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	AddContender(ctx context.Context, c model.Contender) (model.Contender, error)
	RunMatchingPass(ctx context.Context, maxMatches int) (MatchReport, error)
	CastVote(ctx context.Context, battleID string, side types.Side, voterID string) (battle.Receipt, error)
	FinalizeBattle(ctx context.Context, battleID string) (model.Result, error)
	RecordView(ctx context.Context, battleID string) error
	CountComment(ctx context.Context, battleID string) error
	Battle(ctx context.Context, battleID string) (model.Battle, error)
	Battles(ctx context.Context, limit int) ([]model.Battle, error)
	BattleAnalytics(ctx context.Context, battleID string) (analytics.BattleAnalytics, error)
	Dashboard(ctx context.Context) (analytics.Dashboard, error)
	Stats(ctx context.Context) (MatchingStats, error)
}

// MatchReport mirrors the read shape returned by matching passes.
type MatchReport = service.MatchReport

// MatchingStats mirrors the read shape returned by the stats endpoint.
type MatchingStats = service.MatchingStats

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	contendersHandler *ContendersHandler
	matchingHandler   *MatchingHandler
	battlesHandler    *BattlesHandler
	analyticsHandler  *AnalyticsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, maxListLimit int) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(deps),
		contendersHandler: NewContendersHandler(deps),
		matchingHandler:   NewMatchingHandler(deps),
		battlesHandler:    NewBattlesHandler(deps, maxListLimit),
		analyticsHandler:  NewAnalyticsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/contenders", MetricsMiddleware(s.contendersHandler.HandlePostContender, "contenders"))
	mux.HandleFunc("/matching/run", MetricsMiddleware(s.matchingHandler.HandleRunPass, "matching_run"))
	mux.HandleFunc("/analytics/dashboard", MetricsMiddleware(s.analyticsHandler.HandleDashboard, "analytics_dashboard"))
	mux.HandleFunc("/analytics/battles/", MetricsMiddleware(s.analyticsHandler.HandleBattleAnalytics, "analytics_battle"))
	mux.HandleFunc("/battles", MetricsMiddleware(s.battlesHandler.HandleListBattles, "battles"))
	mux.HandleFunc("/battles/", MetricsMiddleware(s.battlesHandler.HandleBattleSubroute, "battle"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
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
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates battle package sentinels to HTTP responses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, battle.ErrValidation):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, battle.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, battle.ErrDuplicateVote):
		writeError(w, http.StatusConflict, "duplicate_vote", err)
	case errors.Is(err, battle.ErrBattleClosed):
		writeError(w, http.StatusConflict, "battle_closed", err)
	case errors.Is(err, battle.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, battle.ErrContention):
		writeError(w, http.StatusServiceUnavailable, "contention", err)
	case errors.Is(err, battle.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
