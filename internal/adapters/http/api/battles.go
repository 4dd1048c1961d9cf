// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/okian/versus/internal/battle"
	"github.com/okian/versus/internal/domain/model"
	"github.com/okian/versus/internal/domain/types"
)

// BattleDependencies defines the interface for battle operations.
type BattleDependencies interface {
	CastVote(ctx context.Context, battleID string, side types.Side, voterID string) (battle.Receipt, error)
	FinalizeBattle(ctx context.Context, battleID string) (model.Result, error)
	RecordView(ctx context.Context, battleID string) error
	CountComment(ctx context.Context, battleID string) error
	Battle(ctx context.Context, battleID string) (model.Battle, error)
	Battles(ctx context.Context, limit int) ([]model.Battle, error)
}

// BattlesHandler handles battle read and write requests.
type BattlesHandler struct {
	deps     BattleDependencies
	maxLimit int
}

// NewBattlesHandler creates a new battles handler.
func NewBattlesHandler(deps BattleDependencies, maxLimit int) *BattlesHandler {
	return &BattlesHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// voteRequest mirrors the wire schema for POST /battles/{id}/votes.
type voteRequest struct {
	VoterID string `json:"voter_id"`
	Side    string `json:"side"`
}

func (v voteRequest) validate() error {
	switch {
	case strings.TrimSpace(v.VoterID) == "":
		return errors.New("missing voter_id")
	case strings.TrimSpace(v.Side) == "":
		return errors.New("missing side")
	}
	if _, err := types.ParseSide(v.Side); err != nil {
		return err
	}
	return nil
}

// HandleListBattles handles GET /battles?limit=N requests.
func (h *BattlesHandler) HandleListBattles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		n = parsed
	}
	if n == 0 || n > h.maxLimit {
		n = h.maxLimit
	}
	battles, err := h.deps.Battles(r.Context(), n)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, battles)
}

// HandleBattleSubroute dispatches /battles/{id} and its sub-resources.
func (h *BattlesHandler) HandleBattleSubroute(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/battles/")
	if path == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	battleID, action, _ := strings.Cut(path, "/")
	if battleID == "" || strings.Contains(action, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch action {
	case "":
		h.handleGetBattle(w, r, battleID)
	case "votes":
		h.handlePostVote(w, r, battleID)
	case "finalize":
		h.handleFinalize(w, r, battleID)
	case "views":
		h.handlePostView(w, r, battleID)
	case "comments":
		h.handlePostComment(w, r, battleID)
	default:
		http.NotFound(w, r)
	}
}

func (h *BattlesHandler) handleGetBattle(w http.ResponseWriter, r *http.Request, battleID string) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	b, err := h.deps.Battle(r.Context(), battleID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BattlesHandler) handlePostVote(w http.ResponseWriter, r *http.Request, battleID string) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	receipt, err := h.deps.CastVote(r.Context(), battleID, types.Side(req.Side), req.VoterID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (h *BattlesHandler) handleFinalize(w http.ResponseWriter, r *http.Request, battleID string) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	result, err := h.deps.FinalizeBattle(r.Context(), battleID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *BattlesHandler) handlePostView(w http.ResponseWriter, r *http.Request, battleID string) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.RecordView(r.Context(), battleID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

func (h *BattlesHandler) handlePostComment(w http.ResponseWriter, r *http.Request, battleID string) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.CountComment(r.Context(), battleID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "counted"})
}
