// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/okian/versus/internal/domain/model"
	"github.com/okian/versus/internal/domain/types"
)

// ContenderDependencies defines the interface for contender intake.
type ContenderDependencies interface {
	AddContender(ctx context.Context, c model.Contender) (model.Contender, error)
}

// ContendersHandler handles contender intake requests.
type ContendersHandler struct {
	deps ContenderDependencies
}

// NewContendersHandler creates a new contenders handler.
func NewContendersHandler(deps ContenderDependencies) *ContendersHandler {
	return &ContendersHandler{deps: deps}
}

// contenderRequest mirrors the wire schema for POST /contenders.
type contenderRequest struct {
	CreatorID   string `json:"creator_id"`
	CreatorName string `json:"creator_name"`
	Title       string `json:"title"`
	ImageURL    string `json:"image_url"`
	Category    string `json:"category"`
	LikeCount   int    `json:"like_count"`
	ViewCount   int    `json:"view_count"`
}

func (c contenderRequest) validate() error {
	switch {
	case strings.TrimSpace(c.CreatorID) == "":
		return errors.New("missing creator_id")
	case strings.TrimSpace(c.Title) == "":
		return errors.New("missing title")
	case strings.TrimSpace(c.Category) == "":
		return errors.New("missing category")
	}
	if _, err := types.ParseCategory(c.Category); err != nil {
		return err
	}
	return nil
}

// HandlePostContender handles POST /contenders requests.
func (h *ContendersHandler) HandlePostContender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req contenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	created, err := h.deps.AddContender(r.Context(), model.Contender{
		CreatorID:   req.CreatorID,
		CreatorName: req.CreatorName,
		Title:       req.Title,
		ImageURL:    req.ImageURL,
		Category:    types.Category(req.Category),
		LikeCount:   req.LikeCount,
		ViewCount:   req.ViewCount,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
