// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/versus/internal/domain/types"
)

// Contender is a content item eligible for battling. Records are created by
// the content intake boundary and consumed by the matcher; the core only
// ever flips Status to in_battle alongside battle creation.
type Contender struct {
	ID          string                `json:"id"`
	CreatorID   string                `json:"creator_id"`
	CreatorName string                `json:"creator_name"`
	Title       string                `json:"title"`
	ImageURL    string                `json:"image_url"`
	Category    types.Category        `json:"category"`
	Status      types.ContenderStatus `json:"status"`
	LikeCount   int                   `json:"like_count"`
	ViewCount   int                   `json:"view_count"`
	BattleCount int                   `json:"battle_count"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// AgeDays returns the whole days elapsed since creation.
func (c Contender) AgeDays(now time.Time) int {
	if now.Before(c.CreatedAt) {
		return 0
	}
	return int(now.Sub(c.CreatedAt).Hours() / 24)
}

// Clone returns an independent copy.
func (c Contender) Clone() Contender {
	return c
}
