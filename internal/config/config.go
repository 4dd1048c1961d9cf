// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - All loading functions accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"time"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// MaxContenders bounds how many available contenders one matching
	// pass reads from the store.
	MaxContenders int `koanf:"max_contenders"`

	// MaxMatches caps how many battles one matching pass may create.
	MaxMatches int `koanf:"max_matches"`

	// MinMatchScore is the compatibility threshold below which a pair
	// is never matched.
	MinMatchScore float64 `koanf:"min_match_score"`

	// MaxPerCategory caps same-category battles created per pass.
	MaxPerCategory int `koanf:"max_per_category"`

	// MatchingCooldown is the minimum interval between matching passes.
	MatchingCooldown time.Duration `koanf:"matching_cooldown"`

	// RepeatLookback is how far back a rematch of the same pair is
	// penalized by the scorer.
	RepeatLookback time.Duration `koanf:"repeat_lookback"`

	// BattleDuration is how long a new battle accepts votes.
	BattleDuration time.Duration `koanf:"battle_duration"`

	// VoteRetries bounds optimistic retries per vote transaction.
	VoteRetries int `koanf:"vote_retries"`

	// SweepInterval is how often expired battles are finalized.
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// TopTrending caps the dashboard trending list.
	TopTrending int `koanf:"top_trending"`

	// MaxBattleListLimit caps GET /battles?limit.
	MaxBattleListLimit int `koanf:"max_battle_list_limit"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		MaxContenders:      50,
		MaxMatches:         3,
		MinMatchScore:      50,
		MaxPerCategory:     2,
		MatchingCooldown:   5 * time.Minute,
		RepeatLookback:     7 * 24 * time.Hour,
		BattleDuration:     7 * 24 * time.Hour,
		VoteRetries:        3,
		SweepInterval:      30 * time.Second,
		TopTrending:        8,
		MaxBattleListLimit: 100,
	}
	return c
}
