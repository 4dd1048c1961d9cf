package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if VERSUS_CONFIG is set
//  3. env (prefix VERSUS_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("VERSUS_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: VERSUS_ADDR, VERSUS_MAX_MATCHES, ...
	// Map env keys like VERSUS_MAX_MATCHES -> max_matches (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("VERSUS_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "versus_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Basic validation
	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.MinMatchScore < 0 || cfg.MinMatchScore > 100 {
		return nil, fmt.Errorf("%w: min_match_score must be within [0, 100]", ErrInvalidConfig)
	}
	if cfg.MaxMatches <= 0 {
		return nil, fmt.Errorf("%w: max_matches must be positive", ErrInvalidConfig)
	}
	if cfg.BattleDuration <= 0 {
		return nil, fmt.Errorf("%w: battle_duration must be positive", ErrInvalidConfig)
	}
	return &cfg, nil
}
