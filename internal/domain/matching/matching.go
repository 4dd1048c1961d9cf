// Package matching selects non-overlapping contender pairs for new battles.
//
// The engine is stateless: cooldown bookkeeping lives in a State value
// owned by the caller, so schedulers decide policy and the selection logic
// stays a pure function of its inputs.
package matching

import (
	"sort"
	"time"

	"github.com/okian/versus/internal/domain/model"
	"github.com/okian/versus/internal/domain/types"
)

// Default selection parameters.
const (
	defaultMinScore       = 50.0
	defaultMaxMatches     = 3
	defaultMaxPerCategory = 2
	defaultCooldown       = 5 * time.Minute
)

// Scorer computes the compatibility score for a contender pair.
type Scorer interface {
	Score(a, b model.Contender, recent []model.Battle) float64
}

// Pair is a scored candidate pairing produced by a matching pass.
type Pair struct {
	A     model.Contender
	B     model.Contender
	Score float64
}

// Outcome is the result of one matching pass. An empty pair list is a
// valid steady state; Reason distinguishes why it is empty.
type Outcome struct {
	Pairs  []Pair
	Reason types.MatchReason
}

// State carries cooldown bookkeeping between passes. It is owned by the
// caller, not the engine.
type State struct {
	LastRun time.Time
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithMinScore sets the minimum score a pair must exceed to be selected.
func WithMinScore(min float64) Option {
	return func(e *Engine) {
		if min > 0 {
			e.minScore = min
		}
	}
}

// WithMaxPerCategory caps how many pairs of one category a single pass may
// produce.
func WithMaxPerCategory(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxPerCategory = n
		}
	}
}

// WithCooldown sets the minimum interval between matching passes.
func WithCooldown(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.cooldown = d
		}
	}
}

// Engine enumerates, scores and greedily selects contender pairs.
type Engine struct {
	scorer         Scorer
	minScore       float64
	maxPerCategory int
	cooldown       time.Duration
}

// New creates an Engine with configuration options.
func New(scorer Scorer, opts ...Option) *Engine {
	e := &Engine{
		scorer:         scorer,
		minScore:       defaultMinScore,
		maxPerCategory: defaultMaxPerCategory,
		cooldown:       defaultCooldown,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cooldown returns the configured pass interval.
func (e *Engine) Cooldown() time.Duration {
	return e.cooldown
}

// InCooldown reports whether a pass at now would violate the cooldown for
// the given state.
func (e *Engine) InCooldown(state State, now time.Time) bool {
	if state.LastRun.IsZero() {
		return false
	}
	return now.Sub(state.LastRun) < e.cooldown
}

// FindMatches runs one selection pass over the pool.
//
// All unordered pairs are scored; pairs at or below the minimum score are
// discarded; survivors are sorted by score descending with stable
// insertion-order tie-breaking, then selected greedily so each contender
// appears in at most one pair, capped at maxMatches. A final
// diversification walk drops pairs once their category already holds
// maxPerCategory selections.
func (e *Engine) FindMatches(pool []model.Contender, recent []model.Battle, maxMatches int) Outcome {
	if maxMatches <= 0 {
		maxMatches = defaultMaxMatches
	}
	if len(pool) < 2 {
		return Outcome{Reason: types.ReasonInsufficientContenders}
	}

	var candidates []Pair
	for i := 0; i < len(pool); i++ {
		for j := i + 1; j < len(pool); j++ {
			score := e.scorer.Score(pool[i], pool[j], recent)
			if score > e.minScore {
				candidates = append(candidates, Pair{A: pool[i], B: pool[j], Score: score})
			}
		}
	}
	if len(candidates) == 0 {
		return Outcome{Reason: types.ReasonNoValidMatches}
	}

	// Stable keeps enumeration order for equal scores, which makes the
	// whole pass deterministic.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	used := make(map[string]struct{}, len(pool))
	var selected []Pair
	for _, c := range candidates {
		if len(selected) >= maxMatches {
			break
		}
		if _, ok := used[c.A.ID]; ok {
			continue
		}
		if _, ok := used[c.B.ID]; ok {
			continue
		}
		selected = append(selected, c)
		used[c.A.ID] = struct{}{}
		used[c.B.ID] = struct{}{}
	}

	selected = e.diversify(selected)
	if len(selected) == 0 {
		return Outcome{Reason: types.ReasonNoValidMatches}
	}
	return Outcome{Pairs: selected}
}

// diversify walks the selection in score order and drops pairs whose
// category is already saturated, preserving ranking order otherwise.
func (e *Engine) diversify(pairs []Pair) []Pair {
	counts := make(map[types.Category]int, len(pairs))
	out := pairs[:0]
	for _, p := range pairs {
		counts[p.A.Category]++
		if counts[p.A.Category] <= e.maxPerCategory {
			out = append(out, p)
		}
	}
	return out
}
