// Package scoring computes pair compatibility scores for the matcher.
//
// Scores are pure functions of the two contenders, the recent battle
// history and the clock; there is no hidden state and no randomness, so
// repeated calls are fully deterministic.
package scoring

import (
	"math"
	"time"

	"github.com/okian/versus/internal/domain/model"
)

// Scoring weights and bases. The weighted contributions sum to at most 100
// before clamping.
const (
	categoryWeight         = 1.0
	creatorDiversityWeight = 0.8
	freshnessWeight        = 0.6
	popularityWeight       = 0.4
	balanceWeight          = 0.7

	categoryBase   = 25
	diversityBase  = 20
	freshnessBase  = 20
	popularityBase = 15
	balanceBase    = 10

	titleLengthBonus    = 5
	uploadHourBonus     = 3
	titleLengthCutoff   = 10
	uploadHourCutoff    = 4
	recentBattlePenalty = 50

	maxScore = 100

	defaultLookback = 7 * 24 * time.Hour
)

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithLookback sets the anti-repeat lookback window.
func WithLookback(d time.Duration) Option {
	return func(s *Scorer) {
		if d > 0 {
			s.lookback = d
		}
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		if now != nil {
			s.now = now
		}
	}
}

// Scorer computes compatibility scores in [0, 100] for contender pairs.
type Scorer struct {
	lookback time.Duration
	now      func() time.Time
}

// New creates a Scorer with configuration options.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		lookback: defaultLookback,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookback returns the configured anti-repeat window.
func (s *Scorer) Lookback() time.Duration {
	return s.lookback
}

// Score computes the compatibility score for a pair. Category mismatch and
// same-creator pairs are hard exclusions and score zero regardless of every
// other factor.
func (s *Scorer) Score(a, b model.Contender, recent []model.Battle) float64 {
	if a.Category != b.Category {
		return 0
	}
	if a.CreatorID == b.CreatorID {
		return 0
	}

	now := s.now()
	score := float64(categoryBase) * categoryWeight
	score += float64(diversityBase) * creatorDiversityWeight

	// Freshness: both recently created scores high, decaying with the
	// average age in days.
	avgAge := float64(a.AgeDays(now)+b.AgeDays(now)) / 2
	score += math.Max(0, freshnessBase-avgAge) * freshnessWeight

	// Popularity balance: similar like counts make a fairer fight.
	popDiff := math.Abs(float64(a.LikeCount - b.LikeCount))
	score += math.Max(0, popularityBase-popDiff) * popularityWeight

	score += s.balanceScore(a, b) * balanceWeight
	score -= s.antiPatternPenalty(a, b, recent, now)

	return math.Max(0, math.Min(maxScore, score))
}

// balanceScore rewards similar title lengths and differing upload hours,
// a cheap proxy for originating-audience diversity.
func (s *Scorer) balanceScore(a, b model.Contender) float64 {
	score := float64(balanceBase)
	if abs(len(a.Title)-len(b.Title)) < titleLengthCutoff {
		score += titleLengthBonus
	}
	if abs(a.CreatedAt.Hour()-b.CreatedAt.Hour()) > uploadHourCutoff {
		score += uploadHourBonus
	}
	return score
}

// antiPatternPenalty applies the anti-repeat rule: a pair that already
// battled within the lookback window is penalized heavily enough to drop
// below any selection threshold.
func (s *Scorer) antiPatternPenalty(a, b model.Contender, recent []model.Battle, now time.Time) float64 {
	cutoff := now.Add(-s.lookback)
	for i := range recent {
		if recent[i].CreatedAt.Before(cutoff) {
			continue
		}
		if recent[i].PairsWith(a.ID, b.ID) {
			return recentBattlePenalty
		}
	}
	return 0
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
