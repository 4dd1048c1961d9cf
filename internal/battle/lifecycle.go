// Package battle owns the battle state machine: creation, vote recording
// and finalization. It is the only place battle records are mutated.
package battle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/okian/versus/internal/adapters/repository"
	"github.com/okian/versus/internal/domain/model"
	"github.com/okian/versus/internal/domain/types"
	"github.com/okian/versus/pkg/logger"
	"github.com/okian/versus/pkg/metrics"
)

// Default lifecycle configuration constants.
const (
	defaultDuration = 7 * 24 * time.Hour
)

// ManagerOption applies a configuration option to the Manager.
type ManagerOption func(*Manager)

// WithDuration sets how long a new battle accepts votes.
func WithDuration(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.duration = d
		}
	}
}

// WithManagerClock overrides the time source, mainly for tests.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithManagerLogger sets a custom logger.
func WithManagerLogger(l logger.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// Manager creates and finalizes battles. Both operations are atomic
// against the store; finalize is additionally idempotent.
type Manager struct {
	store    repository.Store
	duration time.Duration
	now      func() time.Time
	newID    func() string
	logger   logger.Logger
}

// NewManager creates a lifecycle manager with configuration options.
func NewManager(store repository.Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:    store,
		duration: defaultDuration,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
		logger:   logger.Get().Named("lifecycle"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create pairs two contenders into a new ongoing battle. Preconditions are
// re-validated at execution time, not just at match-selection time, so a
// contender grabbed by a concurrent pass fails the whole commit with
// ErrConflict and nothing is written.
func (m *Manager) Create(ctx context.Context, a, b model.Contender, matchScore float64) (model.Battle, error) {
	if err := validatePair(a, b); err != nil {
		return model.Battle{}, err
	}

	now := m.now()
	battle := model.Battle{
		ID:       m.newID(),
		Title:    a.Title + " vs " + b.Title,
		Category: a.Category,
		ItemA: model.BattleItem{
			ContenderID: a.ID,
			CreatorID:   a.CreatorID,
			CreatorName: a.CreatorName,
			Title:       a.Title,
			ImageURL:    a.ImageURL,
		},
		ItemB: model.BattleItem{
			ContenderID: b.ID,
			CreatorID:   b.CreatorID,
			CreatorName: b.CreatorName,
			Title:       b.Title,
			ImageURL:    b.ImageURL,
		},
		Status:       types.BattleOngoing,
		CreatedAt:    now,
		EndsAt:       now.Add(m.duration),
		Participants: []string{},
		DailyVotes:   make(map[string]types.Tally),
		HourlyStats:  make(map[string]types.Tally),
		MatchScore:   matchScore,
		UpdatedAt:    now,
	}

	if err := m.store.CreateBattle(ctx, battle, a.ID, b.ID); err != nil {
		return model.Battle{}, translateStoreErr(err)
	}

	metrics.RecordBattleCreated()
	m.logger.Info(ctx, "battle created",
		logger.String("battleID", battle.ID),
		logger.String("category", string(battle.Category)),
		logger.Float64("matchScore", matchScore),
	)
	return battle, nil
}

// Finalize freezes the battle result. Calling it on an already-ended
// battle is a no-op that returns the frozen result unchanged; eligibility
// by wall clock is the caller's decision, not checked here.
func (m *Manager) Finalize(ctx context.Context, battleID string) (model.Result, error) {
	now := m.now()
	updated, err := m.store.UpdateBattle(ctx, battleID, func(b model.Battle) (model.Battle, error) {
		if b.Status == types.BattleEnded {
			return b, nil
		}

		result := computeResult(&b)
		b.Result = &result
		b.Status = types.BattleEnded
		b.EndedAt = &now
		b.Metrics.EngagementRate = engagementRate(b.TotalVotes, b.ViewCount)
		b.Metrics.CommentRate = engagementRate(b.CommentCount, b.ViewCount)
		b.UpdatedAt = now
		return b, nil
	})
	if err != nil {
		return model.Result{}, translateStoreErr(err)
	}
	if updated.Result == nil {
		// Only possible if the record was corrupted outside this package.
		return model.Result{}, fmt.Errorf("%w: battle %s ended without result", ErrValidation, battleID)
	}

	if updated.EndedAt != nil && updated.EndedAt.Equal(now) {
		metrics.RecordBattleFinalized()
		m.logger.Info(ctx, "battle finalized",
			logger.String("battleID", battleID),
			logger.String("winner", string(updated.Result.Winner)),
			logger.Int("totalVotes", updated.Result.TotalVotes),
		)
	}
	return *updated.Result, nil
}

// computeResult derives the frozen result from the final counters. Equal
// counts yield a tie with both vote fields carrying the shared count.
func computeResult(b *model.Battle) model.Result {
	votesA, votesB := b.ItemA.Votes, b.ItemB.Votes
	total := votesA + votesB

	result := model.Result{TotalVotes: total}
	switch {
	case votesA > votesB:
		result.Winner = types.OutcomeA
		result.WinnerVotes, result.LoserVotes = votesA, votesB
	case votesB > votesA:
		result.Winner = types.OutcomeB
		result.WinnerVotes, result.LoserVotes = votesB, votesA
	default:
		result.Winner = types.OutcomeTie
		result.WinnerVotes, result.LoserVotes = votesA, votesB
	}
	result.Margin = result.WinnerVotes - result.LoserVotes
	if total > 0 {
		pct := float64(result.WinnerVotes) / float64(total) * 100
		result.WinPercentage = math.Round(pct*100) / 100
	}
	return result
}

// validatePair enforces the pairing preconditions shared with the matcher.
func validatePair(a, b model.Contender) error {
	switch {
	case a.ID == b.ID:
		return fmt.Errorf("%w: a contender cannot battle itself", ErrValidation)
	case a.Category != b.Category:
		return fmt.Errorf("%w: category mismatch %s vs %s", ErrValidation, a.Category, b.Category)
	case a.CreatorID == b.CreatorID:
		return fmt.Errorf("%w: both contenders belong to creator %s", ErrValidation, a.CreatorID)
	case a.Status != types.ContenderAvailable:
		return fmt.Errorf("%w: contender %s is %s", ErrValidation, a.ID, a.Status)
	case b.Status != types.ContenderAvailable:
		return fmt.Errorf("%w: contender %s is %s", ErrValidation, b.ID, b.Status)
	}
	return nil
}

// translateStoreErr maps store sentinels onto this package's taxonomy so
// callers never import the repository package for classification.
func translateStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, repository.ErrContention):
		return fmt.Errorf("%w: %w", ErrContention, err)
	case errors.Is(err, repository.ErrUnavailable):
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	default:
		return err
	}
}

// engagementRate relates a counter to views, guarding the empty
// denominator, rounded to 3 decimals.
func engagementRate(count, views int) float64 {
	rate := float64(count) / math.Max(float64(views), 1)
	return math.Round(rate*1000) / 1000
}
