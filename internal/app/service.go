// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/versus/internal/adapters/repository"
	"github.com/okian/versus/internal/battle"
	"github.com/okian/versus/internal/domain/analytics"
	"github.com/okian/versus/internal/domain/matching"
	"github.com/okian/versus/internal/domain/model"
	"github.com/okian/versus/internal/domain/scoring"
	"github.com/okian/versus/internal/domain/types"
	"github.com/okian/versus/pkg/logger"
	"github.com/okian/versus/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultMaxContenders = 50
	defaultMaxMatches    = 3
	defaultTopTrending   = 8
)

// MatchedPair describes one battle created by a matching pass.
type MatchedPair struct {
	BattleID   string         `json:"battle_id"`
	ContenderA string         `json:"contender_a"`
	ContenderB string         `json:"contender_b"`
	Category   types.Category `json:"category"`
	Score      float64        `json:"score"`
}

// MatchReport is the outcome of one matching pass. An empty report with a
// reason code is a successful steady state, not an error.
type MatchReport struct {
	MatchesCreated int               `json:"matches_created"`
	Pairs          []MatchedPair     `json:"pairs"`
	Reason         types.MatchReason `json:"reason,omitempty"`
	AvailableCount int               `json:"available_count"`
}

// MatchingStats summarizes the matcher's view of the world for operators.
type MatchingStats struct {
	AvailableContenders  int                    `json:"available_contenders"`
	OngoingBattles       int                    `json:"ongoing_battles"`
	CategoryDistribution map[types.Category]int `json:"category_distribution"`
	CooldownRemaining    time.Duration          `json:"cooldown_remaining"`
	LastRun              time.Time              `json:"last_run"`
}

// Service implements the API dependencies for the battle system.
type Service struct {
	mu sync.Mutex

	// Core components
	store     repository.Store
	scorer    *scoring.Scorer
	engine    *matching.Engine
	lifecycle *battle.Manager
	votes     *battle.Processor

	// Configuration
	maxContenders  int
	maxMatches     int
	topTrending    int
	minScore       float64
	maxPerCategory int
	cooldown       time.Duration
	lookback       time.Duration
	battleDuration time.Duration
	voteRetries    int
	now            func() time.Time

	// Matching cooldown bookkeeping, owned here as the scheduler of passes.
	matchState matching.State

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore injects a pre-built store, mainly for tests.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithMaxContenders bounds how many available contenders one pass reads.
func WithMaxContenders(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxContenders = n
		}
	}
}

// WithMaxMatches sets the default pair cap per pass.
func WithMaxMatches(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxMatches = n
		}
	}
}

// WithMinScore sets the matcher's selection threshold.
func WithMinScore(min float64) Option {
	return func(s *Service) {
		if min > 0 {
			s.minScore = min
		}
	}
}

// WithMaxPerCategory caps same-category pairs per pass.
func WithMaxPerCategory(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPerCategory = n
		}
	}
}

// WithCooldown sets the minimum interval between matching passes.
func WithCooldown(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.cooldown = d
		}
	}
}

// WithLookback sets the anti-repeat lookback window.
func WithLookback(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lookback = d
		}
	}
}

// WithBattleDuration sets how long new battles accept votes.
func WithBattleDuration(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.battleDuration = d
		}
	}
}

// WithVoteRetries bounds optimistic retries per vote transaction.
func WithVoteRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.voteRetries = n
		}
	}
}

// WithTopTrending bounds the dashboard trending list.
func WithTopTrending(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topTrending = n
		}
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		maxContenders: defaultMaxContenders,
		maxMatches:    defaultMaxMatches,
		topTrending:   defaultTopTrending,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting battle service...")

	if s.store == nil {
		var storeOpts []repository.Option
		if s.voteRetries > 0 {
			storeOpts = append(storeOpts, repository.WithMaxRetries(s.voteRetries))
		}
		s.store = repository.NewMemStore(storeOpts...)
		s.logger.Info(ctx, "using in-memory store")
	}

	var scorerOpts []scoring.Option
	if s.lookback > 0 {
		scorerOpts = append(scorerOpts, scoring.WithLookback(s.lookback))
	}
	scorerOpts = append(scorerOpts, scoring.WithClock(s.now))
	s.scorer = scoring.New(scorerOpts...)

	engineOpts := []matching.Option{}
	if s.minScore > 0 {
		engineOpts = append(engineOpts, matching.WithMinScore(s.minScore))
	}
	if s.maxPerCategory > 0 {
		engineOpts = append(engineOpts, matching.WithMaxPerCategory(s.maxPerCategory))
	}
	if s.cooldown > 0 {
		engineOpts = append(engineOpts, matching.WithCooldown(s.cooldown))
	}
	s.engine = matching.New(s.scorer, engineOpts...)

	managerOpts := []battle.ManagerOption{
		battle.WithManagerClock(s.now),
		battle.WithManagerLogger(s.logger.Named("lifecycle")),
	}
	if s.battleDuration > 0 {
		managerOpts = append(managerOpts, battle.WithDuration(s.battleDuration))
	}
	s.lifecycle = battle.NewManager(s.store, managerOpts...)

	s.votes = battle.NewProcessor(s.store,
		battle.WithProcessorClock(s.now),
		battle.WithProcessorLogger(s.logger.Named("votes")),
	)

	s.started = true
	s.logger.Info(ctx, "battle service started",
		logger.Int("maxContenders", s.maxContenders),
		logger.Int("maxMatches", s.maxMatches),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "battle service stopped")
	s.started = false
}

// AddContender registers a new content item at the intake boundary. A
// missing id is assigned; the item starts available.
func (s *Service) AddContender(ctx context.Context, c model.Contender) (model.Contender, error) {
	if c.Title == "" {
		return model.Contender{}, fmt.Errorf("%w: empty title", battle.ErrValidation)
	}
	if c.CreatorID == "" {
		return model.Contender{}, fmt.Errorf("%w: empty creator id", battle.ErrValidation)
	}
	if _, err := types.ParseCategory(string(c.Category)); err != nil {
		return model.Contender{}, fmt.Errorf("%w: %w", battle.ErrValidation, err)
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	c.Status = types.ContenderAvailable
	c.UpdatedAt = s.now()

	if err := s.store.PutContender(ctx, c); err != nil {
		return model.Contender{}, fmt.Errorf("%w: %w", battle.ErrStoreUnavailable, err)
	}
	s.logger.Debug(ctx, "contender added",
		logger.String("contenderID", c.ID),
		logger.String("category", string(c.Category)),
	)
	return c, nil
}

// RunMatchingPass executes one matching pass: read the eligible pool and
// recent history, select pairs, create battles. Pool shortage and empty
// selections return a report with a reason code rather than an error.
func (s *Service) RunMatchingPass(ctx context.Context, maxMatches int) (MatchReport, error) {
	if maxMatches <= 0 {
		maxMatches = s.maxMatches
	}
	now := s.now()

	s.mu.Lock()
	if s.engine.InCooldown(s.matchState, now) {
		s.mu.Unlock()
		metrics.RecordMatchingEmpty(string(types.ReasonCooldown))
		return MatchReport{Reason: types.ReasonCooldown}, nil
	}
	s.mu.Unlock()

	metrics.RecordMatchingPass()

	pool, err := s.store.AvailableContenders(ctx, s.maxContenders)
	if err != nil {
		return MatchReport{}, fmt.Errorf("%w: %w", battle.ErrStoreUnavailable, err)
	}
	metrics.UpdateAvailableContenders(len(pool))
	if len(pool) < 2 {
		metrics.RecordMatchingEmpty(string(types.ReasonInsufficientContenders))
		return MatchReport{Reason: types.ReasonInsufficientContenders, AvailableCount: len(pool)}, nil
	}

	recent, err := s.store.RecentBattles(ctx, now.Add(-s.scorer.Lookback()))
	if err != nil {
		return MatchReport{}, fmt.Errorf("%w: %w", battle.ErrStoreUnavailable, err)
	}

	outcome := s.engine.FindMatches(pool, recent, maxMatches)
	if len(outcome.Pairs) == 0 {
		metrics.RecordMatchingEmpty(string(outcome.Reason))
		return MatchReport{Reason: outcome.Reason, AvailableCount: len(pool)}, nil
	}

	report := MatchReport{AvailableCount: len(pool)}
	for _, pair := range outcome.Pairs {
		created, err := s.lifecycle.Create(ctx, pair.A, pair.B, pair.Score)
		if err != nil {
			// A contender grabbed by a concurrent pass is expected churn,
			// not a pass failure; skip the pair and keep going.
			if errors.Is(err, battle.ErrConflict) || errors.Is(err, battle.ErrValidation) {
				s.logger.Warn(ctx, "skipping stale pair",
					logger.String("contenderA", pair.A.ID),
					logger.String("contenderB", pair.B.ID),
					logger.Error(err),
				)
				continue
			}
			return report, err
		}
		report.MatchesCreated++
		report.Pairs = append(report.Pairs, MatchedPair{
			BattleID:   created.ID,
			ContenderA: pair.A.Title,
			ContenderB: pair.B.Title,
			Category:   pair.A.Category,
			Score:      pair.Score,
		})
	}
	metrics.RecordMatchingPairs(report.MatchesCreated)

	if report.MatchesCreated == 0 {
		report.Reason = types.ReasonNoValidMatches
		metrics.RecordMatchingEmpty(string(types.ReasonNoValidMatches))
		return report, nil
	}

	s.mu.Lock()
	s.matchState.LastRun = now
	s.mu.Unlock()

	s.logger.Info(ctx, "matching pass complete",
		logger.Int("matchesCreated", report.MatchesCreated),
		logger.Int("poolSize", len(pool)),
	)
	return report, nil
}

// CastVote records one vote on an ongoing battle.
func (s *Service) CastVote(ctx context.Context, battleID string, side types.Side, voterID string) (battle.Receipt, error) {
	return s.votes.Vote(ctx, battleID, side, voterID)
}

// FinalizeBattle freezes a battle's result; idempotent.
func (s *Service) FinalizeBattle(ctx context.Context, battleID string) (model.Result, error) {
	return s.lifecycle.Finalize(ctx, battleID)
}

// FinalizeExpired finalizes every ongoing battle past its scheduled end.
// Used by the background sweeper; returns how many battles were frozen.
func (s *Service) FinalizeExpired(ctx context.Context) (int, error) {
	ongoing, err := s.store.OngoingBattles(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", battle.ErrStoreUnavailable, err)
	}
	metrics.UpdateOngoingBattles(len(ongoing))

	now := s.now()
	finalized := 0
	for i := range ongoing {
		if ongoing[i].EndsAt.After(now) {
			continue
		}
		if _, err := s.lifecycle.Finalize(ctx, ongoing[i].ID); err != nil {
			s.logger.Warn(ctx, "failed to finalize expired battle",
				logger.String("battleID", ongoing[i].ID),
				logger.Error(err),
			)
			continue
		}
		finalized++
	}
	return finalized, nil
}

// RecordView counts one view of a battle.
func (s *Service) RecordView(ctx context.Context, battleID string) error {
	return s.votes.RecordView(ctx, battleID)
}

// CountComment counts one comment against a battle.
func (s *Service) CountComment(ctx context.Context, battleID string) error {
	return s.votes.CountComment(ctx, battleID)
}

// Battle returns one battle record.
func (s *Service) Battle(ctx context.Context, battleID string) (model.Battle, error) {
	b, err := s.store.Battle(ctx, battleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Battle{}, fmt.Errorf("%w: %s", battle.ErrNotFound, battleID)
		}
		return model.Battle{}, fmt.Errorf("%w: %w", battle.ErrStoreUnavailable, err)
	}
	return b, nil
}

// Battles lists battles newest first.
func (s *Service) Battles(ctx context.Context, limit int) ([]model.Battle, error) {
	battles, err := s.store.Battles(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", battle.ErrStoreUnavailable, err)
	}
	return battles, nil
}

// BattleAnalytics derives the read-only analytics model for one battle.
func (s *Service) BattleAnalytics(ctx context.Context, battleID string) (analytics.BattleAnalytics, error) {
	b, err := s.Battle(ctx, battleID)
	if err != nil {
		return analytics.BattleAnalytics{}, err
	}
	return analytics.ForBattle(&b, s.now()), nil
}

// Dashboard aggregates analytics across all battles.
func (s *Service) Dashboard(ctx context.Context) (analytics.Dashboard, error) {
	battles, err := s.store.Battles(ctx, 0)
	if err != nil {
		return analytics.Dashboard{}, fmt.Errorf("%w: %w", battle.ErrStoreUnavailable, err)
	}
	return analytics.BuildDashboard(battles, s.now(), s.topTrending), nil
}

// Stats summarizes matcher state for operators.
func (s *Service) Stats(ctx context.Context) (MatchingStats, error) {
	pool, err := s.store.AvailableContenders(ctx, 0)
	if err != nil {
		return MatchingStats{}, fmt.Errorf("%w: %w", battle.ErrStoreUnavailable, err)
	}
	ongoing, err := s.store.OngoingBattles(ctx)
	if err != nil {
		return MatchingStats{}, fmt.Errorf("%w: %w", battle.ErrStoreUnavailable, err)
	}

	stats := MatchingStats{
		AvailableContenders:  len(pool),
		OngoingBattles:       len(ongoing),
		CategoryDistribution: make(map[types.Category]int),
	}
	for i := range pool {
		stats.CategoryDistribution[pool[i].Category]++
	}

	s.mu.Lock()
	stats.LastRun = s.matchState.LastRun
	if s.engine != nil && s.engine.InCooldown(s.matchState, s.now()) {
		stats.CooldownRemaining = s.engine.Cooldown() - s.now().Sub(s.matchState.LastRun)
	}
	s.mu.Unlock()

	metrics.UpdateAvailableContenders(len(pool))
	metrics.UpdateOngoingBattles(len(ongoing))
	return stats, nil
}
