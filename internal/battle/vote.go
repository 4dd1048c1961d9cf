package battle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/okian/versus/internal/adapters/repository"
	"github.com/okian/versus/internal/domain/model"
	"github.com/okian/versus/internal/domain/types"
	"github.com/okian/versus/pkg/logger"
	"github.com/okian/versus/pkg/metrics"
)

// Receipt is returned to the voter after a successful vote.
type Receipt struct {
	BattleID   string       `json:"battle_id"`
	Side       types.Side   `json:"side"`
	VotesA     int          `json:"votes_a"`
	VotesB     int          `json:"votes_b"`
	TotalVotes int          `json:"total_votes"`
	Leader     model.Leader `json:"leader"`
}

// ProcessorOption applies a configuration option to the Processor.
type ProcessorOption func(*Processor)

// WithProcessorClock overrides the time source, mainly for tests.
func WithProcessorClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// WithProcessorLogger sets a custom logger.
func WithProcessorLogger(l logger.Logger) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// Processor applies votes as single atomic read-modify-write transactions
// against the battle record. It touches nothing beyond that one record:
// cross-cutting effects like point rewards are the caller's separate,
// independently-failing concern, and a recorded vote is never rolled back
// because such a step failed.
type Processor struct {
	store  repository.Store
	now    func() time.Time
	logger logger.Logger
}

// NewProcessor creates a vote processor with configuration options.
func NewProcessor(store repository.Store, opts ...ProcessorOption) *Processor {
	p := &Processor{
		store:  store,
		now:    time.Now,
		logger: logger.Get().Named("votes"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Vote records one vote. The participant set is the sole defense against
// double voting; there is no separate idempotency key. On a store-level
// write race the whole transaction re-runs from a fresh read; exhausted
// retries surface as ErrContention with counters untouched.
func (p *Processor) Vote(ctx context.Context, battleID string, side types.Side, voterID string) (Receipt, error) {
	if voterID == "" {
		return Receipt{}, fmt.Errorf("%w: empty voter id", ErrValidation)
	}
	if side != types.SideA && side != types.SideB {
		return Receipt{}, fmt.Errorf("%w: invalid side %q", ErrValidation, side)
	}

	start := p.now()
	updated, err := p.store.UpdateBattle(ctx, battleID, func(b model.Battle) (model.Battle, error) {
		if b.Status != types.BattleOngoing {
			return model.Battle{}, fmt.Errorf("%w: battle %s is %s", ErrBattleClosed, battleID, b.Status)
		}
		if b.HasVoted(voterID) {
			return model.Battle{}, fmt.Errorf("%w: voter %s on battle %s", ErrDuplicateVote, voterID, battleID)
		}

		now := p.now()
		b.Item(side).Votes++
		b.TotalVotes++
		b.Participants = append(b.Participants, voterID)

		// Time-bucketed aggregates, created on first use.
		if b.DailyVotes == nil {
			b.DailyVotes = make(map[string]types.Tally)
		}
		if b.HourlyStats == nil {
			b.HourlyStats = make(map[string]types.Tally)
		}
		day := b.DailyVotes[now.Format(types.DayKeyLayout)]
		day.Add(side)
		b.DailyVotes[now.Format(types.DayKeyLayout)] = day
		hour := b.HourlyStats[now.Format(types.HourKeyLayout)]
		hour.Add(side)
		b.HourlyStats[now.Format(types.HourKeyLayout)] = hour

		leader := computeLeader(&b)
		b.CurrentLeader = &leader
		b.Metrics.EngagementRate = engagementRate(b.TotalVotes, b.ViewCount)
		b.LastVoteAt = &now
		b.UpdatedAt = now
		return b, nil
	})
	if err != nil {
		err = translateStoreErr(err)
		p.recordFailure(err)
		return Receipt{}, err
	}

	metrics.RecordVote()
	metrics.RecordVoteLatency(float64(p.now().Sub(start).Milliseconds()))
	p.logger.Debug(ctx, "vote recorded",
		logger.String("battleID", battleID),
		logger.String("side", string(side)),
		logger.Int("totalVotes", updated.TotalVotes),
	)
	return Receipt{
		BattleID:   battleID,
		Side:       side,
		VotesA:     updated.ItemA.Votes,
		VotesB:     updated.ItemB.Votes,
		TotalVotes: updated.TotalVotes,
		Leader:     *updated.CurrentLeader,
	}, nil
}

// RecordView bumps the view counter and refreshes the engagement rate,
// which uses views as its denominator.
func (p *Processor) RecordView(ctx context.Context, battleID string) error {
	now := p.now()
	_, err := p.store.UpdateBattle(ctx, battleID, func(b model.Battle) (model.Battle, error) {
		b.ViewCount++
		b.Metrics.EngagementRate = engagementRate(b.TotalVotes, b.ViewCount)
		b.Metrics.CommentRate = engagementRate(b.CommentCount, b.ViewCount)
		b.UpdatedAt = now
		return b, nil
	})
	return translateStoreErr(err)
}

// CountComment bumps the comment counter consumed by the trending formula.
// Comment storage and threading live outside this core.
func (p *Processor) CountComment(ctx context.Context, battleID string) error {
	now := p.now()
	_, err := p.store.UpdateBattle(ctx, battleID, func(b model.Battle) (model.Battle, error) {
		b.CommentCount++
		b.Metrics.CommentRate = engagementRate(b.CommentCount, b.ViewCount)
		b.UpdatedAt = now
		return b, nil
	})
	return translateStoreErr(err)
}

// computeLeader recomputes the live standing: strictly more votes wins,
// equality is a tie at 50 percent.
func computeLeader(b *model.Battle) model.Leader {
	votesA, votesB := b.ItemA.Votes, b.ItemB.Votes
	total := votesA + votesB

	leader := model.Leader{Winner: types.OutcomeTie, Percentage: 50}
	if total == 0 {
		return leader
	}
	leader.Margin = abs(votesA - votesB)
	switch {
	case votesA > votesB:
		leader.Winner = types.OutcomeA
		leader.Percentage = roundPct(votesA, total)
	case votesB > votesA:
		leader.Winner = types.OutcomeB
		leader.Percentage = roundPct(votesB, total)
	default:
		leader.Percentage = 50
	}
	return leader
}

func (p *Processor) recordFailure(err error) {
	switch {
	case errors.Is(err, ErrDuplicateVote):
		metrics.RecordDuplicateVote()
	case errors.Is(err, ErrBattleClosed):
		metrics.RecordVoteRejected("closed")
	case errors.Is(err, ErrNotFound):
		metrics.RecordVoteRejected("not_found")
	case errors.Is(err, ErrContention):
		metrics.RecordVoteContention()
	}
}

func roundPct(part, total int) int {
	return int(math.Round(float64(part) / float64(total) * 100))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
