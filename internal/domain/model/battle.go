package model

import (
	"slices"
	"time"

	"github.com/okian/versus/internal/domain/types"
)

// BattleItem is a snapshot of one contender at pairing time plus its
// mutable vote count.
type BattleItem struct {
	ContenderID string `json:"contender_id"`
	CreatorID   string `json:"creator_id"`
	CreatorName string `json:"creator_name"`
	Title       string `json:"title"`
	ImageURL    string `json:"image_url"`
	Votes       int    `json:"votes"`
}

// Leader is the live standing of an ongoing battle, recomputed on every
// vote.
type Leader struct {
	Winner     types.Outcome `json:"winner"`
	Percentage int           `json:"percentage"`
	Margin     int           `json:"margin"`
}

// Result is the frozen outcome of an ended battle. It is written exactly
// once by finalize and never mutated afterwards.
type Result struct {
	Winner        types.Outcome `json:"winner"`
	WinnerVotes   int           `json:"winner_votes"`
	LoserVotes    int           `json:"loser_votes"`
	WinPercentage float64       `json:"win_percentage"`
	Margin        int           `json:"margin"`
	TotalVotes    int           `json:"total_votes"`
}

// Metrics holds derived engagement figures maintained alongside the raw
// counters.
type Metrics struct {
	EngagementRate float64 `json:"engagement_rate"`
	CommentRate    float64 `json:"comment_rate"`
}

// Battle pairs exactly two contenders and accumulates votes until it is
// finalized. Invariants: ItemA.Votes + ItemB.Votes == TotalVotes at all
// times; a voter id appears in Participants at most once; daily and hourly
// bucket sums equal the item totals; once Status is ended nothing mutates.
type Battle struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Category     types.Category `json:"category"`
	ItemA        BattleItem     `json:"itemA"`
	ItemB        BattleItem     `json:"itemB"`
	TotalVotes   int            `json:"total_votes"`
	Participants []string       `json:"participants"`

	Status    types.BattleStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	EndsAt    time.Time          `json:"ends_at"`
	EndedAt   *time.Time         `json:"ended_at,omitempty"`

	DailyVotes  map[string]types.Tally `json:"daily_votes"`
	HourlyStats map[string]types.Tally `json:"hourly_stats"`

	CurrentLeader *Leader `json:"current_leader,omitempty"`
	Result        *Result `json:"result,omitempty"`

	ViewCount    int     `json:"view_count"`
	CommentCount int     `json:"comment_count"`
	Metrics      Metrics `json:"metrics"`

	MatchScore float64    `json:"match_score"`
	LastVoteAt *time.Time `json:"last_vote_at,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Item returns the slot for the given side.
func (b *Battle) Item(side types.Side) *BattleItem {
	if side == types.SideA {
		return &b.ItemA
	}
	return &b.ItemB
}

// HasVoted reports whether voterID already appears in the participant set.
func (b *Battle) HasVoted(voterID string) bool {
	return slices.Contains(b.Participants, voterID)
}

// PairsWith reports whether this battle pairs the two contender ids, in
// either order.
func (b *Battle) PairsWith(idA, idB string) bool {
	return (b.ItemA.ContenderID == idA && b.ItemB.ContenderID == idB) ||
		(b.ItemA.ContenderID == idB && b.ItemB.ContenderID == idA)
}

// AgeHours returns the fractional hours elapsed since creation.
func (b *Battle) AgeHours(now time.Time) float64 {
	if now.Before(b.CreatedAt) {
		return 0
	}
	return now.Sub(b.CreatedAt).Hours()
}

// Clone returns a deep copy so callers can mutate candidate versions
// without aliasing stored state.
func (b Battle) Clone() Battle {
	out := b
	out.Participants = slices.Clone(b.Participants)
	out.DailyVotes = cloneTallies(b.DailyVotes)
	out.HourlyStats = cloneTallies(b.HourlyStats)
	if b.CurrentLeader != nil {
		l := *b.CurrentLeader
		out.CurrentLeader = &l
	}
	if b.Result != nil {
		r := *b.Result
		out.Result = &r
	}
	if b.EndedAt != nil {
		t := *b.EndedAt
		out.EndedAt = &t
	}
	if b.LastVoteAt != nil {
		t := *b.LastVoteAt
		out.LastVoteAt = &t
	}
	return out
}

func cloneTallies(in map[string]types.Tally) map[string]types.Tally {
	if in == nil {
		return nil
	}
	out := make(map[string]types.Tally, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
