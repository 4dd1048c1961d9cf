// Package analytics derives read-only secondary signals from battle
// counters.
//
// Every function here is a pure derivation over stored state: safe to run
// concurrently, redundantly, and against slightly stale snapshots.
package analytics

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/versus/internal/domain/model"
	"github.com/okian/versus/internal/domain/types"
)

// Formula constants.
const (
	voteWeight       = 2.0
	viewWeight       = 0.5
	commentWeight    = 3.0
	engagementWeight = 100.0
	decayHours       = 168 // 7-day linear decay to zero

	risingThreshold = 1.5

	dominantMarginShare = 0.2
	leadingMarginShare  = 0.1
)

// LiveStatus describes the current standing of a battle for display.
type LiveStatus struct {
	Status      string        `json:"status"` // waiting | competitive | leading | dominant
	Leader      types.Outcome `json:"leader"`
	PercentageA int           `json:"percentage_a"`
	PercentageB int           `json:"percentage_b"`
	Margin      int           `json:"margin"`
}

// PeakHour is the hour of day with the most recorded votes.
type PeakHour struct {
	Hour  int `json:"hour"`
	Votes int `json:"votes"`
}

// BattleAnalytics bundles the derived read model for a single battle.
type BattleAnalytics struct {
	BattleID       string     `json:"battle_id"`
	TrendingScore  float64    `json:"trending_score"`
	EngagementRate float64    `json:"engagement_rate"`
	GrowthRatio    float64    `json:"growth_ratio"`
	Rising         bool       `json:"rising"`
	PeakHour       *PeakHour  `json:"peak_hour,omitempty"`
	Live           LiveStatus `json:"live"`
}

// Dashboard aggregates signals across many battles for the overview page.
type Dashboard struct {
	TotalBattles    int                    `json:"total_battles"`
	OngoingBattles  int                    `json:"ongoing_battles"`
	TotalVotes      int                    `json:"total_votes"`
	CategoryBattles map[types.Category]int `json:"category_battles"`
	PeakHour        *PeakHour              `json:"peak_hour,omitempty"`
	TopTrending     []TrendingEntry        `json:"top_trending"`
}

// TrendingEntry ranks one battle on the dashboard.
type TrendingEntry struct {
	BattleID      string  `json:"battle_id"`
	Title         string  `json:"title"`
	TrendingScore float64 `json:"trending_score"`
	TotalVotes    int     `json:"total_votes"`
	Rising        bool    `json:"rising"`
}

// TrendingScore computes the decayed popularity signal:
// (votes*2 + views*0.5 + comments*3 + engagement*100) * timeDecay, where
// timeDecay falls linearly from 1 to 0 over seven days.
func TrendingScore(b *model.Battle, now time.Time) float64 {
	decay := math.Max(0, 1-b.AgeHours(now)/decayHours)
	base := float64(b.TotalVotes)*voteWeight +
		float64(b.ViewCount)*viewWeight +
		float64(b.CommentCount)*commentWeight +
		b.Metrics.EngagementRate*engagementWeight
	return math.Round(base*decay*100) / 100
}

// GrowthRatio compares today's bucketed votes against yesterday's. A zero
// yesterday reads as ratio 1 so brand-new battles are neither rising nor
// falling by definition.
func GrowthRatio(b *model.Battle, now time.Time) float64 {
	today := b.DailyVotes[now.Format(types.DayKeyLayout)].Total
	yesterday := b.DailyVotes[now.AddDate(0, 0, -1).Format(types.DayKeyLayout)].Total
	if yesterday == 0 {
		return 1
	}
	return float64(today) / float64(yesterday)
}

// Rising reports whether the battle's vote volume is accelerating.
func Rising(b *model.Battle, now time.Time) bool {
	return GrowthRatio(b, now) > risingThreshold
}

// FindPeakHour returns the hour of day with the highest vote total across
// the battle's hourly buckets, or nil when no votes were recorded.
func FindPeakHour(b *model.Battle) *PeakHour {
	return peakFromBuckets(b.HourlyStats)
}

// Live derives the current standing for display.
func Live(b *model.Battle) LiveStatus {
	votesA, votesB := b.ItemA.Votes, b.ItemB.Votes
	total := votesA + votesB
	if total == 0 {
		return LiveStatus{
			Status:      "waiting",
			Leader:      types.OutcomeTie,
			PercentageA: 50,
			PercentageB: 50,
		}
	}

	pctA := int(math.Round(float64(votesA) / float64(total) * 100))
	margin := abs(votesA - votesB)

	leader := types.OutcomeTie
	if votesA > votesB {
		leader = types.OutcomeA
	} else if votesB > votesA {
		leader = types.OutcomeB
	}

	status := "competitive"
	switch {
	case float64(margin) > float64(total)*dominantMarginShare:
		status = "dominant"
	case float64(margin) > float64(total)*leadingMarginShare:
		status = "leading"
	}

	return LiveStatus{
		Status:      status,
		Leader:      leader,
		PercentageA: pctA,
		PercentageB: 100 - pctA,
		Margin:      margin,
	}
}

// ForBattle assembles the full derived read model for one battle.
func ForBattle(b *model.Battle, now time.Time) BattleAnalytics {
	return BattleAnalytics{
		BattleID:       b.ID,
		TrendingScore:  TrendingScore(b, now),
		EngagementRate: b.Metrics.EngagementRate,
		GrowthRatio:    GrowthRatio(b, now),
		Rising:         Rising(b, now),
		PeakHour:       FindPeakHour(b),
		Live:           Live(b),
	}
}

// BuildDashboard aggregates across all battles. topN bounds the trending
// list.
func BuildDashboard(battles []model.Battle, now time.Time, topN int) Dashboard {
	d := Dashboard{
		TotalBattles:    len(battles),
		CategoryBattles: make(map[types.Category]int),
	}

	merged := make(map[string]types.Tally)
	for i := range battles {
		b := &battles[i]
		d.TotalVotes += b.TotalVotes
		d.CategoryBattles[b.Category]++
		if b.Status == types.BattleOngoing {
			d.OngoingBattles++
		}
		for key, tally := range b.HourlyStats {
			t := merged[key]
			t.ItemA += tally.ItemA
			t.ItemB += tally.ItemB
			t.Total += tally.Total
			merged[key] = t
		}
		d.TopTrending = append(d.TopTrending, TrendingEntry{
			BattleID:      b.ID,
			Title:         b.Title,
			TrendingScore: TrendingScore(b, now),
			TotalVotes:    b.TotalVotes,
			Rising:        Rising(b, now),
		})
	}

	d.PeakHour = peakFromBuckets(merged)

	sort.SliceStable(d.TopTrending, func(i, j int) bool {
		return d.TopTrending[i].TrendingScore > d.TopTrending[j].TrendingScore
	})
	if topN > 0 && len(d.TopTrending) > topN {
		d.TopTrending = d.TopTrending[:topN]
	}
	return d
}

// peakFromBuckets folds hour-keyed buckets (yyyy-mm-dd-hh) into hour-of-day
// totals and returns the argmax. Ties resolve to the earlier hour.
func peakFromBuckets(buckets map[string]types.Tally) *PeakHour {
	if len(buckets) == 0 {
		return nil
	}
	var totals [24]int
	found := false
	for key, tally := range buckets {
		idx := strings.LastIndex(key, "-")
		if idx < 0 {
			continue
		}
		hour, err := strconv.Atoi(key[idx+1:])
		if err != nil || hour < 0 || hour > 23 {
			continue
		}
		totals[hour] += tally.Total
		found = true
	}
	if !found {
		return nil
	}
	peak := 0
	for h := 1; h < 24; h++ {
		if totals[h] > totals[peak] {
			peak = h
		}
	}
	if totals[peak] == 0 {
		return nil
	}
	return &PeakHour{Hour: peak, Votes: totals[peak]}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
