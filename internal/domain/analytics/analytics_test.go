package analytics_test

import (
	"testing"
	"time"

	analytics "github.com/okian/versus/internal/domain/analytics"
	"github.com/okian/versus/internal/domain/model"
	"github.com/okian/versus/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func TestTrendingScore(t *testing.T) {
	Convey("Given a battle with known counters", t, func() {
		b := &model.Battle{
			ID:           "b1",
			TotalVotes:   100,
			ViewCount:    200,
			CommentCount: 10,
			Metrics:      model.Metrics{EngagementRate: 0.5},
			CreatedAt:    testNow,
		}

		Convey("When the battle is brand new", func() {
			Convey("Then the score is the undecayed weighted sum", func() {
				// 100*2 + 200*0.5 + 10*3 + 0.5*100 = 380
				So(analytics.TrendingScore(b, testNow), ShouldEqual, 380)
			})
		})

		Convey("When the battle is half a week old", func() {
			Convey("Then the score decays linearly", func() {
				So(analytics.TrendingScore(b, testNow.Add(84*time.Hour)), ShouldEqual, 190)
			})
		})

		Convey("When the battle is older than a week", func() {
			Convey("Then the score floors at zero", func() {
				So(analytics.TrendingScore(b, testNow.Add(200*time.Hour)), ShouldEqual, 0)
			})
		})
	})
}

func TestGrowthRatio(t *testing.T) {
	Convey("Given a battle with daily buckets", t, func() {
		today := testNow.Format(types.DayKeyLayout)
		yesterday := testNow.AddDate(0, 0, -1).Format(types.DayKeyLayout)

		Convey("When today doubled yesterday's volume", func() {
			b := &model.Battle{DailyVotes: map[string]types.Tally{
				today:     {Total: 20},
				yesterday: {Total: 10},
			}}

			Convey("Then the ratio is two and the battle is rising", func() {
				So(analytics.GrowthRatio(b, testNow), ShouldEqual, 2)
				So(analytics.Rising(b, testNow), ShouldBeTrue)
			})
		})

		Convey("When volume is flat", func() {
			b := &model.Battle{DailyVotes: map[string]types.Tally{
				today:     {Total: 10},
				yesterday: {Total: 10},
			}}

			Convey("Then the battle is not rising", func() {
				So(analytics.GrowthRatio(b, testNow), ShouldEqual, 1)
				So(analytics.Rising(b, testNow), ShouldBeFalse)
			})
		})

		Convey("When yesterday had no votes", func() {
			b := &model.Battle{DailyVotes: map[string]types.Tally{
				today: {Total: 50},
			}}

			Convey("Then the ratio defaults to one", func() {
				So(analytics.GrowthRatio(b, testNow), ShouldEqual, 1)
				So(analytics.Rising(b, testNow), ShouldBeFalse)
			})
		})
	})
}

func TestFindPeakHour(t *testing.T) {
	Convey("Given a battle with hourly buckets", t, func() {
		b := &model.Battle{HourlyStats: map[string]types.Tally{
			"2026-03-14-09": {Total: 3},
			"2026-03-14-18": {Total: 7},
			"2026-03-15-18": {Total: 5},
			"2026-03-15-11": {Total: 4},
		}}

		Convey("Then buckets fold into hour-of-day totals", func() {
			peak := analytics.FindPeakHour(b)
			So(peak, ShouldNotBeNil)
			So(peak.Hour, ShouldEqual, 18)
			So(peak.Votes, ShouldEqual, 12)
		})
	})

	Convey("Given a battle with no votes", t, func() {
		b := &model.Battle{}

		Convey("Then there is no peak hour", func() {
			So(analytics.FindPeakHour(b), ShouldBeNil)
		})
	})
}

func TestLive(t *testing.T) {
	Convey("Given battles at various standings", t, func() {
		Convey("When nobody has voted", func() {
			b := &model.Battle{}
			live := analytics.Live(b)
			So(live.Status, ShouldEqual, "waiting")
			So(live.Leader, ShouldEqual, types.OutcomeTie)
			So(live.PercentageA, ShouldEqual, 50)
			So(live.PercentageB, ShouldEqual, 50)
		})

		Convey("When the margin is within ten percent", func() {
			b := &model.Battle{
				ItemA: model.BattleItem{Votes: 52},
				ItemB: model.BattleItem{Votes: 48},
			}
			live := analytics.Live(b)
			So(live.Status, ShouldEqual, "competitive")
			So(live.Leader, ShouldEqual, types.OutcomeA)
			So(live.Margin, ShouldEqual, 4)
		})

		Convey("When the margin exceeds ten percent", func() {
			b := &model.Battle{
				ItemA: model.BattleItem{Votes: 42},
				ItemB: model.BattleItem{Votes: 58},
			}
			live := analytics.Live(b)
			So(live.Status, ShouldEqual, "leading")
			So(live.Leader, ShouldEqual, types.OutcomeB)
			So(live.PercentageB, ShouldEqual, 58)
		})

		Convey("When the margin exceeds twenty percent", func() {
			b := &model.Battle{
				ItemA: model.BattleItem{Votes: 70},
				ItemB: model.BattleItem{Votes: 30},
			}
			live := analytics.Live(b)
			So(live.Status, ShouldEqual, "dominant")
			So(live.Leader, ShouldEqual, types.OutcomeA)
			So(live.PercentageA, ShouldEqual, 70)
			So(live.Margin, ShouldEqual, 40)
		})
	})
}

func TestBuildDashboard(t *testing.T) {
	Convey("Given a mixed set of battles", t, func() {
		battles := []model.Battle{
			{
				ID:         "b1",
				Title:      "Neon Nights vs Glass",
				Category:   types.CategoryMusic,
				Status:     types.BattleOngoing,
				TotalVotes: 40,
				CreatedAt:  testNow.Add(-2 * time.Hour),
				HourlyStats: map[string]types.Tally{
					"2026-03-15-10": {Total: 25},
					"2026-03-15-11": {Total: 15},
				},
			},
			{
				ID:         "b2",
				Title:      "Street Fit vs Runway",
				Category:   types.CategoryFashion,
				Status:     types.BattleEnded,
				TotalVotes: 10,
				CreatedAt:  testNow.Add(-48 * time.Hour),
				HourlyStats: map[string]types.Tally{
					"2026-03-13-10": {Total: 10},
				},
			},
			{
				ID:         "b3",
				Title:      "Alpha vs Bravo",
				Category:   types.CategoryMusic,
				Status:     types.BattleOngoing,
				TotalVotes: 5,
				CreatedAt:  testNow.Add(-time.Hour),
				HourlyStats: map[string]types.Tally{
					"2026-03-15-11": {Total: 5},
				},
			},
		}

		Convey("When the dashboard is built", func() {
			d := analytics.BuildDashboard(battles, testNow, 8)

			Convey("Then the totals aggregate across battles", func() {
				So(d.TotalBattles, ShouldEqual, 3)
				So(d.OngoingBattles, ShouldEqual, 2)
				So(d.TotalVotes, ShouldEqual, 55)
				So(d.CategoryBattles[types.CategoryMusic], ShouldEqual, 2)
				So(d.CategoryBattles[types.CategoryFashion], ShouldEqual, 1)
			})

			Convey("And hourly buckets merge before the peak is taken", func() {
				So(d.PeakHour, ShouldNotBeNil)
				So(d.PeakHour.Hour, ShouldEqual, 10)
				So(d.PeakHour.Votes, ShouldEqual, 35)
			})

			Convey("And trending ranks highest score first", func() {
				So(len(d.TopTrending), ShouldEqual, 3)
				So(d.TopTrending[0].BattleID, ShouldEqual, "b1")
				for i := 1; i < len(d.TopTrending); i++ {
					So(d.TopTrending[i].TrendingScore,
						ShouldBeLessThanOrEqualTo, d.TopTrending[i-1].TrendingScore)
				}
			})
		})

		Convey("When the trending list is capped", func() {
			d := analytics.BuildDashboard(battles, testNow, 2)
			So(len(d.TopTrending), ShouldEqual, 2)
		})
	})

	Convey("Given no battles", t, func() {
		d := analytics.BuildDashboard(nil, testNow, 8)
		So(d.TotalBattles, ShouldEqual, 0)
		So(d.PeakHour, ShouldBeNil)
		So(d.TopTrending, ShouldBeEmpty)
	})
}

func TestForBattle(t *testing.T) {
	Convey("Given a live battle with history", t, func() {
		today := testNow.Format(types.DayKeyLayout)
		yesterday := testNow.AddDate(0, 0, -1).Format(types.DayKeyLayout)
		b := &model.Battle{
			ID:         "b1",
			Status:     types.BattleOngoing,
			TotalVotes: 30,
			ItemA:      model.BattleItem{Votes: 20},
			ItemB:      model.BattleItem{Votes: 10},
			CreatedAt:  testNow.Add(-24 * time.Hour),
			Metrics:    model.Metrics{EngagementRate: 0.25},
			DailyVotes: map[string]types.Tally{
				today:     {Total: 20},
				yesterday: {Total: 10},
			},
			HourlyStats: map[string]types.Tally{
				"2026-03-15-11": {Total: 30},
			},
		}

		Convey("When the full read model is assembled", func() {
			a := analytics.ForBattle(b, testNow)

			Convey("Then every derived signal is present and consistent", func() {
				So(a.BattleID, ShouldEqual, "b1")
				So(a.EngagementRate, ShouldEqual, 0.25)
				So(a.GrowthRatio, ShouldEqual, 2)
				So(a.Rising, ShouldBeTrue)
				So(a.PeakHour, ShouldNotBeNil)
				So(a.PeakHour.Hour, ShouldEqual, 11)
				So(a.Live.Status, ShouldEqual, "dominant")
				So(a.Live.Leader, ShouldEqual, types.OutcomeA)
				// (30*2 + 0.25*100) * (1 - 24/168)
				So(a.TrendingScore, ShouldAlmostEqual, 72.86, 0.01)
			})
		})
	})
}
