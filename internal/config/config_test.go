package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/versus/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.MaxContenders, convey.ShouldEqual, 50)
			convey.So(cfg.MaxMatches, convey.ShouldEqual, 3)
			convey.So(cfg.MinMatchScore, convey.ShouldEqual, 50)
			convey.So(cfg.MaxPerCategory, convey.ShouldEqual, 2)
			convey.So(cfg.MatchingCooldown, convey.ShouldEqual, 5*time.Minute)
			convey.So(cfg.RepeatLookback, convey.ShouldEqual, 7*24*time.Hour)
			convey.So(cfg.BattleDuration, convey.ShouldEqual, 7*24*time.Hour)
			convey.So(cfg.VoteRetries, convey.ShouldEqual, 3)
			convey.So(cfg.SweepInterval, convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.TopTrending, convey.ShouldEqual, 8)
			convey.So(cfg.MaxBattleListLimit, convey.ShouldEqual, 100)
		})
	})
}
