package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	repository "github.com/okian/versus/internal/adapters/repository"
	"github.com/okian/versus/internal/domain/model"
	"github.com/okian/versus/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func contender(id string, status types.ContenderStatus, createdAt time.Time) model.Contender {
	return model.Contender{
		ID:        id,
		CreatorID: "creator-" + id,
		Title:     "Title " + id,
		Category:  types.CategoryMusic,
		Status:    status,
		CreatedAt: createdAt,
	}
}

func battle(id string, status types.BattleStatus, createdAt time.Time) model.Battle {
	return model.Battle{
		ID:           id,
		Title:        "Battle " + id,
		Category:     types.CategoryMusic,
		Status:       status,
		CreatedAt:    createdAt,
		Participants: []string{},
		DailyVotes:   make(map[string]types.Tally),
		HourlyStats:  make(map[string]types.Tally),
	}
}

func TestMemStore_Contenders(t *testing.T) {
	Convey("Given an empty store", t, func() {
		store := repository.NewMemStore()
		ctx := context.Background()

		Convey("When a contender is stored and read back", func() {
			c := contender("a", types.ContenderAvailable, testNow)
			So(store.PutContender(ctx, c), ShouldBeNil)

			got, err := store.Contender(ctx, "a")
			So(err, ShouldBeNil)
			So(got.ID, ShouldEqual, "a")
			So(got.Status, ShouldEqual, types.ContenderAvailable)
		})

		Convey("When reading a missing contender", func() {
			_, err := store.Contender(ctx, "ghost")
			So(err, ShouldEqual, repository.ErrNotFound)
		})

		Convey("When listing available contenders", func() {
			So(store.PutContender(ctx, contender("old", types.ContenderAvailable, testNow.Add(-time.Hour))), ShouldBeNil)
			So(store.PutContender(ctx, contender("new", types.ContenderAvailable, testNow)), ShouldBeNil)
			So(store.PutContender(ctx, contender("busy", types.ContenderInBattle, testNow)), ShouldBeNil)

			Convey("Then only available ones come back, newest first", func() {
				list, err := store.AvailableContenders(ctx, 0)
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 2)
				So(list[0].ID, ShouldEqual, "new")
				So(list[1].ID, ShouldEqual, "old")
			})

			Convey("And the limit caps the list", func() {
				list, err := store.AvailableContenders(ctx, 1)
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 1)
			})
		})

		Convey("When a returned contender is mutated", func() {
			So(store.PutContender(ctx, contender("a", types.ContenderAvailable, testNow)), ShouldBeNil)
			got, err := store.Contender(ctx, "a")
			So(err, ShouldBeNil)
			got.Title = "mutated"

			Convey("Then stored state is unaffected", func() {
				fresh, err := store.Contender(ctx, "a")
				So(err, ShouldBeNil)
				So(fresh.Title, ShouldEqual, "Title a")
			})
		})
	})
}

func TestMemStore_CreateBattle(t *testing.T) {
	Convey("Given a store with two available contenders", t, func() {
		store := repository.NewMemStore()
		ctx := context.Background()
		So(store.PutContender(ctx, contender("a", types.ContenderAvailable, testNow)), ShouldBeNil)
		So(store.PutContender(ctx, contender("b", types.ContenderAvailable, testNow)), ShouldBeNil)

		Convey("When a battle is created", func() {
			So(store.CreateBattle(ctx, battle("b1", types.BattleOngoing, testNow), "a", "b"), ShouldBeNil)

			Convey("Then the battle exists", func() {
				got, err := store.Battle(ctx, "b1")
				So(err, ShouldBeNil)
				So(got.Status, ShouldEqual, types.BattleOngoing)
			})

			Convey("And both contenders flipped in one commit", func() {
				for _, id := range []string{"a", "b"} {
					c, err := store.Contender(ctx, id)
					So(err, ShouldBeNil)
					So(c.Status, ShouldEqual, types.ContenderInBattle)
					So(c.BattleCount, ShouldEqual, 1)
				}
			})

			Convey("And a second battle over the same contender conflicts", func() {
				So(store.PutContender(ctx, contender("c", types.ContenderAvailable, testNow)), ShouldBeNil)
				err := store.CreateBattle(ctx, battle("b2", types.BattleOngoing, testNow), "a", "c")
				So(errors.Is(err, repository.ErrConflict), ShouldBeTrue)

				Convey("And nothing was written for the failed commit", func() {
					_, err := store.Battle(ctx, "b2")
					So(err, ShouldEqual, repository.ErrNotFound)
					c, err := store.Contender(ctx, "c")
					So(err, ShouldBeNil)
					So(c.Status, ShouldEqual, types.ContenderAvailable)
					So(c.BattleCount, ShouldEqual, 0)
				})
			})
		})

		Convey("When a contender is missing", func() {
			err := store.CreateBattle(ctx, battle("b1", types.BattleOngoing, testNow), "a", "ghost")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestMemStore_Battles(t *testing.T) {
	Convey("Given a store with battles in both states", t, func() {
		store := repository.NewMemStore()
		ctx := context.Background()
		seed := func(id string, status types.BattleStatus, createdAt time.Time) {
			So(store.PutContender(ctx, contender("a-"+id, types.ContenderAvailable, createdAt)), ShouldBeNil)
			So(store.PutContender(ctx, contender("b-"+id, types.ContenderAvailable, createdAt)), ShouldBeNil)
			b := battle(id, status, createdAt)
			So(store.CreateBattle(ctx, b, "a-"+id, "b-"+id), ShouldBeNil)
		}
		seed("ongoing-old", types.BattleOngoing, testNow.Add(-2*time.Hour))
		seed("ended", types.BattleEnded, testNow.Add(-time.Hour))
		seed("ongoing-new", types.BattleOngoing, testNow)

		Convey("Then Battles lists newest first", func() {
			list, err := store.Battles(ctx, 0)
			So(err, ShouldBeNil)
			So(len(list), ShouldEqual, 3)
			So(list[0].ID, ShouldEqual, "ongoing-new")
			So(list[2].ID, ShouldEqual, "ongoing-old")
		})

		Convey("Then RecentBattles filters by creation time", func() {
			list, err := store.RecentBattles(ctx, testNow.Add(-90*time.Minute))
			So(err, ShouldBeNil)
			So(len(list), ShouldEqual, 2)
		})

		Convey("Then OngoingBattles filters by status", func() {
			list, err := store.OngoingBattles(ctx)
			So(err, ShouldBeNil)
			So(len(list), ShouldEqual, 2)
			for _, b := range list {
				So(b.Status, ShouldEqual, types.BattleOngoing)
			}
		})
	})
}

func TestMemStore_UpdateBattle(t *testing.T) {
	Convey("Given a store with one battle", t, func() {
		store := repository.NewMemStore()
		ctx := context.Background()
		So(store.PutContender(ctx, contender("a", types.ContenderAvailable, testNow)), ShouldBeNil)
		So(store.PutContender(ctx, contender("b", types.ContenderAvailable, testNow)), ShouldBeNil)
		So(store.CreateBattle(ctx, battle("b1", types.BattleOngoing, testNow), "a", "b"), ShouldBeNil)

		Convey("When an update succeeds", func() {
			updated, err := store.UpdateBattle(ctx, "b1", func(b model.Battle) (model.Battle, error) {
				b.TotalVotes++
				return b, nil
			})
			So(err, ShouldBeNil)
			So(updated.TotalVotes, ShouldEqual, 1)

			got, err := store.Battle(ctx, "b1")
			So(err, ShouldBeNil)
			So(got.TotalVotes, ShouldEqual, 1)
		})

		Convey("When the update fn fails", func() {
			boom := errors.New("boom")
			_, err := store.UpdateBattle(ctx, "b1", func(b model.Battle) (model.Battle, error) {
				b.TotalVotes = 999
				return model.Battle{}, boom
			})

			Convey("Then the error passes through unwrapped and nothing is written", func() {
				So(err, ShouldEqual, boom)
				got, gerr := store.Battle(ctx, "b1")
				So(gerr, ShouldBeNil)
				So(got.TotalVotes, ShouldEqual, 0)
			})
		})

		Convey("When the battle does not exist", func() {
			_, err := store.UpdateBattle(ctx, "ghost", func(b model.Battle) (model.Battle, error) {
				return b, nil
			})
			So(err, ShouldEqual, repository.ErrNotFound)
		})

		Convey("When every attempt loses the version race", func() {
			attempts := 0
			_, err := store.UpdateBattle(ctx, "b1", func(b model.Battle) (model.Battle, error) {
				attempts++
				// A competing writer lands between this fn's read and
				// its commit on every attempt.
				_, uerr := store.UpdateBattle(ctx, "b1", func(inner model.Battle) (model.Battle, error) {
					inner.ViewCount++
					return inner, nil
				})
				So(uerr, ShouldBeNil)
				b.TotalVotes++
				return b, nil
			})

			Convey("Then retries are bounded and surface as contention", func() {
				So(err, ShouldEqual, repository.ErrContention)
				So(attempts, ShouldEqual, 3)
			})
		})

		Convey("When the context is canceled", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := store.UpdateBattle(canceled, "b1", func(b model.Battle) (model.Battle, error) {
				return b, nil
			})
			So(errors.Is(err, repository.ErrUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given a store with a raised retry bound", t, func() {
		store := repository.NewMemStore(repository.WithMaxRetries(64))
		ctx := context.Background()
		So(store.PutContender(ctx, contender("a", types.ContenderAvailable, testNow)), ShouldBeNil)
		So(store.PutContender(ctx, contender("b", types.ContenderAvailable, testNow)), ShouldBeNil)
		So(store.CreateBattle(ctx, battle("b1", types.BattleOngoing, testNow), "a", "b"), ShouldBeNil)

		Convey("When many writers update the same battle concurrently", func() {
			const writers = 32
			var wg sync.WaitGroup
			errs := make([]error, writers)
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = store.UpdateBattle(ctx, "b1", func(b model.Battle) (model.Battle, error) {
						b.TotalVotes++
						return b, nil
					})
				}(i)
			}
			wg.Wait()

			Convey("Then every increment lands exactly once", func() {
				for i := range errs {
					So(errs[i], ShouldBeNil)
				}
				got, err := store.Battle(ctx, "b1")
				So(err, ShouldBeNil)
				So(got.TotalVotes, ShouldEqual, writers)
			})
		})
	})
}

func TestMemStore_UpdateContender(t *testing.T) {
	Convey("Given a store with one contender", t, func() {
		store := repository.NewMemStore()
		ctx := context.Background()
		So(store.PutContender(ctx, contender("a", types.ContenderAvailable, testNow)), ShouldBeNil)

		Convey("When an update succeeds", func() {
			updated, err := store.UpdateContender(ctx, "a", func(c model.Contender) (model.Contender, error) {
				c.Status = types.ContenderWithdrawn
				return c, nil
			})
			So(err, ShouldBeNil)
			So(updated.Status, ShouldEqual, types.ContenderWithdrawn)

			list, err := store.AvailableContenders(ctx, 0)
			So(err, ShouldBeNil)
			So(list, ShouldBeEmpty)
		})

		Convey("When the contender does not exist", func() {
			_, err := store.UpdateContender(ctx, "ghost", func(c model.Contender) (model.Contender, error) {
				return c, nil
			})
			So(err, ShouldEqual, repository.ErrNotFound)
		})
	})
}
