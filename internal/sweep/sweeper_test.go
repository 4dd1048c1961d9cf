package sweep_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/versus/internal/sweep"
	"github.com/okian/versus/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

type fakeFinalizer struct {
	calls atomic.Int64
	err   error
}

func (f *fakeFinalizer) FinalizeExpired(_ context.Context) (int, error) {
	f.calls.Add(1)
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

func TestSweeper(t *testing.T) {
	Convey("Given a sweeper over a fake finalizer", t, func() {
		Convey("When the sweeper runs", func() {
			fin := &fakeFinalizer{}
			s := sweep.New(fin, sweep.WithInterval(5*time.Millisecond))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go s.Run(ctx)

			Convey("Then it sweeps immediately and again on each tick", func() {
				deadline := time.Now().Add(time.Second)
				for fin.calls.Load() < 3 && time.Now().Before(deadline) {
					time.Sleep(time.Millisecond)
				}
				So(fin.calls.Load(), ShouldBeGreaterThanOrEqualTo, 3)
				So(s.Shutdown(context.Background()), ShouldBeNil)
			})
		})

		Convey("When a pass fails", func() {
			fin := &fakeFinalizer{err: errors.New("store down")}
			s := sweep.New(fin, sweep.WithInterval(5*time.Millisecond))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go s.Run(ctx)

			Convey("Then the loop keeps sweeping", func() {
				deadline := time.Now().Add(time.Second)
				for fin.calls.Load() < 2 && time.Now().Before(deadline) {
					time.Sleep(time.Millisecond)
				}
				So(fin.calls.Load(), ShouldBeGreaterThanOrEqualTo, 2)
				So(s.Shutdown(context.Background()), ShouldBeNil)
			})
		})

		Convey("When the context is canceled", func() {
			fin := &fakeFinalizer{}
			s := sweep.New(fin, sweep.WithInterval(time.Hour))

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				s.Run(ctx)
				close(done)
			}()
			cancel()

			Convey("Then the loop returns", func() {
				select {
				case <-done:
				case <-time.After(time.Second):
					t.Fatal("sweeper did not stop after cancel")
				}
				So(fin.calls.Load(), ShouldEqual, 1)
			})
		})
	})
}
