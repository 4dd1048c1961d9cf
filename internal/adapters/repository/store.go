// Package repository defines the persistence port for battles and
// contenders plus an in-memory implementation.
//
// The core depends only on this port: a backend must offer atomic
// single-record read-modify-write and an atomic multi-record commit for
// battle creation. Any store with row versions, document transactions or
// compare-and-swap can satisfy it.
package repository

import (
	"context"
	"time"

	"github.com/okian/versus/internal/domain/model"
)

// UpdateBattleFunc computes the next version of a battle from the current
// one. The store may invoke it more than once when an optimistic write
// loses a race; it must be free of side effects beyond the returned value.
// Returning an error aborts the update without retrying.
type UpdateBattleFunc func(model.Battle) (model.Battle, error)

// UpdateContenderFunc is the contender counterpart of UpdateBattleFunc.
type UpdateContenderFunc func(model.Contender) (model.Contender, error)

// Store provides read/write access to battle and contender records.
type Store interface {
	// PutContender inserts or replaces a contender record.
	PutContender(ctx context.Context, c model.Contender) error

	// Contender returns one contender. Returns ErrNotFound if absent.
	Contender(ctx context.Context, id string) (model.Contender, error)

	// AvailableContenders lists contenders with available status, newest
	// first, capped at limit (unlimited when limit <= 0).
	AvailableContenders(ctx context.Context, limit int) ([]model.Contender, error)

	// UpdateContender applies fn as an atomic read-modify-write.
	UpdateContender(ctx context.Context, id string, fn UpdateContenderFunc) (model.Contender, error)

	// Battle returns one battle. Returns ErrNotFound if absent.
	Battle(ctx context.Context, id string) (model.Battle, error)

	// Battles lists battles newest first, capped at limit (unlimited when
	// limit <= 0).
	Battles(ctx context.Context, limit int) ([]model.Battle, error)

	// RecentBattles lists battles created at or after since, newest first.
	RecentBattles(ctx context.Context, since time.Time) ([]model.Battle, error)

	// OngoingBattles lists battles still accepting votes.
	OngoingBattles(ctx context.Context) ([]model.Battle, error)

	// CreateBattle commits a new battle and flips both contenders to
	// in_battle as one atomic unit. Returns ErrConflict if either
	// contender is no longer available at commit time; nothing is written
	// in that case.
	CreateBattle(ctx context.Context, b model.Battle, contenderA, contenderB string) error

	// UpdateBattle applies fn as an atomic read-modify-write with bounded
	// optimistic retries. Exhausted retries surface as ErrContention; fn
	// errors pass through unwrapped and nothing is written.
	UpdateBattle(ctx context.Context, id string, fn UpdateBattleFunc) (model.Battle, error)
}
