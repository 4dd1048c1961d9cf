package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/versus/internal/domain/model"
	"github.com/okian/versus/internal/domain/types"
	"github.com/okian/versus/pkg/metrics"
)

// Default store configuration constants.
const (
	defaultMaxRetries = 3
)

// versionedBattle pairs a battle snapshot with its write version.
type versionedBattle struct {
	battle  model.Battle
	version uint64
	seq     uint64
}

// versionedContender pairs a contender snapshot with its write version.
type versionedContender struct {
	contender model.Contender
	version   uint64
	seq       uint64
}

// MemStore is an in-memory Store with per-record versions. Updates follow
// the optimistic contract: read a snapshot, compute the next version
// outside the lock, commit only if the version is unchanged, retry
// otherwise up to the configured bound.
type MemStore struct {
	mu         sync.RWMutex
	battles    map[string]*versionedBattle
	contenders map[string]*versionedContender
	seq        uint64
	maxRetries int
}

// NewMemStore creates a new in-memory store with configuration options.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		battles:    make(map[string]*versionedBattle),
		contenders: make(map[string]*versionedContender),
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PutContender inserts or replaces a contender record.
func (s *MemStore) PutContender(ctx context.Context, c model.Contender) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	if existing, ok := s.contenders[c.ID]; ok {
		existing.contender = c.Clone()
		existing.version++
		return nil
	}
	s.contenders[c.ID] = &versionedContender{contender: c.Clone(), seq: s.seq}
	return nil
}

// Contender returns one contender by id.
func (s *MemStore) Contender(ctx context.Context, id string) (model.Contender, error) {
	if err := ctx.Err(); err != nil {
		return model.Contender{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	vc, ok := s.contenders[id]
	if !ok {
		return model.Contender{}, ErrNotFound
	}
	return vc.contender.Clone(), nil
}

// AvailableContenders lists available contenders newest first.
func (s *MemStore) AvailableContenders(ctx context.Context, limit int) ([]model.Contender, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	type ordered struct {
		c   model.Contender
		seq uint64
	}
	out := make([]ordered, 0, len(s.contenders))
	for _, vc := range s.contenders {
		if vc.contender.Status == types.ContenderAvailable {
			out = append(out, ordered{c: vc.contender.Clone(), seq: vc.seq})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].c.CreatedAt.Equal(out[j].c.CreatedAt) {
			return out[i].c.CreatedAt.After(out[j].c.CreatedAt)
		}
		return out[i].seq > out[j].seq
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	result := make([]model.Contender, len(out))
	for i := range out {
		result[i] = out[i].c
	}
	return result, nil
}

// UpdateContender applies fn as an atomic read-modify-write.
func (s *MemStore) UpdateContender(ctx context.Context, id string, fn UpdateContenderFunc) (model.Contender, error) {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return model.Contender{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}

		s.mu.RLock()
		vc, ok := s.contenders[id]
		if !ok {
			s.mu.RUnlock()
			return model.Contender{}, ErrNotFound
		}
		snapshot := vc.contender.Clone()
		version := vc.version
		s.mu.RUnlock()

		next, err := fn(snapshot)
		if err != nil {
			return model.Contender{}, err
		}

		s.mu.Lock()
		vc, ok = s.contenders[id]
		if !ok {
			s.mu.Unlock()
			return model.Contender{}, ErrNotFound
		}
		if vc.version != version {
			s.mu.Unlock()
			metrics.RecordStoreRetry()
			continue
		}
		vc.contender = next.Clone()
		vc.version++
		s.mu.Unlock()
		return next, nil
	}
	return model.Contender{}, ErrContention
}

// Battle returns one battle by id.
func (s *MemStore) Battle(ctx context.Context, id string) (model.Battle, error) {
	if err := ctx.Err(); err != nil {
		return model.Battle{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	vb, ok := s.battles[id]
	if !ok {
		return model.Battle{}, ErrNotFound
	}
	return vb.battle.Clone(), nil
}

// Battles lists battles newest first.
func (s *MemStore) Battles(ctx context.Context, limit int) ([]model.Battle, error) {
	return s.listBattles(ctx, limit, func(*model.Battle) bool { return true })
}

// RecentBattles lists battles created at or after since.
func (s *MemStore) RecentBattles(ctx context.Context, since time.Time) ([]model.Battle, error) {
	return s.listBattles(ctx, 0, func(b *model.Battle) bool {
		return !b.CreatedAt.Before(since)
	})
}

// OngoingBattles lists battles still accepting votes.
func (s *MemStore) OngoingBattles(ctx context.Context) ([]model.Battle, error) {
	return s.listBattles(ctx, 0, func(b *model.Battle) bool {
		return b.Status == types.BattleOngoing
	})
}

func (s *MemStore) listBattles(ctx context.Context, limit int, keep func(*model.Battle) bool) ([]model.Battle, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	type ordered struct {
		b   model.Battle
		seq uint64
	}
	out := make([]ordered, 0, len(s.battles))
	for _, vb := range s.battles {
		if keep(&vb.battle) {
			out = append(out, ordered{b: vb.battle.Clone(), seq: vb.seq})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].b.CreatedAt.Equal(out[j].b.CreatedAt) {
			return out[i].b.CreatedAt.After(out[j].b.CreatedAt)
		}
		return out[i].seq > out[j].seq
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	result := make([]model.Battle, len(out))
	for i := range out {
		result[i] = out[i].b
	}
	return result, nil
}

// CreateBattle commits the battle and both contender flips as one atomic
// unit. The availability of both contenders is re-checked under the lock;
// a stale contender aborts the whole commit with ErrConflict.
func (s *MemStore) CreateBattle(ctx context.Context, b model.Battle, contenderA, contenderB string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	vca, ok := s.contenders[contenderA]
	if !ok {
		return fmt.Errorf("%w: contender %s", ErrNotFound, contenderA)
	}
	vcb, ok := s.contenders[contenderB]
	if !ok {
		return fmt.Errorf("%w: contender %s", ErrNotFound, contenderB)
	}
	if vca.contender.Status != types.ContenderAvailable {
		return fmt.Errorf("%w: contender %s is %s", ErrConflict, contenderA, vca.contender.Status)
	}
	if vcb.contender.Status != types.ContenderAvailable {
		return fmt.Errorf("%w: contender %s is %s", ErrConflict, contenderB, vcb.contender.Status)
	}
	if _, exists := s.battles[b.ID]; exists {
		return fmt.Errorf("%w: battle %s already exists", ErrConflict, b.ID)
	}

	for _, vc := range []*versionedContender{vca, vcb} {
		vc.contender.Status = types.ContenderInBattle
		vc.contender.BattleCount++
		vc.contender.UpdatedAt = b.CreatedAt
		vc.version++
	}

	s.seq++
	s.battles[b.ID] = &versionedBattle{battle: b.Clone(), seq: s.seq}
	return nil
}

// UpdateBattle applies fn with bounded optimistic retries.
func (s *MemStore) UpdateBattle(ctx context.Context, id string, fn UpdateBattleFunc) (model.Battle, error) {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return model.Battle{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}

		s.mu.RLock()
		vb, ok := s.battles[id]
		if !ok {
			s.mu.RUnlock()
			return model.Battle{}, ErrNotFound
		}
		snapshot := vb.battle.Clone()
		version := vb.version
		s.mu.RUnlock()

		next, err := fn(snapshot)
		if err != nil {
			return model.Battle{}, err
		}

		s.mu.Lock()
		vb, ok = s.battles[id]
		if !ok {
			s.mu.Unlock()
			return model.Battle{}, ErrNotFound
		}
		if vb.version != version {
			s.mu.Unlock()
			metrics.RecordStoreRetry()
			continue
		}
		vb.battle = next.Clone()
		vb.version++
		s.mu.Unlock()
		return next, nil
	}
	return model.Battle{}, ErrContention
}
