package main

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/udisondev/bossai/internal/db"
	"github.com/udisondev/bossai/internal/model"
	"github.com/udisondev/bossai/internal/raid"
)

// bossStoreAdapter adapts db.BossRepository to raid.BossStore.
type bossStoreAdapter struct {
	repo *db.BossRepository
}

func (a *bossStoreAdapter) LoadAllBosses(ctx context.Context) ([]raid.BossStateRow, error) {
	rows, err := a.repo.LoadAllBosses(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]raid.BossStateRow, 0, len(rows))
	for _, r := range rows {
		kind := parseStoredBehavior(r.Behavior, r.BossID)
		result = append(result, raid.BossStateRow{
			BossID:      uint32(r.BossID),
			Name:        r.Name,
			EncounterID: r.EncounterID,
			Behavior:    kind,
			Status:      model.BossStatus(r.Status),
			Position:    model.NewVec3(r.PosX, r.PosY, r.PosZ),
			Health:      r.Health,
			MaxHealth:   r.MaxHealth,
			UpdatedAt:   r.UpdatedAt,
		})
	}
	return result, nil
}

func (a *bossStoreAdapter) SaveBoss(ctx context.Context, row raid.BossStateRow) error {
	return a.repo.SaveBoss(ctx, toDBBossRow(row))
}

func (a *bossStoreAdapter) SaveBosses(ctx context.Context, rows []raid.BossStateRow) error {
	dbRows := make([]db.BossStateRow, len(rows))
	for i, r := range rows {
		dbRows[i] = toDBBossRow(r)
	}
	return a.repo.SaveAllBosses(ctx, dbRows)
}

func (a *bossStoreAdapter) AppendTransitions(ctx context.Context, rows []raid.TransitionRow) error {
	dbRows := make([]db.BossTransitionRow, len(rows))
	for i, r := range rows {
		dbRows[i] = db.BossTransitionRow{
			BossID:       int64(r.BossID),
			EncounterID:  r.EncounterID,
			FromBehavior: behaviorName(r.From),
			ToBehavior:   behaviorName(r.To),
			Requested:    behaviorName(r.Requested),
			Reason:       r.Reason,
			Tick:         r.Tick,
			At:           r.At,
		}
	}
	n, err := a.repo.AppendTransitions(ctx, dbRows)
	if err != nil {
		return err
	}
	if n != int64(len(rows)) {
		return fmt.Errorf("appended %d of %d transitions", n, len(rows))
	}
	return nil
}

func (a *bossStoreAdapter) ListTransitions(ctx context.Context, bossID uint32, limit int) ([]raid.TransitionRow, error) {
	rows, err := a.repo.ListTransitions(ctx, int64(bossID), limit)
	if err != nil {
		return nil, err
	}
	result := make([]raid.TransitionRow, len(rows))
	for i, r := range rows {
		result[i] = raid.TransitionRow{
			BossID:      uint32(r.BossID),
			EncounterID: r.EncounterID,
			From:        parseStoredBehavior(r.FromBehavior, r.BossID),
			To:          parseStoredBehavior(r.ToBehavior, r.BossID),
			Requested:   parseStoredBehavior(r.Requested, r.BossID),
			Reason:      r.Reason,
			Tick:        r.Tick,
			At:          r.At,
		}
	}
	return result, nil
}

// parseStoredBehavior decodes a stored behaviour name. Names written for
// out-of-range kinds keep their raw value; anything else unreadable is Idle.
func parseStoredBehavior(name string, bossID int64) model.BehaviorKind {
	var kind model.BehaviorKind
	if err := kind.UnmarshalText([]byte(name)); err != nil {
		slog.Warn("stored behavior is unknown, using idle",
			"bossID", bossID,
			"behavior", name)
		return model.BehaviorIdle
	}
	return kind
}

func toDBBossRow(row raid.BossStateRow) db.BossStateRow {
	return db.BossStateRow{
		BossID:      int64(row.BossID),
		Name:        row.Name,
		EncounterID: row.EncounterID,
		Behavior:    behaviorName(row.Behavior),
		Status:      int16(row.Status),
		PosX:        row.Position.X,
		PosY:        row.Position.Y,
		PosZ:        row.Position.Z,
		Health:      row.Health,
		MaxHealth:   row.MaxHealth,
		UpdatedAt:   row.UpdatedAt,
	}
}

func behaviorName(k model.BehaviorKind) string {
	b, _ := k.MarshalText()
	return string(b)
}

// memoryHistory caps the transitions a memoryBossStore keeps.
const memoryHistory = 4096

// memoryBossStore keeps boss state for the life of the process when the
// database is disabled.
type memoryBossStore struct {
	mu          sync.Mutex
	bosses      map[uint32]raid.BossStateRow
	transitions []raid.TransitionRow
}

func newMemoryBossStore() *memoryBossStore {
	return &memoryBossStore{bosses: make(map[uint32]raid.BossStateRow)}
}

func (s *memoryBossStore) LoadAllBosses(context.Context) ([]raid.BossStateRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]raid.BossStateRow, 0, len(s.bosses))
	for _, row := range s.bosses {
		out = append(out, row)
	}
	slices.SortFunc(out, func(a, b raid.BossStateRow) int { return cmp.Compare(a.BossID, b.BossID) })
	return out, nil
}

func (s *memoryBossStore) SaveBoss(_ context.Context, row raid.BossStateRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bosses[row.BossID] = row
	return nil
}

func (s *memoryBossStore) SaveBosses(_ context.Context, rows []raid.BossStateRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		s.bosses[row.BossID] = row
	}
	return nil
}

func (s *memoryBossStore) AppendTransitions(_ context.Context, rows []raid.TransitionRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitions = append(s.transitions, rows...)
	if over := len(s.transitions) - memoryHistory; over > 0 {
		s.transitions = slices.Delete(s.transitions, 0, over)
	}
	return nil
}

func (s *memoryBossStore) ListTransitions(_ context.Context, bossID uint32, limit int) ([]raid.TransitionRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []raid.TransitionRow
	for i := len(s.transitions) - 1; i >= 0 && len(out) < limit; i-- {
		if s.transitions[i].BossID == bossID {
			out = append(out, s.transitions[i])
		}
	}
	return out, nil
}
