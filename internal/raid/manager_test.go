package raid

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/bossai/internal/ai"
	"github.com/udisondev/bossai/internal/model"
	"github.com/udisondev/bossai/internal/testutil"
)

// mockBossStore implements BossStore for testing.
type mockBossStore struct {
	mu          sync.Mutex
	rows        map[uint32]BossStateRow
	transitions []TransitionRow
	saveErr     error

	single  int
	batches int
}

func newMockBossStore() *mockBossStore {
	return &mockBossStore{rows: make(map[uint32]BossStateRow)}
}

func (s *mockBossStore) LoadAllBosses(_ context.Context) ([]BossStateRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]BossStateRow, 0, len(s.rows))
	for _, row := range s.rows {
		result = append(result, row)
	}
	return result, nil
}

func (s *mockBossStore) SaveBoss(_ context.Context, row BossStateRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.rows[row.BossID] = row
	s.single++
	return nil
}

func (s *mockBossStore) SaveBosses(_ context.Context, rows []BossStateRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	for _, row := range rows {
		s.rows[row.BossID] = row
	}
	s.batches++
	return nil
}

func (s *mockBossStore) AppendTransitions(_ context.Context, rows []TransitionRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitions = append(s.transitions, rows...)
	return nil
}

func (s *mockBossStore) ListTransitions(_ context.Context, bossID uint32, limit int) ([]TransitionRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []TransitionRow
	for i := len(s.transitions) - 1; i >= 0 && len(out) < limit; i-- {
		if s.transitions[i].BossID == bossID {
			out = append(out, s.transitions[i])
		}
	}
	return out, nil
}

func (s *mockBossStore) counts() (single, batches int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.single, s.batches
}

func (s *mockBossStore) getRow(bossID uint32) (BossStateRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[bossID]
	return row, ok
}

func (s *mockBossStore) transitionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transitions)
}

func staticProbe(pos model.Vec3, hp float64) ProbeFunc {
	return func() (LiveState, bool) {
		return LiveState{Position: pos, Health: hp, MaxHealth: 300}, true
	}
}

func transition(bossID uint32, from, to model.BehaviorKind, reason ai.TransitionReason) ai.TransitionEvent {
	return ai.TransitionEvent{
		BossID:    bossID,
		From:      from,
		To:        to,
		Requested: to,
		Reason:    reason,
		Tick:      10,
		At:        time.Now(),
	}
}

func TestBossManager_TrackNewEncounter(t *testing.T) {
	t.Parallel()

	m := NewBossManager(newMockBossStore(), 16)
	e := m.Track(1, "Snorlax", staticProbe(model.NewVec3(1, 0, 2), 250))

	assert.NotEqual(t, uuid.Nil, e.EncounterID)
	assert.Equal(t, model.BossAlive, e.Status)
	assert.Equal(t, model.BehaviorIdle, e.Behavior)
	assert.Equal(t, model.NewVec3(1, 0, 2), e.Position)
	assert.Equal(t, 250.0, e.Health)
	assert.False(t, e.Restored)
	assert.Equal(t, 1, m.EntryCount())

	e2 := m.Track(2, "Snorlax", nil)
	assert.NotEqual(t, e.EncounterID, e2.EncounterID)
}

func TestBossManager_InitAndResume(t *testing.T) {
	t.Parallel()

	store := newMockBossStore()
	enc := uuid.New()
	store.rows[1] = BossStateRow{BossID: 1, Name: "Snorlax", EncounterID: enc, Behavior: model.BehaviorSleep, Status: model.BossFighting, Health: 120, MaxHealth: 300}
	store.rows[2] = BossStateRow{BossID: 2, Name: "Dead", EncounterID: uuid.New(), Status: model.BossDead}

	m := NewBossManager(store, 16)
	require.NoError(t, m.Init(context.Background()))

	status, ok := m.Status(1)
	require.True(t, ok)
	assert.Equal(t, model.BossWaiting, status)
	status, _ = m.Status(2)
	assert.Equal(t, model.BossDead, status)

	restored, ok := m.Entry(1)
	require.True(t, ok)
	assert.Equal(t, 120.0, restored.Health)

	e := m.Track(1, "Snorlax", nil)
	assert.True(t, e.Restored)
	assert.Equal(t, enc, e.EncounterID)
	assert.Equal(t, model.BehaviorSleep, e.Behavior)
	assert.Equal(t, model.BossFighting, e.Status)

	dead := m.Track(2, "Dead", nil)
	assert.False(t, dead.Restored)
	assert.NotEqual(t, store.rows[2].EncounterID, dead.EncounterID, "respawn starts a new encounter")
	assert.Equal(t, model.BossAlive, dead.Status)
}

func TestBossManager_OnTransitionUpdatesStatus(t *testing.T) {
	t.Parallel()

	m := NewBossManager(newMockBossStore(), 16)
	m.Track(1, "Snorlax", nil)

	m.OnTransition(transition(1, model.BehaviorIdle, model.BehaviorJump, ai.ReasonForced))
	e, _ := m.Entry(1)
	assert.Equal(t, model.BehaviorJump, e.Behavior)
	assert.Equal(t, model.BossFighting, e.Status)

	m.OnTransition(transition(1, model.BehaviorJump, model.BehaviorIdle, ai.ReasonFinished))
	e, _ = m.Entry(1)
	assert.Equal(t, model.BossAlive, e.Status)

	m.OnTransition(transition(99, model.BehaviorIdle, model.BehaviorRun, ai.ReasonForced))
	assert.Equal(t, 1, m.EntryCount(), "untracked bosses are ignored")
}

func TestBossManager_OnTransitionNeverBlocks(t *testing.T) {
	t.Parallel()

	m := NewBossManager(newMockBossStore(), 2)
	m.Track(1, "Snorlax", nil)

	done := make(chan struct{})
	go func() {
		for range 10 {
			m.OnTransition(transition(1, model.BehaviorIdle, model.BehaviorRun, ai.ReasonForced))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OnTransition blocked on a full queue")
	}
	assert.Equal(t, int64(8), m.Dropped())
}

func TestBossManager_OnBossDeath(t *testing.T) {
	t.Parallel()

	store := newMockBossStore()
	m := NewBossManager(store, 16)
	e := m.Track(1, "Snorlax", staticProbe(model.NewVec3(5, 0, 5), 10))

	require.NoError(t, m.OnBossDeath(1))

	dead, ok := m.Entry(1)
	require.True(t, ok)
	assert.Equal(t, model.BossDead, dead.Status)
	assert.Zero(t, dead.Health)
	assert.Equal(t, e.EncounterID, dead.EncounterID)
	assert.Equal(t, model.NewVec3(5, 0, 5), dead.Position)

	_, saved := store.getRow(1)
	assert.False(t, saved, "the save loop stores deaths")

	m.OnTransition(transition(1, model.BehaviorIdle, model.BehaviorRun, ai.ReasonForced))
	status, _ := m.Status(1)
	assert.Equal(t, model.BossDead, status, "dead bosses ignore transitions")

	assert.Error(t, m.OnBossDeath(42))
}

func TestBossManager_SaveLoopStoresDeaths(t *testing.T) {
	t.Parallel()

	store := newMockBossStore()
	m := NewBossManager(store, 16)
	e := m.Track(1, "Snorlax", staticProbe(model.NewVec3(5, 0, 5), 10))

	ctx, cancel := testutil.CancelableContext(t)
	done := make(chan error, 1)
	go func() { done <- m.RunSaveLoop(ctx, time.Hour) }()

	require.NoError(t, m.OnBossDeath(1))
	require.Eventually(t, func() bool {
		row, ok := store.getRow(1)
		return ok && row.Status == model.BossDead
	}, time.Second, 5*time.Millisecond)

	row, _ := store.getRow(1)
	assert.Zero(t, row.Health)
	assert.Equal(t, e.EncounterID, row.EncounterID)
	single, batches := store.counts()
	assert.Equal(t, 1, single)
	assert.Zero(t, batches)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunSaveLoop did not stop")
	}

	row, _ = store.getRow(1)
	assert.Equal(t, model.BossDead, row.Status, "final save keeps the death")
}

func TestBossManager_DeathSurvivesFullQueue(t *testing.T) {
	t.Parallel()

	store := newMockBossStore()
	m := NewBossManager(store, 16)
	for id := range uint32(70) {
		m.Track(id, "Snorlax", nil)
		require.NoError(t, m.OnBossDeath(id))
	}

	assert.Equal(t, 70, m.SaveAll(context.Background()))
	for id := range uint32(70) {
		row, ok := store.getRow(id)
		require.True(t, ok)
		assert.Equal(t, model.BossDead, row.Status)
	}
}

func TestBossManager_SaveAllBatchesSnapshots(t *testing.T) {
	t.Parallel()

	store := newMockBossStore()
	m := NewBossManager(store, 16)

	hp := 300.0
	m.Track(1, "Snorlax", func() (LiveState, bool) {
		return LiveState{Position: model.NewVec3(0, 0, 9), Health: hp, MaxHealth: 300}, true
	})
	m.Track(2, "Gone", func() (LiveState, bool) { return LiveState{}, false })

	hp = 75
	assert.Equal(t, 2, m.SaveAll(context.Background()))
	single, batches := store.counts()
	assert.Zero(t, single)
	assert.Equal(t, 1, batches, "one batch per save")

	row, _ := store.getRow(1)
	assert.Equal(t, 75.0, row.Health)
	assert.Equal(t, "Snorlax", row.Name)
	assert.False(t, row.UpdatedAt.IsZero())

	store.mu.Lock()
	store.saveErr = testutil.ErrSimulated
	store.mu.Unlock()
	assert.Zero(t, m.SaveAll(context.Background()))

	snap := m.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, uint32(1), snap[0].BossID)
	assert.Equal(t, uint32(2), snap[1].BossID)
}

func TestBossManager_RunSaveLoopFinalSave(t *testing.T) {
	t.Parallel()

	store := newMockBossStore()
	m := NewBossManager(store, 16)
	m.Track(1, "Snorlax", nil)

	ctx, cancel := testutil.CancelableContext(t)
	done := make(chan error, 1)
	go func() { done <- m.RunSaveLoop(ctx, time.Hour) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("RunSaveLoop did not stop")
	}

	_, ok := store.getRow(1)
	assert.True(t, ok, "final save on shutdown")
}

func TestBossManager_RunTransitionLoop(t *testing.T) {
	t.Parallel()

	store := newMockBossStore()
	m := NewBossManager(store, 64)
	e := m.Track(1, "Snorlax", nil)

	ctx, cancel := testutil.CancelableContext(t)
	done := make(chan error, 1)
	go func() { done <- m.RunTransitionLoop(ctx, 10*time.Millisecond) }()

	m.OnTransition(transition(1, model.BehaviorIdle, model.BehaviorJump, ai.ReasonForced))
	m.OnTransition(transition(1, model.BehaviorJump, model.BehaviorIdle, ai.ReasonFinished))

	require.Eventually(t, func() bool { return store.transitionCount() == 2 }, time.Second, 5*time.Millisecond)

	m.OnTransition(transition(1, model.BehaviorIdle, model.BehaviorSleep, ai.ReasonForced))
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunTransitionLoop did not stop")
	}

	assert.Equal(t, 3, store.transitionCount(), "queued rows flushed on shutdown")
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, e.EncounterID, store.transitions[0].EncounterID)
	assert.Equal(t, "forced", store.transitions[0].Reason)
	assert.Equal(t, model.BehaviorJump, store.transitions[0].To)
}

func TestBossManager_Transitions(t *testing.T) {
	t.Parallel()

	store := newMockBossStore()
	m := NewBossManager(store, 16)
	store.transitions = []TransitionRow{
		{BossID: 1, To: model.BehaviorJump, Tick: 1},
		{BossID: 2, To: model.BehaviorRun, Tick: 2},
		{BossID: 1, To: model.BehaviorIdle, Tick: 3},
	}

	rows, err := m.Transitions(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(3), rows[0].Tick, "newest first")

	rows, err = m.Transitions(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
