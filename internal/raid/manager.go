// Package raid tracks boss encounters and persists their state.
package raid

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/bossai/internal/ai"
	"github.com/udisondev/bossai/internal/model"
)

// BossStore provides persistence for boss state and transition history.
type BossStore interface {
	LoadAllBosses(ctx context.Context) ([]BossStateRow, error)
	SaveBoss(ctx context.Context, row BossStateRow) error
	// SaveBosses upserts every row atomically.
	SaveBosses(ctx context.Context, rows []BossStateRow) error
	AppendTransitions(ctx context.Context, rows []TransitionRow) error
	// ListTransitions returns the newest transitions of a boss, newest first.
	ListTransitions(ctx context.Context, bossID uint32, limit int) ([]TransitionRow, error)
}

// BossStateRow mirrors db.BossStateRow for decoupling.
type BossStateRow struct {
	BossID      uint32
	Name        string
	EncounterID uuid.UUID
	Behavior    model.BehaviorKind
	Status      model.BossStatus
	Position    model.Vec3
	Health      float64
	MaxHealth   float64
	UpdatedAt   time.Time
}

// TransitionRow mirrors db.BossTransitionRow for decoupling.
type TransitionRow struct {
	BossID      uint32             `json:"boss_id"`
	EncounterID uuid.UUID          `json:"encounter_id"`
	From        model.BehaviorKind `json:"from"`
	To          model.BehaviorKind `json:"to"`
	Requested   model.BehaviorKind `json:"requested"`
	Reason      string             `json:"reason"`
	Tick        int64              `json:"tick"`
	At          time.Time          `json:"at"`
}

// LiveState is what a probe reports about a spawned boss.
type LiveState struct {
	Position  model.Vec3
	Health    float64
	MaxHealth float64
}

// ProbeFunc reads live state of a spawned boss. ok is false once the body
// is gone.
type ProbeFunc func() (state LiveState, ok bool)

// Entry is a copy of one tracked boss.
type Entry struct {
	BossID      uint32             `json:"id"`
	Name        string             `json:"name"`
	EncounterID uuid.UUID          `json:"encounter_id"`
	Status      model.BossStatus   `json:"status"`
	Behavior    model.BehaviorKind `json:"behavior"`
	Position    model.Vec3         `json:"position"`
	Health      float64            `json:"health"`
	MaxHealth   float64            `json:"max_health"`
	Restored    bool               `json:"-"`
}

type bossEntry struct {
	Entry
	probe ProbeFunc
}

// refresh copies live state from the probe. Caller holds the write lock.
func (e *bossEntry) refresh() {
	if e.probe == nil {
		return
	}
	if s, ok := e.probe(); ok {
		e.Position = s.Position
		e.Health = s.Health
		e.MaxHealth = s.MaxHealth
	}
}

// BossManager tracks boss encounters, mirrors behaviour transitions and
// persists both through a BossStore.
//
// Boss states:
//   - ALIVE (0): spawned, idling
//   - DEAD (1): killed, encounter over
//   - FIGHTING (2): running a non-idle behaviour
//   - WAITING (3): restored from storage, not spawned yet
type BossManager struct {
	store BossStore

	mu      sync.RWMutex
	entries map[uint32]*bossEntry

	transitions chan TransitionRow
	dropped     atomic.Int64

	// deaths carries bosses whose death the save loop has not stored yet.
	deaths chan uint32
}

// NewBossManager creates a new boss manager. queueSize bounds the number
// of transitions waiting to be persisted.
func NewBossManager(store BossStore, queueSize int) *BossManager {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &BossManager{
		store:       store,
		entries:     make(map[uint32]*bossEntry, 16),
		transitions: make(chan TransitionRow, queueSize),
		deaths:      make(chan uint32, 64),
	}
}

// Init loads boss state from the store. Loaded bosses wait in WAITING
// (or DEAD) until tracked.
func (m *BossManager) Init(ctx context.Context) error {
	rows, err := m.store.LoadAllBosses(ctx)
	if err != nil {
		return fmt.Errorf("load bosses: %w", err)
	}

	m.mu.Lock()
	for _, row := range rows {
		status := model.BossWaiting
		if row.Status == model.BossDead {
			status = model.BossDead
		}
		m.entries[row.BossID] = &bossEntry{Entry: Entry{
			BossID:      row.BossID,
			Name:        row.Name,
			EncounterID: row.EncounterID,
			Status:      status,
			Behavior:    row.Behavior,
			Position:    row.Position,
			Health:      row.Health,
			MaxHealth:   row.MaxHealth,
			Restored:    true,
		}}
	}
	m.mu.Unlock()

	slog.Info("boss manager initialized", "loaded", len(rows))
	return nil
}

// Track registers a spawned boss and returns its entry. A boss restored in
// WAITING keeps its encounter and behaviour; anything else starts a new
// encounter in Idle.
func (m *BossManager) Track(bossID uint32, name string, probe ProbeFunc) Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[bossID]
	resume := ok && e.Restored && e.Status == model.BossWaiting && e.EncounterID != uuid.Nil
	if !resume {
		e = &bossEntry{Entry: Entry{
			BossID:      bossID,
			EncounterID: uuid.New(),
			Behavior:    model.BehaviorIdle,
		}}
		m.entries[bossID] = e
	}
	e.Name = name
	e.Status = model.BossAlive
	if e.Behavior != model.BehaviorIdle {
		e.Status = model.BossFighting
	}
	e.probe = probe
	e.refresh()

	slog.Info("boss tracked",
		"bossID", bossID,
		"name", name,
		"encounter", e.EncounterID,
		"resumed", resume,
		"behavior", e.Behavior)

	return e.Entry
}

// Untrack stops following a boss's live state. The entry stays for the
// final save.
func (m *BossManager) Untrack(bossID uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[bossID]; ok {
		e.refresh()
		e.probe = nil
	}
}

// Status returns the current status of a boss.
func (m *BossManager) Status(bossID uint32) (model.BossStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[bossID]; ok {
		return e.Status, true
	}
	return model.BossAlive, false
}

// Entry returns a refreshed copy of a tracked boss.
func (m *BossManager) Entry(bossID uint32) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[bossID]
	if !ok {
		return Entry{}, false
	}
	e.refresh()
	return e.Entry, true
}

// Snapshot returns refreshed copies of every boss ordered by ID.
func (m *BossManager) Snapshot() []Entry {
	m.mu.Lock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		e.refresh()
		out = append(out, e.Entry)
	}
	m.mu.Unlock()

	slices.SortFunc(out, func(a, b Entry) int { return cmp.Compare(a.BossID, b.BossID) })
	return out
}

// OnBossDeath marks a boss dead and ends its encounter. Never blocks: the
// save loop stores the death, and its final save covers a full queue.
func (m *BossManager) OnBossDeath(bossID uint32) error {
	m.mu.Lock()
	e, ok := m.entries[bossID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("boss %d is not tracked", bossID)
	}
	e.refresh()
	e.probe = nil
	e.Status = model.BossDead
	e.Behavior = model.BehaviorIdle
	e.Health = 0
	encounter := e.EncounterID
	m.mu.Unlock()

	select {
	case m.deaths <- bossID:
	default:
		slog.Warn("boss death queue full, deferring to next save", "bossID", bossID)
	}

	slog.Info("boss death recorded", "bossID", bossID, "encounter", encounter)
	return nil
}

// saveOne persists a single entry.
func (m *BossManager) saveOne(ctx context.Context, bossID uint32) error {
	m.mu.Lock()
	e, ok := m.entries[bossID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("boss %d is not tracked", bossID)
	}
	e.refresh()
	row := e.row()
	m.mu.Unlock()

	if err := m.store.SaveBoss(ctx, row); err != nil {
		return fmt.Errorf("save boss %d: %w", bossID, err)
	}
	return nil
}

// Transitions returns the newest stored transitions of a boss, newest first.
func (m *BossManager) Transitions(ctx context.Context, bossID uint32, limit int) ([]TransitionRow, error) {
	rows, err := m.store.ListTransitions(ctx, bossID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transitions of boss %d: %w", bossID, err)
	}
	return rows, nil
}

// OnTransition mirrors a behaviour transition and queues it for storage.
// Never blocks: when the queue is full the transition is dropped and counted.
func (m *BossManager) OnTransition(ev ai.TransitionEvent) {
	m.mu.Lock()
	e, ok := m.entries[ev.BossID]
	if !ok || e.Status == model.BossDead {
		m.mu.Unlock()
		return
	}
	e.Behavior = ev.To
	if ev.Reason != ai.ReasonStop {
		e.Status = model.BossAlive
		if ev.To != model.BehaviorIdle {
			e.Status = model.BossFighting
		}
	}
	row := TransitionRow{
		BossID:      ev.BossID,
		EncounterID: e.EncounterID,
		From:        ev.From,
		To:          ev.To,
		Requested:   ev.Requested,
		Reason:      string(ev.Reason),
		Tick:        ev.Tick,
		At:          ev.At,
	}
	m.mu.Unlock()

	select {
	case m.transitions <- row:
	default:
		if m.dropped.Add(1) == 1 {
			slog.Warn("boss transition queue full, dropping", "bossID", ev.BossID)
		}
	}
}

// Dropped returns how many transitions were dropped on a full queue.
func (m *BossManager) Dropped() int64 {
	return m.dropped.Load()
}

// EntryCount returns number of tracked bosses.
func (m *BossManager) EntryCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// RunSaveLoop periodically saves boss states to the store and stores
// deaths as they happen. Blocks until context is canceled, then saves once
// more.
func (m *BossManager) RunSaveLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("boss save loop started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			finalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			m.SaveAll(finalCtx)
			cancel()
			slog.Info("boss save loop stopping")
			return ctx.Err()
		case id := <-m.deaths:
			if err := m.saveOne(ctx, id); err != nil {
				slog.Error("save boss death", "bossID", id, "error", err)
			}
		case <-ticker.C:
			m.SaveAll(ctx)
		}
	}
}

// transitionBatch caps one AppendTransitions call.
const transitionBatch = 256

// RunTransitionLoop persists queued transitions in batches.
// Blocks until context is canceled, then flushes what is queued.
func (m *BossManager) RunTransitionLoop(ctx context.Context, flushInterval time.Duration) error {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]TransitionRow, 0, transitionBatch)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := m.store.AppendTransitions(ctx, batch); err != nil {
			slog.Error("append boss transitions", "count", len(batch), "error", err)
		}
		batch = batch[:0]
	}

	slog.Info("boss transition loop started", "flushInterval", flushInterval)

	for {
		select {
		case <-ctx.Done():
			finalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			for drained := false; !drained; {
				select {
				case row := <-m.transitions:
					batch = append(batch, row)
					if len(batch) == transitionBatch {
						flush(finalCtx)
					}
				default:
					drained = true
				}
			}
			flush(finalCtx)
			cancel()
			slog.Info("boss transition loop stopping")
			return ctx.Err()

		case row := <-m.transitions:
			batch = append(batch, row)
			if len(batch) == transitionBatch {
				flush(ctx)
			}

		case <-ticker.C:
			flush(ctx)
		}
	}
}

// SaveAll persists every entry in one batch and returns how many were saved.
func (m *BossManager) SaveAll(ctx context.Context) int {
	m.mu.Lock()
	rows := make([]BossStateRow, 0, len(m.entries))
	for _, e := range m.entries {
		e.refresh()
		rows = append(rows, e.row())
	}
	m.mu.Unlock()

	if len(rows) == 0 {
		return 0
	}
	if err := m.store.SaveBosses(ctx, rows); err != nil {
		slog.Error("save boss states", "count", len(rows), "error", err)
		return 0
	}

	slog.Debug("boss states saved", "count", len(rows))
	return len(rows)
}

func (e *bossEntry) row() BossStateRow {
	return BossStateRow{
		BossID:      e.BossID,
		Name:        e.Name,
		EncounterID: e.EncounterID,
		Behavior:    e.Behavior,
		Status:      e.Status,
		Position:    e.Position,
		Health:      e.Health,
		MaxHealth:   e.MaxHealth,
		UpdatedAt:   time.Now(),
	}
}
