package ai

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/bossai/internal/scheduler"
)

// TickManager drives the shared scheduler and every registered boss
// controller from a single tick goroutine.
//
// One tick: drain submitted commands, advance the scheduler, tick
// controllers in ascending object ID order, run the OnTick hook.
type TickManager struct {
	sched           *scheduler.Scheduler
	controllers     sync.Map // map[uint32]Controller
	controllerCount atomic.Int32
	tickCount       atomic.Int64

	mu       sync.Mutex
	commands []func()

	onTick func(now scheduler.Ticks)
	ids    []uint32 // reused between ticks

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewTickManager creates new AI tick manager with its own scheduler.
func NewTickManager() *TickManager {
	return &TickManager{
		sched:  scheduler.New(),
		stopCh: make(chan struct{}),
	}
}

// Scheduler returns the scheduler every registered boss must share.
func (m *TickManager) Scheduler() *scheduler.Scheduler {
	return m.sched
}

// OnTick sets a hook run at the end of every tick (world step).
// Must be called before Start.
func (m *TickManager) OnTick(fn func(now scheduler.Ticks)) {
	m.onTick = fn
}

// Register registers AI controller for a boss. The controller is started on
// the tick goroutine at the beginning of the next tick.
func (m *TickManager) Register(controller Controller) error {
	objectID := controller.ID()
	if _, loaded := m.controllers.LoadOrStore(objectID, controller); loaded {
		return fmt.Errorf("controller already registered for objectID %d", objectID)
	}
	m.controllerCount.Add(1)
	m.Submit(controller.Start)

	slog.Debug("AI controller registered",
		"objectID", objectID,
		"behavior", controller.CurrentBehavior())
	return nil
}

// Unregister unregisters AI controller and stops it on the tick goroutine.
func (m *TickManager) Unregister(objectID uint32) {
	value, ok := m.controllers.LoadAndDelete(objectID)
	if !ok {
		return
	}
	m.controllerCount.Add(-1)

	controller := value.(Controller)
	m.Submit(controller.Stop)

	slog.Debug("AI controller unregistered", "objectID", objectID)
}

// Submit queues fn to run on the tick goroutine before the next scheduler
// advance. Safe for concurrent use.
func (m *TickManager) Submit(fn func()) {
	m.mu.Lock()
	m.commands = append(m.commands, fn)
	m.mu.Unlock()
}

// TickOnce runs exactly one tick on the calling goroutine.
func (m *TickManager) TickOnce() {
	m.drainCommands()
	m.sched.Tick()
	m.tickAll()
	if m.onTick != nil {
		m.onTick(m.sched.Now())
	}
	m.tickCount.Add(1)
}

// Ticks returns the number of completed ticks. Safe for concurrent use.
func (m *TickManager) Ticks() int64 {
	return m.tickCount.Load()
}

// Start starts AI tick loop (blocks until context is canceled or Stop).
func (m *TickManager) Start(ctx context.Context) error {
	interval := time.Second / scheduler.TicksPerSecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("AI tick manager started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("AI tick manager stopping")
			m.drainCommands()
			return ctx.Err()

		case <-m.stopCh:
			slog.Info("AI tick manager stopped")
			m.drainCommands()
			return nil

		case <-ticker.C:
			m.TickOnce()
		}
	}
}

// Stop stops AI tick loop. Safe to call more than once.
func (m *TickManager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *TickManager) drainCommands() {
	m.mu.Lock()
	cmds := m.commands
	m.commands = nil
	m.mu.Unlock()

	for _, fn := range cmds {
		fn()
	}
}

// tickAll ticks all registered controllers in ascending objectID order.
func (m *TickManager) tickAll() {
	m.ids = m.ids[:0]
	m.controllers.Range(func(key, _ any) bool {
		m.ids = append(m.ids, key.(uint32))
		return true
	})
	slices.Sort(m.ids)

	count := 0
	for _, id := range m.ids {
		value, ok := m.controllers.Load(id)
		if !ok {
			continue
		}
		value.(Controller).Tick()
		count++
	}

	if count > 0 && IsDebugEnabled() {
		slog.Debug("AI tick completed", "controllers", count, "now", m.sched.Now())
	}
}

// Count returns number of registered controllers (O(1) cached count).
func (m *TickManager) Count() int {
	return int(m.controllerCount.Load())
}

// GetController returns controller for a boss.
func (m *TickManager) GetController(objectID uint32) (Controller, error) {
	value, ok := m.controllers.Load(objectID)
	if !ok {
		return nil, fmt.Errorf("controller not found for objectID %d", objectID)
	}
	return value.(Controller), nil
}

// Controllers returns every registered controller in ascending objectID order.
func (m *TickManager) Controllers() []Controller {
	var out []Controller
	m.controllers.Range(func(_, value any) bool {
		out = append(out, value.(Controller))
		return true
	})
	slices.SortFunc(out, func(a, b Controller) int {
		return cmp.Compare(a.ID(), b.ID())
	})
	return out
}
