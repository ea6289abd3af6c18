package ai

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/udisondev/bossai/internal/model"
	"github.com/udisondev/bossai/internal/scheduler"
)

// BossAI is the behaviour controller of one boss.
//
// It owns the current behaviour kind and the task running it. Everything
// except the atomics is touched only from the tick goroutine; CurrentBehavior,
// AIDisabled and HealthFraction may be read from anywhere.
type BossAI struct {
	id   uint32
	name string

	host     Host
	sched    *scheduler.Scheduler
	catalog  *Catalog
	tuning   Tuning
	rng      *rand.Rand
	sink     TransitionSink
	director *Director
	initial  model.BehaviorKind

	kind       atomic.Int32 // model.BehaviorKind
	aiDisabled atomic.Bool
	health     atomic.Uint64 // math.Float64bits of the last published fraction

	task      Task
	running   bool
	enteredAt scheduler.Ticks
}

var _ Controller = (*BossAI)(nil)

// Option configures a BossAI.
type Option func(*BossAI)

// WithCatalog replaces the default behaviour catalog.
func WithCatalog(c *Catalog) Option {
	return func(b *BossAI) { b.catalog = c }
}

// WithTuning replaces the default tuning.
func WithTuning(t Tuning) Option {
	return func(b *BossAI) { b.tuning = t }
}

// WithRand sets the random source (seeded sources make tests deterministic).
func WithRand(rng *rand.Rand) Option {
	return func(b *BossAI) { b.rng = rng }
}

// WithSink sets the transition diagnostics sink.
func WithSink(s TransitionSink) Option {
	return func(b *BossAI) { b.sink = s }
}

// WithDirector attaches a director that picks attacks while the boss idles.
func WithDirector(d *Director) Option {
	return func(b *BossAI) { b.director = d }
}

// WithInitialBehavior sets the kind entered on the first tick (default Idle),
// e.g. a kind restored from persistence.
func WithInitialBehavior(kind model.BehaviorKind) Option {
	return func(b *BossAI) { b.initial = kind }
}

// NewBossAI creates a controller for the boss body behind host. The boss
// does nothing until Start is called and the first tick runs.
func NewBossAI(id uint32, name string, host Host, sched *scheduler.Scheduler, opts ...Option) *BossAI {
	b := &BossAI{
		id:      id,
		name:    name,
		host:    host,
		sched:   sched,
		catalog: DefaultCatalog(),
		tuning:  DefaultTuning(),
		initial: model.BehaviorIdle,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.rng == nil {
		b.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	b.kind.Store(int32(b.initial))
	b.health.Store(math.Float64bits(1))
	return b
}

// ID returns the boss object ID.
func (b *BossAI) ID() uint32 { return b.id }

// Name returns the boss display name.
func (b *BossAI) Name() string { return b.name }

// CurrentBehavior returns current behaviour kind (atomic read).
func (b *BossAI) CurrentBehavior() model.BehaviorKind {
	return model.BehaviorKind(b.kind.Load())
}

// CurrentTask returns the active task, nil before the first tick.
func (b *BossAI) CurrentTask() Task { return b.task }

// Scheduler returns the scheduler the boss's tasks run on.
func (b *BossAI) Scheduler() *scheduler.Scheduler { return b.sched }

// SetAIDisabled freezes transitions. The active task's own jobs keep running.
func (b *BossAI) SetAIDisabled(disabled bool) { b.aiDisabled.Store(disabled) }

// AIDisabled reports whether transitions are frozen.
func (b *BossAI) AIDisabled() bool { return b.aiDisabled.Load() }

// HealthFraction returns the last health fraction published to the host.
func (b *BossAI) HealthFraction() float64 {
	return math.Float64frombits(b.health.Load())
}

// Target resolves the nearest target within the target radius. Not cached:
// every caller gets a fresh lookup.
func (b *BossAI) Target() (Target, bool) {
	return b.host.FindNearestTarget(b.tuning.TargetRadius)
}

// TicksInBehavior returns how long the current behaviour has been active.
func (b *BossAI) TicksInBehavior() scheduler.Ticks {
	return b.sched.Now() - b.enteredAt
}

// Start starts AI controller. The initial behaviour is entered on the first tick.
func (b *BossAI) Start() {
	b.running = true

	if IsDebugEnabled() {
		slog.Debug("boss AI started",
			"boss", b.name,
			"objectID", b.id,
			"initial", b.CurrentBehavior())
	}
}

// Stop stops AI controller and disables the active task.
func (b *BossAI) Stop() {
	b.running = false
	if b.task == nil {
		return
	}

	old := b.task
	old.OnDisable()
	b.task = nil
	kind := b.CurrentBehavior()
	b.emit(TransitionEvent{
		From:      kind,
		To:        kind,
		Requested: kind,
		Reason:    ReasonStop,
		Disabled:  old.Name(),
	})

	if IsDebugEnabled() {
		slog.Debug("boss AI stopped", "boss", b.name, "objectID", b.id)
	}
}

// SetBehavior is the only way to change the behaviour kind: it disables the
// current task, builds the new one from the catalog and enables it.
func (b *BossAI) SetBehavior(kind model.BehaviorKind) {
	b.transition(kind, ReasonForced)
}

// Tick performs AI tick: enter the initial behaviour on the first tick,
// transition when the active task is finished, let the director pick an
// attack while idling, and publish the health fraction.
func (b *BossAI) Tick() {
	if !b.running {
		return
	}

	if b.task == nil {
		b.transition(b.CurrentBehavior(), ReasonStart)
	}

	if !b.aiDisabled.Load() {
		switch {
		case b.task.IsFinished():
			b.transition(b.task.NextTask(), ReasonFinished)
		case b.director != nil && b.CurrentBehavior() == model.BehaviorIdle:
			if next, ok := b.director.Next(b); ok {
				b.transition(next, ReasonDirector)
			}
		}
	}

	b.publishHealth()
}

func (b *BossAI) transition(requested model.BehaviorKind, reason TransitionReason) {
	from := b.CurrentBehavior()

	var disabled string
	if b.task != nil {
		disabled = b.task.Name()
		b.task.OnDisable()
		b.task = nil
	}

	next := requested
	entry, ok := b.catalog.Lookup(next)
	if !ok {
		slog.Warn("boss behavior not in catalog, falling back to idle",
			"boss", b.name,
			"objectID", b.id,
			"requested", requested)
		next = model.BehaviorIdle
		entry, _ = b.catalog.Lookup(next)
		reason = ReasonFallback
	}

	task := entry.Factory(b)
	b.task = task
	b.kind.Store(int32(next))
	b.enteredAt = b.sched.Now()

	if err := task.OnEnable(); err != nil {
		level := slog.LevelWarn
		if errors.Is(err, ErrTargetUnavailable) {
			level = slog.LevelInfo
		}
		slog.Log(context.Background(), level, "boss behavior enable failed, falling back to idle",
			"boss", b.name,
			"objectID", b.id,
			"requested", next,
			"error", err)

		task.OnDisable()
		next = model.BehaviorIdle
		entry, _ = b.catalog.Lookup(next)
		task = entry.Factory(b)
		b.task = task
		b.kind.Store(int32(next))
		reason = ReasonFallback
		// Idle must enable; a catalog whose Idle fails is a programming error.
		if err := task.OnEnable(); err != nil {
			panic(err)
		}
	}

	b.host.SetActiveAnimation(entry.Animation)

	b.emit(TransitionEvent{
		From:      from,
		To:        next,
		Requested: requested,
		Reason:    reason,
		Disabled:  disabled,
		Enabled:   task.Name(),
	})
}

func (b *BossAI) emit(ev TransitionEvent) {
	if b.sink == nil {
		return
	}
	ev.BossID = b.id
	ev.BossName = b.name
	ev.Tick = int64(b.sched.Now())
	ev.At = time.Now()
	b.sink.OnTransition(ev)
}

func (b *BossAI) publishHealth() {
	maxHP := b.host.MaxHealth()
	frac := 0.0
	if maxHP > 0 {
		frac = min(max(b.host.Health()/maxHP, 0), 1)
	}
	b.health.Store(math.Float64bits(frac))
	b.host.SetHealthFraction(frac)
}
