package ai

import (
	"math/rand/v2"
	"testing"

	"github.com/udisondev/bossai/internal/model"
	"github.com/udisondev/bossai/internal/scheduler"
)

type fakeTarget struct {
	id  uint32
	pos model.Vec3
}

func (p *fakeTarget) ID() uint32           { return p.id }
func (p *fakeTarget) Position() model.Vec3 { return p.pos }

type fakeNav struct {
	idle  bool
	moves []uint32
	stops int
}

func (n *fakeNav) MoveTo(target Target, _ float64) {
	n.moves = append(n.moves, target.ID())
	n.idle = false
}

func (n *fakeNav) Stop() {
	n.stops++
	n.idle = true
}

func (n *fakeNav) IsIdle() bool { return n.idle }

type flatChange struct {
	id   uint32
	flat bool
	at   scheduler.Ticks
}

// fakeHost is a scriptable Host: tests move the boss, toggle grounding and
// read back every command the AI issued.
type fakeHost struct {
	sched *scheduler.Scheduler

	pos      model.Vec3
	vel      model.Vec3
	onGround bool
	players  []*fakeTarget
	nav      *fakeNav

	impulses   []model.Vec3
	lookedAt   []uint32
	effects    []model.Effect
	broadcasts []string
	flat       map[uint32]bool
	flatLog    []flatChange
	anims      []model.Animation

	health    float64
	maxHealth float64
	fraction  float64
}

func newFakeHost(sched *scheduler.Scheduler) *fakeHost {
	return &fakeHost{
		sched:     sched,
		onGround:  true,
		nav:       &fakeNav{idle: true},
		flat:      make(map[uint32]bool),
		health:    300,
		maxHealth: 300,
	}
}

func (h *fakeHost) addPlayer(id uint32, pos model.Vec3) *fakeTarget {
	p := &fakeTarget{id: id, pos: pos}
	h.players = append(h.players, p)
	return p
}

func (h *fakeHost) Position() model.Vec3 { return h.pos }
func (h *fakeHost) Velocity() model.Vec3 { return h.vel }

func (h *fakeHost) ApplyImpulse(v model.Vec3) {
	h.impulses = append(h.impulses, v)
	h.vel = h.vel.Add(v)
	if v.Y > 0 {
		h.onGround = false
	}
}

func (h *fakeHost) IsOnGround() bool { return h.onGround }
func (h *fakeHost) LookAt(t Target) { h.lookedAt = append(h.lookedAt, t.ID()) }
func (h *fakeHost) Navigation() Navigator { return h.nav }
func (h *fakeHost) BroadcastMessage(s string) { h.broadcasts = append(h.broadcasts, s) }

func (h *fakeHost) FindNearestTarget(radius float64) (Target, bool) {
	var best *fakeTarget
	bestDist := radius * radius
	for _, p := range h.players {
		d := h.pos.DistanceSquared(p.pos)
		if d <= bestDist {
			best, bestDist = p, d
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

func (h *fakeHost) PlayersInBox(center, half model.Vec3) []Target {
	var out []Target
	for _, p := range h.players {
		if center.WithinBox(p.pos, half) {
			out = append(out, p)
		}
	}
	return out
}

func (h *fakeHost) SetFlat(t Target, flat bool) {
	h.flat[t.ID()] = flat
	h.flatLog = append(h.flatLog, flatChange{id: t.ID(), flat: flat, at: h.sched.Now()})
}

func (h *fakeHost) TriggerEffect(e model.Effect) { h.effects = append(h.effects, e) }

func (h *fakeHost) effectsOf(kind model.EffectKind) []model.Effect {
	var out []model.Effect
	for _, e := range h.effects {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (h *fakeHost) Health() float64 { return h.health }
func (h *fakeHost) MaxHealth() float64 { return h.maxHealth }
func (h *fakeHost) SetHealthFraction(f float64) { h.fraction = f }
func (h *fakeHost) SetActiveAnimation(a model.Animation) { h.anims = append(h.anims, a) }

// recordSink keeps every transition event.
type recordSink struct {
	events []TransitionEvent
}

func (s *recordSink) OnTransition(ev TransitionEvent) { s.events = append(s.events, ev) }

func (s *recordSink) last() TransitionEvent { return s.events[len(s.events)-1] }

// newTestBoss builds a started boss that has already entered its initial
// behaviour.
func newTestBoss(t *testing.T, seed uint64, opts ...Option) (*BossAI, *fakeHost, *scheduler.Scheduler) {
	t.Helper()

	sched := scheduler.New()
	host := newFakeHost(sched)
	all := append([]Option{WithRand(rand.New(rand.NewPCG(seed, seed+1)))}, opts...)
	b := NewBossAI(1, "Snorlax", host, sched, all...)
	b.Start()
	b.Tick()
	return b, host, sched
}
