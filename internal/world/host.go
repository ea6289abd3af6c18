package world

import (
	"fmt"

	"github.com/udisondev/bossai/internal/ai"
	"github.com/udisondev/bossai/internal/model"
)

// playerTarget is a live handle to an arena player.
type playerTarget struct {
	arena *Arena
	id    uint32
	pos   model.Vec3 // last known, used once the player leaves
}

func (t *playerTarget) ID() uint32 { return t.id }

func (t *playerTarget) Position() model.Vec3 {
	if p, ok := t.arena.Player(t.id); ok {
		return p.Position
	}
	return t.pos
}

// BossHost adapts one arena boss body to ai.Host.
type BossHost struct {
	arena *Arena
	id    uint32
}

var _ ai.Host = (*BossHost)(nil)

// BossHost returns the ai.Host for boss id.
func (a *Arena) BossHost(id uint32) (*BossHost, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if _, ok := a.bosses[id]; !ok {
		return nil, fmt.Errorf("boss host %d: %w", id, ErrUnknownBoss)
	}
	return &BossHost{arena: a, id: id}, nil
}

// ID returns the boss object ID.
func (h *BossHost) ID() uint32 { return h.id }

// withBoss runs fn under the arena write lock. Calls on a removed boss are
// ignored.
func (h *BossHost) withBoss(fn func(b *boss)) {
	h.arena.mu.Lock()
	defer h.arena.mu.Unlock()

	if b, ok := h.arena.bosses[h.id]; ok {
		fn(b)
	}
}

func (h *BossHost) Position() model.Vec3 {
	s, _ := h.arena.Boss(h.id)
	return s.Position
}

func (h *BossHost) Velocity() model.Vec3 {
	s, _ := h.arena.Boss(h.id)
	return s.Velocity
}

func (h *BossHost) ApplyImpulse(v model.Vec3) {
	h.withBoss(func(b *boss) {
		b.vel = b.vel.Add(v)
		if v.Y > 0 {
			b.navTarget = 0
		}
	})
}

func (h *BossHost) IsOnGround() bool {
	s, ok := h.arena.Boss(h.id)
	return ok && s.OnGround
}

func (h *BossHost) LookAt(target ai.Target) {
	pos := target.Position()
	h.withBoss(func(b *boss) {
		b.yaw = yawTo(pos.Sub(b.pos))
	})
}

func (h *BossHost) Navigation() ai.Navigator {
	return bossNav{h}
}

func (h *BossHost) FindNearestTarget(radius float64) (ai.Target, bool) {
	a := h.arena
	a.mu.RLock()
	defer a.mu.RUnlock()

	b, ok := a.bosses[h.id]
	if !ok {
		return nil, false
	}
	p := a.closestPlayer(b.pos, radius)
	if p == nil {
		return nil, false
	}
	return &playerTarget{arena: a, id: p.id, pos: p.pos}, true
}

func (h *BossHost) PlayersInBox(center, half model.Vec3) []ai.Target {
	players := h.arena.PlayersInBox(center, half)
	out := make([]ai.Target, 0, len(players))
	for _, p := range players {
		out = append(out, &playerTarget{arena: h.arena, id: p.ID, pos: p.Position})
	}
	return out
}

func (h *BossHost) SetFlat(target ai.Target, flat bool) {
	a := h.arena
	a.mu.Lock()
	defer a.mu.Unlock()

	if p, ok := a.players[target.ID()]; ok && !p.spectator {
		p.flat = flat
	}
}

func (h *BossHost) TriggerEffect(e model.Effect) {
	h.arena.mu.Lock()
	defer h.arena.mu.Unlock()
	h.arena.recordEffect(h.id, e)
}

func (h *BossHost) BroadcastMessage(msg string) {
	h.arena.mu.Lock()
	defer h.arena.mu.Unlock()
	h.arena.recordBroadcast(h.id, msg)
}

func (h *BossHost) Health() float64 {
	s, _ := h.arena.Boss(h.id)
	return s.Health
}

func (h *BossHost) MaxHealth() float64 {
	s, _ := h.arena.Boss(h.id)
	return s.MaxHealth
}

func (h *BossHost) SetHealthFraction(f float64) {
	h.withBoss(func(b *boss) { b.fraction = f })
}

func (h *BossHost) SetActiveAnimation(anim model.Animation) {
	h.withBoss(func(b *boss) { b.anim = anim })
}

// bossNav drives straight-line navigation for one boss; Arena.Step moves it.
type bossNav struct {
	h *BossHost
}

func (n bossNav) MoveTo(target ai.Target, speed float64) {
	n.h.withBoss(func(b *boss) {
		b.navTarget = target.ID()
		b.navSpeed = speed
	})
}

func (n bossNav) Stop() {
	n.h.withBoss(func(b *boss) { b.navTarget = 0 })
}

func (n bossNav) IsIdle() bool {
	s, _ := n.h.arena.Boss(n.h.id)
	return !s.Navigating
}
