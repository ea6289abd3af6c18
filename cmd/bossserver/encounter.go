package main

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/udisondev/bossai/internal/ai"
	"github.com/udisondev/bossai/internal/config"
	"github.com/udisondev/bossai/internal/model"
	"github.com/udisondev/bossai/internal/raid"
	"github.com/udisondev/bossai/internal/scheduler"
	"github.com/udisondev/bossai/internal/world"
)

// encounter wires arena bodies, boss controllers and the raid registry.
type encounter struct {
	cfg    config.BossServer
	arena  *world.Arena
	ticks  *ai.TickManager
	bosses *raid.BossManager
	sink   ai.TransitionSink
}

// spawn places one configured boss in the arena and registers its
// controller. A boss restored in WAITING resumes its position, health and
// behaviour; IDs allocated by the arena are stable across restarts as long
// as the boss list keeps its order.
func (e *encounter) spawn(entry config.BossEntry) (uint32, error) {
	id, err := e.arena.AddBoss(entry.ID, entry.Name, entry.Position, entry.MaxHealth)
	if err != nil {
		return 0, fmt.Errorf("spawning boss %q: %w", entry.Name, err)
	}

	health := entry.MaxHealth
	if saved, ok := e.bosses.Entry(id); ok && saved.Restored && saved.Status == model.BossWaiting {
		if err := e.arena.TeleportBoss(id, saved.Position); err != nil {
			return 0, err
		}
		if saved.Health > 0 && saved.Health < entry.MaxHealth {
			health = saved.Health
			if _, err := e.arena.DamageBoss(id, entry.MaxHealth-health); err != nil {
				return 0, fmt.Errorf("restoring boss %d health: %w", id, err)
			}
		}
	}

	host, err := e.arena.BossHost(id)
	if err != nil {
		return 0, err
	}

	director, err := newDirector(e.cfg.Director)
	if err != nil {
		return 0, err
	}

	tracked := e.bosses.Track(id, entry.Name, func() (raid.LiveState, bool) {
		s, ok := e.arena.Boss(id)
		if !ok {
			return raid.LiveState{}, false
		}
		return raid.LiveState{Position: s.Position, Health: s.Health, MaxHealth: s.MaxHealth}, true
	})
	initial := tracked.Behavior

	opts := []ai.Option{
		ai.WithTuning(e.cfg.AI),
		ai.WithSink(e.sink),
		ai.WithInitialBehavior(initial),
	}
	if director != nil {
		opts = append(opts, ai.WithDirector(director))
	}
	if entry.Seed != 0 {
		opts = append(opts, ai.WithRand(rand.New(rand.NewPCG(entry.Seed, entry.Seed^0x9e3779b97f4a7c15))))
	}

	boss := ai.NewBossAI(id, entry.Name, host, e.ticks.Scheduler(), opts...)
	if err := e.ticks.Register(boss); err != nil {
		e.arena.RemoveBoss(id)
		return 0, fmt.Errorf("registering boss %d: %w", id, err)
	}

	slog.Info("boss spawned",
		"bossID", id,
		"name", entry.Name,
		"encounter", tracked.EncounterID,
		"initial", initial,
		"health", health)
	return id, nil
}

// step runs after the controllers on every tick: it integrates the arena
// and retires bosses whose health reached zero.
func (e *encounter) step(now scheduler.Ticks) {
	e.arena.Step()

	for _, b := range e.arena.Bosses() {
		if b.Health > 0 {
			continue
		}
		e.ticks.Unregister(b.ID)
		e.bosses.Untrack(b.ID)
		e.arena.RemoveBoss(b.ID)

		slog.Info("boss defeated", "bossID", b.ID, "name", b.Name, "tick", now)

		if err := e.bosses.OnBossDeath(b.ID); err != nil {
			slog.Error("recording boss death", "bossID", b.ID, "error", err)
		}
	}
}

func newDirector(cfg ai.DirectorConfig) (*ai.Director, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	d, err := ai.NewDirector(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating director: %w", err)
	}
	return d, nil
}
