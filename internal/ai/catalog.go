package ai

import (
	"fmt"
	"maps"
	"slices"

	"github.com/udisondev/bossai/internal/model"
)

// TaskFactory builds a fresh task bound to a boss.
type TaskFactory func(b *BossAI) Task

// CatalogEntry pairs a behaviour kind with its animation and task factory.
type CatalogEntry struct {
	Kind      model.BehaviorKind
	Animation model.Animation
	Factory   TaskFactory
}

// Catalog maps the closed set of behaviour kinds to their factories.
// Immutable after construction, safe to share between bosses.
type Catalog struct {
	entries map[model.BehaviorKind]CatalogEntry
}

// NewCatalog builds a catalog from entries. Idle must be present: it is the
// fallback for every failed transition.
func NewCatalog(entries ...CatalogEntry) (*Catalog, error) {
	c := &Catalog{entries: make(map[model.BehaviorKind]CatalogEntry, len(entries))}
	for _, e := range entries {
		if !e.Kind.Valid() {
			return nil, fmt.Errorf("catalog entry with invalid kind %d", int32(e.Kind))
		}
		if e.Factory == nil {
			return nil, fmt.Errorf("catalog entry %s has no factory", e.Kind)
		}
		if _, dup := c.entries[e.Kind]; dup {
			return nil, fmt.Errorf("duplicate catalog entry %s", e.Kind)
		}
		c.entries[e.Kind] = e
	}
	if _, ok := c.entries[model.BehaviorIdle]; !ok {
		return nil, fmt.Errorf("catalog must contain %s", model.BehaviorIdle)
	}
	return c, nil
}

// DefaultCatalog returns the full Snorlax behaviour set.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(
		CatalogEntry{
			Kind:      model.BehaviorShaking,
			Animation: model.Animation{Name: "shaking", Mode: model.AnimationPlay},
			Factory:   newTimedTask(model.BehaviorShaking, "Shaking", "Shaking"),
		},
		CatalogEntry{
			Kind:      model.BehaviorIdle,
			Animation: model.Animation{Name: "check-target", Mode: model.AnimationPlay},
			Factory:   newIdleTask,
		},
		CatalogEntry{
			Kind:      model.BehaviorBeamAttack,
			Animation: model.Animation{Name: "beam", Mode: model.AnimationPlay},
			Factory:   newBeamTask,
		},
		CatalogEntry{
			Kind:      model.BehaviorCheckTarget,
			Animation: model.Animation{Name: "check-target", Mode: model.AnimationLoop},
			Factory:   newTimedTask(model.BehaviorCheckTarget, "CheckTarget", "Checking"),
		},
		CatalogEntry{
			Kind:      model.BehaviorPunch,
			Animation: model.Animation{Name: "punch", Mode: model.AnimationPlay},
			Factory:   newTimedTask(model.BehaviorPunch, "Punch", "Punch"),
		},
		CatalogEntry{
			Kind:      model.BehaviorRun,
			Animation: model.Animation{Name: "run", Mode: model.AnimationLoop},
			Factory:   newRunTask,
		},
		CatalogEntry{
			Kind:      model.BehaviorBellyFlop,
			Animation: model.Animation{Name: "belly-flop", Mode: model.AnimationHold},
			Factory:   newBellyFlopTask,
		},
		CatalogEntry{
			Kind:      model.BehaviorSleep,
			Animation: model.Animation{Name: "sleep", Mode: model.AnimationOnceThenLoop, Then: "sleep-idle"},
			Factory:   newSleepTask,
		},
		CatalogEntry{
			Kind:      model.BehaviorJump,
			Animation: model.Animation{Name: "jump", Mode: model.AnimationHold},
			Factory:   newJumpTask,
		},
	)
	if err != nil {
		panic(err) // static table
	}
	return c
}

// Lookup returns the entry for kind.
func (c *Catalog) Lookup(kind model.BehaviorKind) (CatalogEntry, bool) {
	e, ok := c.entries[kind]
	return e, ok
}

// Kinds returns the catalogued kinds in ascending order.
func (c *Catalog) Kinds() []model.BehaviorKind {
	return slices.Sorted(maps.Keys(c.entries))
}

// Len returns the number of catalogued kinds.
func (c *Catalog) Len() int {
	return len(c.entries)
}
