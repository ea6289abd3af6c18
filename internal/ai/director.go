package ai

import (
	"fmt"
	"log/slog"

	"github.com/udisondev/bossai/internal/model"
	"github.com/udisondev/bossai/internal/scheduler"
)

// Director pattern modes.
const (
	DirectorSequence = "sequence"
	DirectorRandom   = "random"
)

// DirectorConfig configures attack selection while a boss idles.
type DirectorConfig struct {
	Enabled     bool                 `yaml:"enabled"`
	Mode        string               `yaml:"mode"`
	IdleSeconds int64                `yaml:"idle_seconds"`
	Pattern     []model.BehaviorKind `yaml:"pattern"`
}

// DefaultDirectorConfig cycles through the whole attack set.
func DefaultDirectorConfig() DirectorConfig {
	return DirectorConfig{
		Enabled:     false,
		Mode:        DirectorSequence,
		IdleSeconds: 3,
		Pattern: []model.BehaviorKind{
			model.BehaviorCheckTarget,
			model.BehaviorRun,
			model.BehaviorPunch,
			model.BehaviorBeamAttack,
			model.BehaviorJump,
			model.BehaviorBellyFlop,
			model.BehaviorShaking,
			model.BehaviorSleep,
		},
	}
}

// Validate checks mode, idle time and pattern kinds.
func (c DirectorConfig) Validate() error {
	if c.Mode != DirectorSequence && c.Mode != DirectorRandom {
		return fmt.Errorf("director mode %q: want %q or %q", c.Mode, DirectorSequence, DirectorRandom)
	}
	if c.IdleSeconds < 0 {
		return fmt.Errorf("director idle_seconds must not be negative, got %d", c.IdleSeconds)
	}
	if c.Enabled && len(c.Pattern) == 0 {
		return fmt.Errorf("director pattern is empty")
	}
	for _, k := range c.Pattern {
		if !k.Valid() || k == model.BehaviorIdle {
			return fmt.Errorf("director pattern contains %s", k)
		}
	}
	return nil
}

// Director picks the next attack once a boss has idled long enough with a
// target in range. It never finishes the Idle task; it replaces it through
// the controller. One Director per boss: it keeps the pattern cursor.
type Director struct {
	mode      string
	idleTicks scheduler.Ticks
	pattern   []model.BehaviorKind
	cursor    int
}

// NewDirector creates a director from cfg.
func NewDirector(cfg DirectorConfig) (*Director, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Pattern) == 0 {
		return nil, fmt.Errorf("director pattern is empty")
	}
	return &Director{
		mode:      cfg.Mode,
		idleTicks: scheduler.Seconds(cfg.IdleSeconds),
		pattern:   append([]model.BehaviorKind(nil), cfg.Pattern...),
	}, nil
}

// Next returns the kind the boss should switch to, if any.
func (d *Director) Next(b *BossAI) (model.BehaviorKind, bool) {
	if b.TicksInBehavior() < d.idleTicks {
		return model.BehaviorIdle, false
	}
	if _, ok := b.Target(); !ok {
		return model.BehaviorIdle, false
	}

	var next model.BehaviorKind
	switch d.mode {
	case DirectorRandom:
		next = d.pattern[b.rng.IntN(len(d.pattern))]
	default:
		next = d.pattern[d.cursor]
		d.cursor = (d.cursor + 1) % len(d.pattern)
	}

	if IsDebugEnabled() {
		slog.Debug("director picked behavior",
			"boss", b.name,
			"objectID", b.id,
			"next", next)
	}
	return next, true
}
