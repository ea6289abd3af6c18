package ai

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/bossai/internal/model"
	"github.com/udisondev/bossai/internal/scheduler"
)

func TestDirectorConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *DirectorConfig)
		wantErr bool
	}{
		{"default", func(c *DirectorConfig) {}, false},
		{"random", func(c *DirectorConfig) { c.Mode = DirectorRandom }, false},
		{"bad mode", func(c *DirectorConfig) { c.Mode = "chaos" }, true},
		{"negative idle", func(c *DirectorConfig) { c.IdleSeconds = -1 }, true},
		{"idle in pattern", func(c *DirectorConfig) { c.Pattern = []model.BehaviorKind{model.BehaviorIdle} }, true},
		{"empty enabled pattern", func(c *DirectorConfig) {
			c.Enabled = true
			c.Pattern = nil
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultDirectorConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func runTicks(b *BossAI, sched *scheduler.Scheduler, n int) {
	for range n {
		sched.Tick()
		b.Tick()
	}
}

func TestDirector_SequenceAfterIdleTime(t *testing.T) {
	d, err := NewDirector(DirectorConfig{
		Enabled:     true,
		Mode:        DirectorSequence,
		IdleSeconds: 1,
		Pattern:     []model.BehaviorKind{model.BehaviorPunch, model.BehaviorShaking},
	})
	require.NoError(t, err)

	sink := &recordSink{}
	b, host, sched := newTestBoss(t, 1, WithDirector(d), WithSink(sink))
	host.addPlayer(1, model.NewVec3(10, 0, 0))

	runTicks(b, sched, 19)
	assert.Equal(t, model.BehaviorIdle, b.CurrentBehavior())

	runTicks(b, sched, 1)
	assert.Equal(t, model.BehaviorPunch, b.CurrentBehavior())
	assert.Equal(t, ReasonDirector, sink.last().Reason)

	got := []model.BehaviorKind{model.BehaviorPunch}
	for range 2 {
		b.SetBehavior(model.BehaviorIdle)
		runTicks(b, sched, 20)
		got = append(got, b.CurrentBehavior())
	}
	assert.Equal(t, []model.BehaviorKind{
		model.BehaviorPunch,
		model.BehaviorShaking,
		model.BehaviorPunch,
	}, got)
}

func TestDirector_NoTargetKeepsIdle(t *testing.T) {
	d, err := NewDirector(DirectorConfig{
		Enabled:     true,
		Mode:        DirectorSequence,
		IdleSeconds: 0,
		Pattern:     []model.BehaviorKind{model.BehaviorPunch},
	})
	require.NoError(t, err)

	b, _, sched := newTestBoss(t, 1, WithDirector(d))
	runTicks(b, sched, 100)

	assert.Equal(t, model.BehaviorIdle, b.CurrentBehavior())
	assert.False(t, b.CurrentTask().IsFinished())
}

func TestDirector_RandomStaysInPattern(t *testing.T) {
	pattern := []model.BehaviorKind{model.BehaviorSleep, model.BehaviorShaking}
	d, err := NewDirector(DirectorConfig{
		Enabled: true,
		Mode:    DirectorRandom,
		Pattern: pattern,
	})
	require.NoError(t, err)

	b, host, sched := newTestBoss(t, 5, WithDirector(d))
	host.addPlayer(1, model.NewVec3(10, 0, 0))

	for range 20 {
		b.SetBehavior(model.BehaviorIdle)
		runTicks(b, sched, 1)
		assert.True(t, slices.Contains(pattern, b.CurrentBehavior()), "picked %s", b.CurrentBehavior())
	}
}
