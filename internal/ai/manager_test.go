package ai

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/bossai/internal/model"
	"github.com/udisondev/bossai/internal/scheduler"
)

// recordingController records Start/Stop/Tick calls.
type recordingController struct {
	id      uint32
	log     *[]string
	started bool
	stopped bool
	kind    model.BehaviorKind
}

func (c *recordingController) ID() uint32 { return c.id }
func (c *recordingController) Start()     { c.started = true }
func (c *recordingController) Stop()      { c.stopped = true }

func (c *recordingController) SetBehavior(kind model.BehaviorKind) { c.kind = kind }
func (c *recordingController) CurrentBehavior() model.BehaviorKind { return c.kind }

func (c *recordingController) Tick() {
	if c.log != nil {
		*c.log = append(*c.log, fmt.Sprintf("tick %d", c.id))
	}
}

func TestTickManager_RegisterUnregister(t *testing.T) {
	mgr := NewTickManager()
	c := &recordingController{id: 1}

	require.NoError(t, mgr.Register(c))
	assert.Equal(t, 1, mgr.Count())
	assert.False(t, c.started, "Start runs on the tick goroutine")

	got, err := mgr.GetController(1)
	require.NoError(t, err)
	assert.Same(t, c, got)

	mgr.TickOnce()
	assert.True(t, c.started)

	assert.Error(t, mgr.Register(&recordingController{id: 1}), "duplicate objectID")
	assert.Equal(t, 1, mgr.Count())

	mgr.Unregister(1)
	mgr.Unregister(1)
	assert.Equal(t, 0, mgr.Count())
	_, err = mgr.GetController(1)
	assert.Error(t, err)

	mgr.TickOnce()
	assert.True(t, c.stopped)
}

func TestTickManager_TickOrder(t *testing.T) {
	mgr := NewTickManager()
	var log []string

	for _, id := range []uint32{3, 1, 2} {
		require.NoError(t, mgr.Register(&recordingController{id: id, log: &log}))
	}
	mgr.Scheduler().ScheduleOnce(0, func() { log = append(log, "timer") })
	mgr.Submit(func() { log = append(log, "command") })

	var hookNow scheduler.Ticks
	mgr.OnTick(func(now scheduler.Ticks) {
		hookNow = now
		log = append(log, "hook")
	})

	mgr.TickOnce()

	assert.Equal(t, []string{"command", "timer", "tick 1", "tick 2", "tick 3", "hook"}, log)
	assert.Equal(t, scheduler.Ticks(1), hookNow)
	assert.Equal(t, int64(1), mgr.Ticks())

	ids := make([]uint32, 0, 3)
	for _, c := range mgr.Controllers() {
		ids = append(ids, c.ID())
	}
	assert.Equal(t, []uint32{1, 2, 3}, ids)
}

func TestTickManager_DrivesBoss(t *testing.T) {
	mgr := NewTickManager()
	host := newFakeHost(mgr.Scheduler())
	b := NewBossAI(5, "Snorlax", host, mgr.Scheduler())

	require.NoError(t, mgr.Register(b))
	mgr.TickOnce()
	assert.Equal(t, model.BehaviorIdle, b.CurrentBehavior())

	mgr.Submit(func() { b.SetBehavior(model.BehaviorSleep) })
	assert.Equal(t, model.BehaviorIdle, b.CurrentBehavior(), "commands wait for the tick")
	mgr.TickOnce()
	assert.Equal(t, model.BehaviorSleep, b.CurrentBehavior())

	mgr.Unregister(5)
	mgr.TickOnce()
	assert.Nil(t, b.CurrentTask())
	assert.Zero(t, mgr.Scheduler().Pending())
}

func TestTickManager_Start(t *testing.T) {
	mgr := NewTickManager()
	require.NoError(t, mgr.Register(&recordingController{id: 1}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- mgr.Start(ctx)
	}()

	require.Eventually(t, func() bool { return mgr.Ticks() >= 3 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Start() did not stop after context cancel")
	}
}

func TestTickManager_Stop(t *testing.T) {
	mgr := NewTickManager()

	done := make(chan error, 1)
	go func() {
		done <- mgr.Start(context.Background())
	}()

	mgr.Stop()
	mgr.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start() did not return after Stop")
	}
}

func BenchmarkTickManager_TickOnce(b *testing.B) {
	EnableDebugLogging(false)

	mgr := NewTickManager()
	for i := range 100 {
		host := newFakeHost(mgr.Scheduler())
		host.addPlayer(1, model.NewVec3(20, 0, 0))
		boss := NewBossAI(uint32(i+1), "Snorlax", host, mgr.Scheduler())
		if err := mgr.Register(boss); err != nil {
			b.Fatal(err)
		}
	}
	mgr.TickOnce()
	for _, c := range mgr.Controllers() {
		c.SetBehavior(model.BehaviorRun)
	}

	b.ResetTimer()
	for range b.N {
		mgr.TickOnce()
	}
}
