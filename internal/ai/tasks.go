package ai

import (
	"fmt"
	"log/slog"

	"github.com/udisondev/bossai/internal/model"
	"github.com/udisondev/bossai/internal/scheduler"
)

// idleTask never finishes on its own; something outside the task has to
// move the boss on.
type idleTask struct {
	baseTask
}

func newIdleTask(b *BossAI) Task {
	return &idleTask{baseTask: newBaseTask(b, model.BehaviorIdle, "Idle")}
}

func (t *idleTask) OnEnable() error { return nil }

// timedTask backs CheckTarget, Shaking and Punch: they only differ in the
// animation the presentation layer plays.
type timedTask struct {
	baseTask
	verb     string
	duration scheduler.Ticks
}

func newTimedTask(kind model.BehaviorKind, name, verb string) TaskFactory {
	return func(b *BossAI) Task {
		return &timedTask{baseTask: newBaseTask(b, kind, name), verb: verb}
	}
}

func (t *timedTask) OnEnable() error {
	secs := t.boss.tuning.TimedSeconds.Sample(t.boss.rng)
	t.duration = scheduler.Seconds(secs)
	t.boss.host.BroadcastMessage(fmt.Sprintf("%s Target for %d seconds", t.verb, secs))
	t.after(t.duration, t.finish)
	return nil
}

// sleepTask sleeps for a random duration.
type sleepTask struct {
	baseTask
	duration scheduler.Ticks
}

func newSleepTask(b *BossAI) Task {
	return &sleepTask{baseTask: newBaseTask(b, model.BehaviorSleep, "Sleep")}
}

func (t *sleepTask) OnEnable() error {
	t.duration = scheduler.Seconds(t.boss.tuning.SleepSeconds.Sample(t.boss.rng))
	t.boss.host.TriggerEffect(model.Effect{
		Kind:   model.EffectSleeping,
		Origin: t.boss.host.Position(),
		Ticks:  int64(t.duration),
	})
	t.after(t.duration, t.finish)
	return nil
}

// jumpTask jumps straight up and waits for a settled landing.
type jumpTask struct {
	baseTask
}

func newJumpTask(b *BossAI) Task {
	return &jumpTask{baseTask: newBaseTask(b, model.BehaviorJump, "Jump")}
}

func (t *jumpTask) OnEnable() error {
	host := t.boss.host
	tuning := t.boss.tuning

	// Keep the horizontal velocity; a falling boss first loses its
	// downward speed so the jump always leaves at the sampled speed.
	vel := host.Velocity()
	up := tuning.JumpVelocity.Sample(t.boss.rng) - min(vel.Y, 0)
	host.ApplyImpulse(model.NewVec3(0, up, 0))

	t.every(tuning.groundPoll(), func(poll *scheduler.Handle) {
		if !host.IsOnGround() {
			return
		}
		// Finished only if still grounded after settling; a bounce at first
		// touch must not count as a landing.
		t.after(scheduler.Seconds(tuning.JumpSettleSeconds), func() {
			t.finished = host.IsOnGround()
		})
		host.TriggerEffect(model.Effect{
			Kind:   model.EffectRadialWave,
			Origin: host.Position(),
			Count:  int(tuning.RadialWaveCount.Sample(t.boss.rng)),
		})
		poll.Cancel()
	})
	return nil
}

// runTask chases the current target until it is within stop distance.
type runTask struct {
	baseTask
}

func newRunTask(b *BossAI) Task {
	return &runTask{baseTask: newBaseTask(b, model.BehaviorRun, "Run")}
}

func (t *runTask) OnEnable() error {
	host := t.boss.host
	tuning := t.boss.tuning

	t.every(scheduler.Ticks(tuning.RunCheckTicks), func(check *scheduler.Handle) {
		target, ok := t.boss.Target()
		if !ok {
			return
		}
		if host.Position().DistanceTo(target.Position()) >= tuning.RunStopDistance {
			if nav := host.Navigation(); nav.IsIdle() {
				nav.MoveTo(target, tuning.RunSpeed)
			}
			return
		}
		t.finish()
		check.Cancel()
	})
	return nil
}

func (t *runTask) OnDisable() {
	t.baseTask.OnDisable()
	t.boss.host.Navigation().Stop()
}

// beamTask fires a hyper beam at the target.
type beamTask struct {
	baseTask
}

func newBeamTask(b *BossAI) Task {
	return &beamTask{baseTask: newBaseTask(b, model.BehaviorBeamAttack, "Beam")}
}

func (t *beamTask) OnEnable() error {
	target, ok := t.boss.Target()
	if !ok {
		return ErrTargetUnavailable
	}
	host := t.boss.host
	tuning := t.boss.tuning

	host.LookAt(target)
	host.TriggerEffect(model.Effect{
		Kind:   model.EffectHyperBeam,
		Origin: host.Position(),
		Ticks:  tuning.BeamTicks.Sample(t.boss.rng),
	})
	t.after(scheduler.Seconds(tuning.BeamSeconds.Sample(t.boss.rng)), t.finish)
	return nil
}

// bellyFlopTask leaps at the target and flattens every player around the
// landing spot.
type bellyFlopTask struct {
	baseTask
}

func newBellyFlopTask(b *BossAI) Task {
	return &bellyFlopTask{baseTask: newBaseTask(b, model.BehaviorBellyFlop, "BellyFlop")}
}

func (t *bellyFlopTask) OnEnable() error {
	target, ok := t.boss.Target()
	if !ok {
		return ErrTargetUnavailable
	}
	host := t.boss.host
	tuning := t.boss.tuning

	dir := target.Position().Sub(host.Position()).Normalize()
	impulse := dir.Scale(tuning.BellyFlopHorizontal, 0, tuning.BellyFlopHorizontal).
		Add(model.NewVec3(0, tuning.BellyFlopVelocity.Sample(t.boss.rng), 0))
	host.ApplyImpulse(impulse)

	t.every(tuning.groundPoll(), func(poll *scheduler.Handle) {
		if !host.IsOnGround() {
			return
		}
		t.after(scheduler.Seconds(tuning.BellyFlopSettleSeconds), func() {
			t.finished = host.IsOnGround()
		})
		t.flattenPlayers()
		poll.Cancel()
	})
	return nil
}

// flattenPlayers knocks every player in the landing box flat. Recovery
// timers are scheduled outside the task's job list: a player must get up
// even if the boss has moved on to another behaviour.
func (t *bellyFlopTask) flattenPlayers() {
	host := t.boss.host
	tuning := t.boss.tuning
	center := host.Position()

	for _, player := range host.PlayersInBox(center, tuning.flatBox()) {
		host.SetFlat(player, true)
		host.TriggerEffect(model.Effect{
			Kind:   model.EffectKnockFlat,
			Origin: player.Position(),
		})

		delay := scheduler.Seconds(tuning.FlatSeconds.Sample(t.boss.rng))
		t.boss.sched.ScheduleOnce(delay, func() {
			host.SetFlat(player, false)
		})

		if IsDebugEnabled() {
			slog.Debug("player knocked flat",
				"boss", t.boss.name,
				"player", player.ID(),
				"recoverTicks", delay)
		}
	}
}
