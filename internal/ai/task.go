package ai

import (
	"errors"

	"github.com/udisondev/bossai/internal/model"
	"github.com/udisondev/bossai/internal/scheduler"
)

// ErrTargetUnavailable is returned by OnEnable when a behaviour needs a
// target and none is in range. The controller falls back to Idle.
var ErrTargetUnavailable = errors.New("no target in range")

// Task is one activation of a behaviour kind.
//
// OnEnable runs synchronously when the controller enters the kind and may
// mutate the world or schedule jobs. OnDisable runs synchronously on the way
// out and must cancel every job the task scheduled. A task's finished flag is
// written only by the task's own logic and read by the controller.
type Task interface {
	Name() string
	Kind() model.BehaviorKind
	OnEnable() error
	OnDisable()
	NextTask() model.BehaviorKind
	IsFinished() bool
	// PendingJobs returns the number of scheduled jobs that may still fire.
	PendingJobs() int
}

// baseTask carries the bookkeeping shared by every behaviour: the finished
// flag and the list of jobs owned by this activation.
type baseTask struct {
	name     string
	kind     model.BehaviorKind
	boss     *BossAI
	finished bool
	jobs     []*scheduler.Handle
}

func newBaseTask(boss *BossAI, kind model.BehaviorKind, name string) baseTask {
	return baseTask{name: name, kind: kind, boss: boss}
}

func (t *baseTask) Name() string             { return t.name }
func (t *baseTask) Kind() model.BehaviorKind { return t.kind }
func (t *baseTask) IsFinished() bool         { return t.finished }

// NextTask defaults to Idle, the neutral reassessment state.
func (t *baseTask) NextTask() model.BehaviorKind { return model.BehaviorIdle }

// OnDisable cancels every job this task scheduled.
func (t *baseTask) OnDisable() {
	for _, h := range t.jobs {
		h.Cancel()
	}
	t.jobs = t.jobs[:0]
}

func (t *baseTask) PendingJobs() int {
	n := 0
	for _, h := range t.jobs {
		if h.Active() {
			n++
		}
	}
	return n
}

func (t *baseTask) finish() { t.finished = true }

// after schedules a one-shot job owned by the task.
func (t *baseTask) after(delay scheduler.Ticks, fn func()) *scheduler.Handle {
	h := t.boss.sched.ScheduleOnce(delay, fn)
	t.track(h)
	return h
}

// every schedules a repeating job owned by the task.
func (t *baseTask) every(interval scheduler.Ticks, fn func(h *scheduler.Handle)) *scheduler.Handle {
	h := t.boss.sched.ScheduleRepeating(interval, fn)
	t.track(h)
	return h
}

// track records h and drops handles that can no longer fire.
func (t *baseTask) track(h *scheduler.Handle) {
	live := t.jobs[:0]
	for _, j := range t.jobs {
		if j.Active() {
			live = append(live, j)
		}
	}
	t.jobs = append(live, h)
}
