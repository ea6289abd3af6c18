// Package scheduler runs delayed and repeating callbacks on the simulation's
// own tick cadence. Nothing here owns a goroutine or a wall clock: the host
// calls Tick once per simulation step and due callbacks run inline.
package scheduler

import (
	"container/heap"
	"errors"
	"fmt"
)

// TicksPerSecond is the simulation rate used to convert seconds to ticks.
const TicksPerSecond = 20

var (
	// ErrNegativeDelay is the panic cause for a negative delay.
	ErrNegativeDelay = errors.New("scheduler: negative delay")
	// ErrInvalidInterval is the panic cause for a repeating interval below one tick.
	ErrInvalidInterval = errors.New("scheduler: repeating interval must be at least one tick")
)

// Ticks is a duration or instant measured in simulation ticks.
type Ticks int64

// Seconds converts whole seconds to ticks.
func Seconds(n int64) Ticks {
	return Ticks(n * TicksPerSecond)
}

// Seconds returns the duration in whole seconds (truncated).
func (t Ticks) Seconds() int64 {
	return int64(t) / TicksPerSecond
}

// Scheduler is a tick-driven timer queue.
// Not safe for concurrent use: it belongs to the tick goroutine.
type Scheduler struct {
	now     Ticks
	seq     uint64
	queue   entryQueue
	pending int
}

// New creates an empty scheduler at tick 0.
func New() *Scheduler {
	return &Scheduler{}
}

// Now returns the current tick.
func (s *Scheduler) Now() Ticks {
	return s.now
}

// Pending returns the number of handles that may still fire.
func (s *Scheduler) Pending() int {
	return s.pending
}

// ScheduleOnce runs fn once, delay ticks from now. A zero delay fires in the
// current Tick pass when called from a callback, otherwise on the next Tick.
// Panics on a negative delay.
func (s *Scheduler) ScheduleOnce(delay Ticks, fn func()) *Handle {
	if delay < 0 {
		panic(fmt.Errorf("%w: %d", ErrNegativeDelay, delay))
	}
	h := &Handle{sched: s, once: fn}
	s.push(h, s.now+delay)
	return h
}

// ScheduleRepeating runs fn every interval ticks, the first time interval
// ticks from now, until the handle is cancelled. fn receives its own handle so
// it can stop itself. Panics if interval < 1.
func (s *Scheduler) ScheduleRepeating(interval Ticks, fn func(h *Handle)) *Handle {
	if interval < 1 {
		panic(fmt.Errorf("%w: %d", ErrInvalidInterval, interval))
	}
	h := &Handle{sched: s, repeat: fn, interval: interval}
	s.push(h, s.now+interval)
	return h
}

// Tick advances the clock by one and runs every callback that is due.
// Callbacks scheduled while ticking with a deadline that is already due
// run in the same pass.
func (s *Scheduler) Tick() {
	s.now++
	for s.queue.Len() > 0 {
		next := s.queue[0]
		if next.deadline > s.now {
			return
		}
		heap.Pop(&s.queue)
		h := next.handle
		if h.state != stateScheduled {
			continue
		}
		s.fire(h)
	}
}

// Advance runs n ticks.
func (s *Scheduler) Advance(n Ticks) {
	for range n {
		s.Tick()
	}
}

func (s *Scheduler) fire(h *Handle) {
	h.fired++
	if h.repeat == nil {
		h.state = stateDone
		s.pending--
		h.once()
		return
	}

	h.repeat(h)
	if h.state == stateScheduled {
		s.enqueue(h, s.now+h.interval)
	}
}

func (s *Scheduler) push(h *Handle, deadline Ticks) {
	h.state = stateScheduled
	s.pending++
	s.enqueue(h, deadline)
}

func (s *Scheduler) enqueue(h *Handle, deadline Ticks) {
	s.seq++
	heap.Push(&s.queue, &entry{deadline: deadline, seq: s.seq, handle: h})
}
