package scheduler

type handleState uint8

const (
	stateScheduled handleState = iota
	stateDone
	stateCancelled
)

// Handle is a cancellable reference to a pending or repeating callback.
type Handle struct {
	sched    *Scheduler
	once     func()
	repeat   func(*Handle)
	interval Ticks
	state    handleState
	fired    int
}

// Cancel stops the callback from running again. Cancelling a handle that
// already fired or was already cancelled is a no-op.
func (h *Handle) Cancel() {
	if h == nil || h.state != stateScheduled {
		return
	}
	h.state = stateCancelled
	h.sched.pending--
}

// Active reports whether the callback may still run.
func (h *Handle) Active() bool {
	return h != nil && h.state == stateScheduled
}

// Cancelled reports whether Cancel took effect before the handle finished.
func (h *Handle) Cancelled() bool {
	return h != nil && h.state == stateCancelled
}

// Fired returns how many times the callback has run.
func (h *Handle) Fired() int {
	if h == nil {
		return 0
	}
	return h.fired
}
