package ai

import "sync/atomic"

// bossDebug gates the tick-path diagnostics: the per-tick controller count,
// knock-flat recovery scheduling, director picks and controller start/stop.
// Their attributes are only built when it is set.
var bossDebug atomic.Bool

// EnableDebugLogging turns the per-tick boss diagnostics on or off.
// cmd/bossserver sets it once from log_level before the tick loop starts.
func EnableDebugLogging(enabled bool) {
	bossDebug.Store(enabled)
}

// IsDebugEnabled reports whether per-tick boss diagnostics are on.
func IsDebugEnabled() bool {
	return bossDebug.Load()
}
