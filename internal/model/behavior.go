package model

import (
	"fmt"
	"strings"
)

// BehaviorKind identifies one boss behaviour (attack) state.
// It is the only piece of boss AI state replicated to observers.
type BehaviorKind int32

const (
	// BehaviorIdle - neutral resting state, waits for an external decision
	BehaviorIdle BehaviorKind = iota
	// BehaviorCheckTarget - boss inspects its target for a while
	BehaviorCheckTarget
	// BehaviorShaking - boss shakes in place
	BehaviorShaking
	// BehaviorPunch - boss punches towards its target
	BehaviorPunch
	// BehaviorRun - boss runs until it is close to its target
	BehaviorRun
	// BehaviorBeamAttack - boss fires a hyper beam at its target
	BehaviorBeamAttack
	// BehaviorBellyFlop - boss leaps at its target and flattens nearby players
	BehaviorBellyFlop
	// BehaviorSleep - boss sleeps for a random duration
	BehaviorSleep
	// BehaviorJump - boss jumps and emits a radial wave on landing
	BehaviorJump
)

var behaviorNames = [...]string{
	BehaviorIdle:        "IDLE",
	BehaviorCheckTarget: "CHECK_TARGET",
	BehaviorShaking:     "SHAKING",
	BehaviorPunch:       "PUNCH",
	BehaviorRun:         "RUN",
	BehaviorBeamAttack:  "BEAM_ATTACK",
	BehaviorBellyFlop:   "BELLY_FLOP",
	BehaviorSleep:       "SLEEP",
	BehaviorJump:        "JUMP",
}

// String returns human-readable behaviour name
func (k BehaviorKind) String() string {
	if !k.Valid() {
		return "UNKNOWN"
	}
	return behaviorNames[k]
}

// Valid reports whether k belongs to the closed set of behaviour kinds.
func (k BehaviorKind) Valid() bool {
	return k >= BehaviorIdle && int(k) < len(behaviorNames)
}

// MarshalText encodes the kind by name so JSON and YAML carry "JUMP" instead of 8.
// Kinds outside the set encode as "UNKNOWN(42)" so fallback events stay encodable.
func (k BehaviorKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return fmt.Appendf(nil, "UNKNOWN(%d)", int32(k)), nil
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind previously written by MarshalText.
func (k *BehaviorKind) UnmarshalText(text []byte) error {
	var raw int32
	if _, err := fmt.Sscanf(string(text), "UNKNOWN(%d)", &raw); err == nil {
		*k = BehaviorKind(raw)
		return nil
	}
	parsed, err := ParseBehaviorKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseBehaviorKind resolves a behaviour name (case-insensitive, '-' or '_').
func ParseBehaviorKind(name string) (BehaviorKind, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
	for i, n := range behaviorNames {
		if n == norm {
			return BehaviorKind(i), nil
		}
	}
	return BehaviorIdle, fmt.Errorf("unknown behavior kind %q", name)
}

// AllBehaviorKinds returns every behaviour kind in declaration order.
func AllBehaviorKinds() []BehaviorKind {
	kinds := make([]BehaviorKind, len(behaviorNames))
	for i := range behaviorNames {
		kinds[i] = BehaviorKind(i)
	}
	return kinds
}
