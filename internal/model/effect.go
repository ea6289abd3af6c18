package model

// EffectKind enumerates the visual/area effects a boss asks the host to spawn.
type EffectKind int32

const (
	// EffectSleeping - sleeping aura and snoring sound
	EffectSleeping EffectKind = iota
	// EffectRadialWave - shock wave rings spreading from the boss
	EffectRadialWave
	// EffectHyperBeam - beam fired in the boss's facing direction
	EffectHyperBeam
	// EffectKnockFlat - a player was flattened by a belly flop
	EffectKnockFlat
)

// String returns human-readable effect name
func (k EffectKind) String() string {
	switch k {
	case EffectSleeping:
		return "SLEEPING"
	case EffectRadialWave:
		return "RADIAL_WAVE"
	case EffectHyperBeam:
		return "HYPER_BEAM"
	case EffectKnockFlat:
		return "KNOCK_FLAT"
	default:
		return "UNKNOWN"
	}
}

// Effect is an opaque request to the host simulation. Which fields matter
// depends on Kind: Ticks for Sleeping/HyperBeam, Count for RadialWave.
type Effect struct {
	Kind   EffectKind
	Origin Vec3
	Ticks  int64
	Count  int
}
