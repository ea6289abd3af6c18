package ai

import "github.com/udisondev/bossai/internal/model"

// Target is anything a boss can aim at (in practice a player).
type Target interface {
	ID() uint32
	Position() model.Vec3
}

// Navigator issues pathfinding commands for the boss body.
type Navigator interface {
	MoveTo(target Target, speed float64)
	Stop()
	IsIdle() bool
}

// Host is the world/target adapter the boss AI runs against.
// The host simulation implements it; the AI only calls into it from the
// tick goroutine.
type Host interface {
	Position() model.Vec3
	Velocity() model.Vec3
	ApplyImpulse(v model.Vec3)
	IsOnGround() bool
	LookAt(target Target)
	Navigation() Navigator

	// FindNearestTarget returns the closest eligible target within radius.
	FindNearestTarget(radius float64) (Target, bool)
	// PlayersInBox returns players inside the axis-aligned box centred on
	// center with the given half extents.
	PlayersInBox(center, half model.Vec3) []Target
	SetFlat(target Target, flat bool)

	TriggerEffect(effect model.Effect)
	BroadcastMessage(msg string)

	Health() float64
	MaxHealth() float64
	SetHealthFraction(f float64)
	SetActiveAnimation(anim model.Animation)
}
