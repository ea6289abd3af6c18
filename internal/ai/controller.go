package ai

import "github.com/udisondev/bossai/internal/model"

// Controller represents AI controller interface driven by TickManager
type Controller interface {
	// ID returns the object ID the controller is registered under
	ID() uint32

	// Start starts AI controller
	Start()

	// Stop stops AI controller and tears down the active behaviour
	Stop()

	// SetBehavior forces a behaviour through the full transition path
	SetBehavior(kind model.BehaviorKind)

	// CurrentBehavior returns current behaviour kind
	CurrentBehavior() model.BehaviorKind

	// Tick performs AI tick (called once per simulation tick)
	Tick()
}
