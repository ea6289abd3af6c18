package world

import "sync/atomic"

// ID ranges (convention):
//
//	0x00000000 - 0x0FFFFFFF: Reserved (0 = allocate automatically)
//	0x10000000 - 0x1FFFFFFF: Players
//	0x20000000 - 0x2FFFFFFF: Bosses
const (
	playerIDBase uint32 = 0x10000000
	bossIDBase   uint32 = 0x20000000
)

// ObjectIDGenerator hands out object IDs for arena entities.
type ObjectIDGenerator struct {
	nextPlayerID atomic.Uint32
	nextBossID   atomic.Uint32
}

// NewObjectIDGenerator creates a new ID generator.
func NewObjectIDGenerator() *ObjectIDGenerator {
	gen := &ObjectIDGenerator{}
	gen.nextPlayerID.Store(playerIDBase)
	gen.nextBossID.Store(bossIDBase)
	return gen
}

// NextPlayerID generates next unique player object ID.
// Thread-safe via atomic increment.
func (g *ObjectIDGenerator) NextPlayerID() uint32 {
	return g.nextPlayerID.Add(1)
}

// NextBossID generates next unique boss object ID.
// Thread-safe via atomic increment.
func (g *ObjectIDGenerator) NextBossID() uint32 {
	return g.nextBossID.Add(1)
}

// IsPlayerID reports whether id lies in the player range.
func IsPlayerID(id uint32) bool {
	return id > playerIDBase && id < bossIDBase
}

// IsBossID reports whether id lies in the boss range.
func IsBossID(id uint32) bool {
	return id > bossIDBase && id < 0x30000000
}
