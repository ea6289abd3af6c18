package model

// BossStatus represents the lifecycle state of a boss.
// Managed externally by raid.BossManager (not by the boss AI itself).
type BossStatus int32

const (
	BossAlive    BossStatus = 0
	BossDead     BossStatus = 1
	BossFighting BossStatus = 2
	// BossWaiting - spawned but idle before the encounter starts
	BossWaiting BossStatus = 3
)

// String returns human-readable status name
func (s BossStatus) String() string {
	switch s {
	case BossAlive:
		return "ALIVE"
	case BossDead:
		return "DEAD"
	case BossFighting:
		return "FIGHTING"
	case BossWaiting:
		return "WAITING"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the status by name.
func (s BossStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
