package world

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"

	"github.com/udisondev/bossai/internal/model"
)

var (
	ErrUnknownPlayer = errors.New("unknown player")
	ErrUnknownBoss   = errors.New("unknown boss")
	ErrPlayerFlat    = errors.New("player is knocked flat")
)

// Config holds arena physics.
type Config struct {
	// Gravity is subtracted from vertical velocity every tick while airborne.
	Gravity float64 `yaml:"gravity"`
	// Restitution is the fraction of downward speed kept as a bounce on
	// landing. Zero means bosses stick to the ground.
	Restitution float64 `yaml:"restitution"`
	// NavSpeedScale converts a navigation speed into units per tick.
	NavSpeedScale float64 `yaml:"nav_speed_scale"`
	// ArriveDistance is how close navigation gets before it goes idle.
	ArriveDistance float64 `yaml:"arrive_distance"`
	// LogLimit caps the effect and broadcast logs.
	LogLimit int `yaml:"log_limit"`
}

// DefaultConfig returns arena physics tuned for the default boss numbers.
func DefaultConfig() Config {
	return Config{
		Gravity:        0.08,
		Restitution:    0,
		NavSpeedScale:  0.25,
		ArriveDistance: 2,
		LogLimit:       256,
	}
}

// groundY is the arena floor.
const groundY = 0.0

// bounceMin is the smallest landing speed that can bounce.
const bounceMin = 0.2

type player struct {
	id        uint32
	name      string
	pos       model.Vec3
	flat      bool
	dead      bool
	spectator bool
}

type boss struct {
	id        uint32
	name      string
	pos       model.Vec3
	vel       model.Vec3
	onGround  bool
	yaw       float64
	health    float64
	maxHealth float64
	fraction  float64
	anim      model.Animation

	navTarget uint32
	navSpeed  float64
}

// EffectRecord is one visual effect fired by a boss.
type EffectRecord struct {
	BossID uint32
	Tick   int64
	Effect model.Effect
}

// BroadcastRecord is one chat line sent by a boss.
type BroadcastRecord struct {
	BossID  uint32
	Tick    int64
	Message string
}

// PlayerState is a copy of a player's state.
type PlayerState struct {
	ID        uint32     `json:"id"`
	Name      string     `json:"name"`
	Position  model.Vec3 `json:"position"`
	Flat      bool       `json:"flat"`
	Dead      bool       `json:"dead"`
	Spectator bool       `json:"spectator"`
}

// BossState is a copy of a boss body's state.
type BossState struct {
	ID             uint32          `json:"id"`
	Name           string          `json:"name"`
	Position       model.Vec3      `json:"position"`
	Velocity       model.Vec3      `json:"velocity"`
	OnGround       bool            `json:"on_ground"`
	Yaw            float64         `json:"yaw"`
	Health         float64         `json:"health"`
	MaxHealth      float64         `json:"max_health"`
	HealthFraction float64         `json:"health_fraction"`
	Animation      model.Animation `json:"animation"`
	Navigating     bool            `json:"navigating"`
}

// Arena is a small in-memory world: a flat floor at y=0, players that are
// moved from outside, and boss bodies integrated by Step.
// All methods are safe for concurrent use.
type Arena struct {
	cfg Config
	ids *ObjectIDGenerator

	mu         sync.RWMutex
	tick       int64
	players    map[uint32]*player
	bosses     map[uint32]*boss
	effects    []EffectRecord
	broadcasts []BroadcastRecord
}

// NewArena creates an empty arena.
func NewArena(cfg Config) *Arena {
	return &Arena{
		cfg:     cfg,
		ids:     NewObjectIDGenerator(),
		players: make(map[uint32]*player),
		bosses:  make(map[uint32]*boss),
	}
}

// AddPlayer adds a player. id 0 allocates one. Returns the player's ID.
func (a *Arena) AddPlayer(id uint32, name string, pos model.Vec3) (uint32, error) {
	if id == 0 {
		id = a.ids.NextPlayerID()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.players[id]; exists {
		return 0, fmt.Errorf("player %d already in arena", id)
	}
	a.players[id] = &player{id: id, name: name, pos: pos}
	return id, nil
}

// RemovePlayer removes a player. Bosses navigating to it go idle.
func (a *Arena) RemovePlayer(id uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.players, id)
	for _, b := range a.bosses {
		if b.navTarget == id {
			b.navTarget = 0
		}
	}
}

// MovePlayer teleports a player. Flat players cannot move.
func (a *Arena) MovePlayer(id uint32, pos model.Vec3) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, ok := a.players[id]
	if !ok {
		return fmt.Errorf("moving player %d: %w", id, ErrUnknownPlayer)
	}
	if p.flat {
		return fmt.Errorf("moving player %d: %w", id, ErrPlayerFlat)
	}
	p.pos = pos
	return nil
}

// SetPlayerDead marks a player dead or alive. Dead players are not targets.
func (a *Arena) SetPlayerDead(id uint32, dead bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, ok := a.players[id]
	if !ok {
		return fmt.Errorf("player %d: %w", id, ErrUnknownPlayer)
	}
	p.dead = dead
	return nil
}

// SetSpectator marks a player as a spectator. Spectators are never targeted
// nor knocked flat.
func (a *Arena) SetSpectator(id uint32, spectator bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, ok := a.players[id]
	if !ok {
		return fmt.Errorf("player %d: %w", id, ErrUnknownPlayer)
	}
	p.spectator = spectator
	return nil
}

// Player returns a copy of a player's state.
func (a *Arena) Player(id uint32) (PlayerState, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	p, ok := a.players[id]
	if !ok {
		return PlayerState{}, false
	}
	return p.state(), true
}

// Players returns every player ordered by ID.
func (a *Arena) Players() []PlayerState {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]PlayerState, 0, len(a.players))
	for _, p := range a.players {
		out = append(out, p.state())
	}
	slices.SortFunc(out, func(x, y PlayerState) int { return cmp.Compare(x.ID, y.ID) })
	return out
}

// AddBoss adds a boss body standing on the floor below pos. id 0 allocates
// one. Returns the boss's ID.
func (a *Arena) AddBoss(id uint32, name string, pos model.Vec3, maxHealth float64) (uint32, error) {
	if maxHealth <= 0 {
		return 0, fmt.Errorf("boss %q: max health must be positive, got %g", name, maxHealth)
	}
	if id == 0 {
		id = a.ids.NextBossID()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.bosses[id]; exists {
		return 0, fmt.Errorf("boss %d already in arena", id)
	}
	pos.Y = max(pos.Y, groundY)
	a.bosses[id] = &boss{
		id:        id,
		name:      name,
		pos:       pos,
		onGround:  pos.Y <= groundY,
		health:    maxHealth,
		maxHealth: maxHealth,
		fraction:  1,
	}
	return id, nil
}

// RemoveBoss removes a boss body.
func (a *Arena) RemoveBoss(id uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.bosses, id)
}

// Boss returns a copy of a boss body's state.
func (a *Arena) Boss(id uint32) (BossState, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	b, ok := a.bosses[id]
	if !ok {
		return BossState{}, false
	}
	return b.state(), true
}

// TeleportBoss moves a boss body to pos, clearing its velocity and
// navigation.
func (a *Arena) TeleportBoss(id uint32, pos model.Vec3) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.bosses[id]
	if !ok {
		return fmt.Errorf("teleporting boss %d: %w", id, ErrUnknownBoss)
	}
	pos.Y = max(pos.Y, groundY)
	b.pos = pos
	b.vel = model.Vec3{}
	b.onGround = pos.Y <= groundY
	b.navTarget = 0
	return nil
}

// Bosses returns every boss body ordered by ID.
func (a *Arena) Bosses() []BossState {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]BossState, 0, len(a.bosses))
	for _, b := range a.bosses {
		out = append(out, b.state())
	}
	slices.SortFunc(out, func(x, y BossState) int { return cmp.Compare(x.ID, y.ID) })
	return out
}

// DamageBoss subtracts amount from a boss's health (negative heals) and
// returns the new health, clamped to [0, max].
func (a *Arena) DamageBoss(id uint32, amount float64) (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.bosses[id]
	if !ok {
		return 0, fmt.Errorf("damaging boss %d: %w", id, ErrUnknownBoss)
	}
	b.health = min(max(b.health-amount, 0), b.maxHealth)
	return b.health, nil
}

// Tick returns the number of completed steps.
func (a *Arena) Tick() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tick
}

// Step integrates one tick: navigation, gravity and landing for every boss.
func (a *Arena) Step() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.tick++
	for _, b := range a.bosses {
		a.navigate(b)
		a.integrate(b)
	}
}

func (a *Arena) navigate(b *boss) {
	if b.navTarget == 0 || !b.onGround {
		return
	}
	p, ok := a.players[b.navTarget]
	if !ok || p.dead {
		b.navTarget = 0
		return
	}

	delta := p.pos.Sub(b.pos).Horizontal()
	dist := delta.Len()
	if dist <= a.cfg.ArriveDistance {
		b.navTarget = 0
		return
	}
	step := min(b.navSpeed*a.cfg.NavSpeedScale, dist-a.cfg.ArriveDistance)
	b.pos = b.pos.Add(delta.Normalize().Mul(step))
	b.yaw = yawTo(delta)
}

func (a *Arena) integrate(b *boss) {
	if b.onGround && b.vel.Y <= 0 {
		b.vel = model.Vec3{}
		return
	}

	b.vel.Y -= a.cfg.Gravity
	b.pos = b.pos.Add(b.vel)
	b.onGround = false

	if b.pos.Y > groundY {
		return
	}

	b.pos.Y = groundY
	landing := -b.vel.Y
	if a.cfg.Restitution > 0 && landing*a.cfg.Restitution >= bounceMin {
		b.vel = model.NewVec3(b.vel.X, landing*a.cfg.Restitution, b.vel.Z)
		return
	}
	b.vel = model.Vec3{}
	b.onGround = true
}

// ClosestPlayer returns the nearest living, non-spectator player within
// radius of pos.
func (a *Arena) ClosestPlayer(pos model.Vec3, radius float64) (PlayerState, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	p := a.closestPlayer(pos, radius)
	if p == nil {
		return PlayerState{}, false
	}
	return p.state(), true
}

func (a *Arena) closestPlayer(pos model.Vec3, radius float64) *player {
	var best *player
	bestDist := radius * radius
	for _, p := range a.players {
		if p.dead || p.spectator {
			continue
		}
		d := pos.DistanceSquared(p.pos)
		if d > bestDist || (d == bestDist && best != nil && p.id > best.id) {
			continue
		}
		best, bestDist = p, d
	}
	return best
}

// PlayersInBox returns living, non-spectator players inside the box centred
// on center, ordered by ID.
func (a *Arena) PlayersInBox(center, half model.Vec3) []PlayerState {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []PlayerState
	for _, p := range a.players {
		if p.dead || p.spectator || !center.WithinBox(p.pos, half) {
			continue
		}
		out = append(out, p.state())
	}
	slices.SortFunc(out, func(x, y PlayerState) int { return cmp.Compare(x.ID, y.ID) })
	return out
}

// Effects returns the retained effect log, oldest first.
func (a *Arena) Effects() []EffectRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.effects)
}

// Broadcasts returns the retained broadcast log, oldest first.
func (a *Arena) Broadcasts() []BroadcastRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.broadcasts)
}

func (a *Arena) recordEffect(bossID uint32, e model.Effect) {
	a.effects = appendCapped(a.effects, EffectRecord{BossID: bossID, Tick: a.tick, Effect: e}, a.cfg.LogLimit)
}

func (a *Arena) recordBroadcast(bossID uint32, msg string) {
	a.broadcasts = appendCapped(a.broadcasts, BroadcastRecord{BossID: bossID, Tick: a.tick, Message: msg}, a.cfg.LogLimit)
	slog.Info("boss broadcast", "bossID", bossID, "message", msg)
}

func appendCapped[T any](log []T, v T, limit int) []T {
	log = append(log, v)
	if limit > 0 && len(log) > limit {
		log = slices.Delete(log, 0, len(log)-limit)
	}
	return log
}

func (p *player) state() PlayerState {
	return PlayerState{
		ID:        p.id,
		Name:      p.name,
		Position:  p.pos,
		Flat:      p.flat,
		Dead:      p.dead,
		Spectator: p.spectator,
	}
}

func (b *boss) state() BossState {
	return BossState{
		ID:             b.id,
		Name:           b.name,
		Position:       b.pos,
		Velocity:       b.vel,
		OnGround:       b.onGround,
		Yaw:            b.yaw,
		Health:         b.health,
		MaxHealth:      b.maxHealth,
		HealthFraction: b.fraction,
		Animation:      b.anim,
		Navigating:     b.navTarget != 0,
	}
}

// yawTo returns the heading of d in degrees, 0 facing +Z.
func yawTo(d model.Vec3) float64 {
	return math.Atan2(d.X, d.Z) * 180 / math.Pi
}
