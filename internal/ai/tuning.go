package ai

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/udisondev/bossai/internal/model"
	"github.com/udisondev/bossai/internal/scheduler"
)

// IntRange is a half-open integer range [Min, Max).
type IntRange struct {
	Min int64 `yaml:"min"`
	Max int64 `yaml:"max"`
}

// Sample draws a uniform value from the range. An empty range yields Min.
func (r IntRange) Sample(rng *rand.Rand) int64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Int64N(r.Max-r.Min)
}

func (r IntRange) validate(name string) error {
	if r.Min < 0 || r.Max < r.Min {
		return fmt.Errorf("%s: invalid range [%d, %d)", name, r.Min, r.Max)
	}
	return nil
}

// FloatRange is a half-open range [Min, Max).
type FloatRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Sample draws a uniform value from the range. An empty range yields Min.
func (r FloatRange) Sample(rng *rand.Rand) float64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

func (r FloatRange) validate(name string) error {
	if r.Max < r.Min {
		return fmt.Errorf("%s: invalid range [%g, %g)", name, r.Min, r.Max)
	}
	return nil
}

// Tuning holds every number the behaviour tasks use. Durations suffixed
// Seconds are whole seconds, Ticks are simulation ticks.
type Tuning struct {
	TargetRadius float64 `yaml:"target_radius"`

	// CheckTarget, Shaking and Punch
	TimedSeconds IntRange `yaml:"timed_seconds"`

	SleepSeconds IntRange `yaml:"sleep_seconds"`

	GroundPollTicks int64 `yaml:"ground_poll_ticks"`

	JumpVelocity      FloatRange `yaml:"jump_velocity"`
	JumpSettleSeconds int64      `yaml:"jump_settle_seconds"`
	RadialWaveCount   IntRange   `yaml:"radial_wave_count"`

	RunStopDistance float64 `yaml:"run_stop_distance"`
	RunSpeed        float64 `yaml:"run_speed"`
	RunCheckTicks   int64   `yaml:"run_check_ticks"`

	BeamTicks   IntRange `yaml:"beam_ticks"`
	BeamSeconds IntRange `yaml:"beam_seconds"`

	BellyFlopHorizontal    float64    `yaml:"belly_flop_horizontal"`
	BellyFlopVelocity      FloatRange `yaml:"belly_flop_velocity"`
	BellyFlopSettleSeconds int64      `yaml:"belly_flop_settle_seconds"`
	FlatBoxHorizontal      float64    `yaml:"flat_box_horizontal"`
	FlatBoxVertical        float64    `yaml:"flat_box_vertical"`
	FlatSeconds            IntRange   `yaml:"flat_seconds"`
}

// DefaultTuning returns the stock Snorlax numbers.
func DefaultTuning() Tuning {
	return Tuning{
		TargetRadius:           40,
		TimedSeconds:           IntRange{Min: 5, Max: 10},
		SleepSeconds:           IntRange{Min: 5, Max: 10},
		GroundPollTicks:        5,
		JumpVelocity:           FloatRange{Min: 1.0, Max: 2.0},
		JumpSettleSeconds:      2,
		RadialWaveCount:        IntRange{Min: 8, Max: 30},
		RunStopDistance:        8,
		RunSpeed:               2.0,
		RunCheckTicks:          1,
		BeamTicks:              IntRange{Min: 50, Max: 150},
		BeamSeconds:            IntRange{Min: 5, Max: 10},
		BellyFlopHorizontal:    1.2,
		BellyFlopVelocity:      FloatRange{Min: 1.0, Max: 1.5},
		BellyFlopSettleSeconds: 1,
		FlatBoxHorizontal:      14,
		FlatBoxVertical:        5,
		FlatSeconds:            IntRange{Min: 5, Max: 10},
	}
}

// Validate checks ranges and intervals.
func (t Tuning) Validate() error {
	var errs []error
	if t.TargetRadius <= 0 {
		errs = append(errs, fmt.Errorf("target_radius must be positive, got %g", t.TargetRadius))
	}
	if t.GroundPollTicks < 1 {
		errs = append(errs, fmt.Errorf("ground_poll_ticks must be at least 1, got %d", t.GroundPollTicks))
	}
	if t.RunCheckTicks < 1 {
		errs = append(errs, fmt.Errorf("run_check_ticks must be at least 1, got %d", t.RunCheckTicks))
	}
	if t.JumpSettleSeconds < 0 || t.BellyFlopSettleSeconds < 0 {
		errs = append(errs, errors.New("settle seconds must not be negative"))
	}
	if t.FlatBoxHorizontal < 0 || t.FlatBoxVertical < 0 {
		errs = append(errs, errors.New("flat box extents must not be negative"))
	}
	for name, r := range map[string]IntRange{
		"timed_seconds":     t.TimedSeconds,
		"sleep_seconds":     t.SleepSeconds,
		"radial_wave_count": t.RadialWaveCount,
		"beam_ticks":        t.BeamTicks,
		"beam_seconds":      t.BeamSeconds,
		"flat_seconds":      t.FlatSeconds,
	} {
		if err := r.validate(name); err != nil {
			errs = append(errs, err)
		}
	}
	for name, r := range map[string]FloatRange{
		"jump_velocity":       t.JumpVelocity,
		"belly_flop_velocity": t.BellyFlopVelocity,
	} {
		if err := r.validate(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t Tuning) flatBox() model.Vec3 {
	return model.NewVec3(t.FlatBoxHorizontal, t.FlatBoxVertical, t.FlatBoxHorizontal)
}

func (t Tuning) groundPoll() scheduler.Ticks {
	return scheduler.Ticks(t.GroundPollTicks)
}
