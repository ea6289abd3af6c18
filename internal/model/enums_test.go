package model

import "testing"

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{AnimationPlay.String(), "PLAY"},
		{AnimationLoop.String(), "LOOP"},
		{AnimationHold.String(), "HOLD"},
		{AnimationOnceThenLoop.String(), "ONCE_THEN_LOOP"},
		{AnimationMode(42).String(), "UNKNOWN"},
		{EffectSleeping.String(), "SLEEPING"},
		{EffectRadialWave.String(), "RADIAL_WAVE"},
		{EffectHyperBeam.String(), "HYPER_BEAM"},
		{EffectKnockFlat.String(), "KNOCK_FLAT"},
		{EffectKind(42).String(), "UNKNOWN"},
		{BossAlive.String(), "ALIVE"},
		{BossDead.String(), "DEAD"},
		{BossFighting.String(), "FIGHTING"},
		{BossWaiting.String(), "WAITING"},
		{BossStatus(42).String(), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("String() = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestEnumMarshalText(t *testing.T) {
	b, err := BossFighting.MarshalText()
	if err != nil || string(b) != "FIGHTING" {
		t.Errorf("BossFighting.MarshalText() = %q, %v", b, err)
	}
	b, err = AnimationOnceThenLoop.MarshalText()
	if err != nil || string(b) != "ONCE_THEN_LOOP" {
		t.Errorf("AnimationOnceThenLoop.MarshalText() = %q, %v", b, err)
	}
}
