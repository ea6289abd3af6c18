package model

import (
	"encoding/json"
	"testing"
)

func TestBehaviorKindString(t *testing.T) {
	tests := []struct {
		kind BehaviorKind
		want string
	}{
		{BehaviorIdle, "IDLE"},
		{BehaviorCheckTarget, "CHECK_TARGET"},
		{BehaviorShaking, "SHAKING"},
		{BehaviorPunch, "PUNCH"},
		{BehaviorRun, "RUN"},
		{BehaviorBeamAttack, "BEAM_ATTACK"},
		{BehaviorBellyFlop, "BELLY_FLOP"},
		{BehaviorSleep, "SLEEP"},
		{BehaviorJump, "JUMP"},
		{BehaviorKind(999), "UNKNOWN"},
		{BehaviorKind(-1), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("BehaviorKind.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseBehaviorKind(t *testing.T) {
	for _, kind := range AllBehaviorKinds() {
		got, err := ParseBehaviorKind(kind.String())
		if err != nil {
			t.Fatalf("ParseBehaviorKind(%q) error = %v", kind.String(), err)
		}
		if got != kind {
			t.Errorf("ParseBehaviorKind(%q) = %v, want %v", kind.String(), got, kind)
		}
	}

	got, err := ParseBehaviorKind(" belly-flop ")
	if err != nil || got != BehaviorBellyFlop {
		t.Errorf("ParseBehaviorKind(belly-flop) = %v, %v; want BELLY_FLOP", got, err)
	}

	if _, err := ParseBehaviorKind("dance"); err == nil {
		t.Error("ParseBehaviorKind(dance) should fail")
	}
}

func TestAllBehaviorKinds(t *testing.T) {
	kinds := AllBehaviorKinds()
	if len(kinds) != 9 {
		t.Fatalf("len(AllBehaviorKinds()) = %d, want 9", len(kinds))
	}
	for i, k := range kinds {
		if int(k) != i || !k.Valid() {
			t.Errorf("kinds[%d] = %v, want valid kind %d", i, k, i)
		}
	}
}

func TestBehaviorKindJSON(t *testing.T) {
	type payload struct {
		Behavior BehaviorKind `json:"behavior"`
	}

	data, err := json.Marshal(payload{Behavior: BehaviorSleep})
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if string(data) != `{"behavior":"SLEEP"}` {
		t.Errorf("Marshal = %s, want {\"behavior\":\"SLEEP\"}", data)
	}

	var p payload
	if err := json.Unmarshal([]byte(`{"behavior":"run"}`), &p); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if p.Behavior != BehaviorRun {
		t.Errorf("Unmarshal behavior = %v, want RUN", p.Behavior)
	}

	if err := json.Unmarshal([]byte(`{"behavior":"nap"}`), &p); err == nil {
		t.Error("Unmarshal of unknown behaviour should fail")
	}
}

func TestBehaviorKindJSON_OutOfRange(t *testing.T) {
	type payload struct {
		Behavior BehaviorKind `json:"behavior"`
	}

	data, err := json.Marshal(payload{Behavior: BehaviorKind(42)})
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if string(data) != `{"behavior":"UNKNOWN(42)"}` {
		t.Errorf("Marshal = %s, want {\"behavior\":\"UNKNOWN(42)\"}", data)
	}

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if p.Behavior != BehaviorKind(42) {
		t.Errorf("Unmarshal behavior = %d, want 42", int32(p.Behavior))
	}
	if p.Behavior.Valid() {
		t.Error("decoded out-of-range kind must stay invalid")
	}
}
