package ai

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/udisondev/bossai/internal/model"
)

func TestMultiSink_FanOut(t *testing.T) {
	a, b := &recordSink{}, &recordSink{}
	var fromFunc []TransitionEvent

	sink := MultiSink{a, nil, b, SinkFunc(func(ev TransitionEvent) { fromFunc = append(fromFunc, ev) })}
	ev := TransitionEvent{BossID: 1, From: model.BehaviorIdle, To: model.BehaviorJump, Reason: ReasonForced}
	sink.OnTransition(ev)

	assert.Equal(t, []TransitionEvent{ev}, a.events)
	assert.Equal(t, []TransitionEvent{ev}, b.events)
	assert.Equal(t, []TransitionEvent{ev}, fromFunc)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	LogSink{Logger: logger}.OnTransition(TransitionEvent{
		BossName:  "Snorlax",
		From:      model.BehaviorIdle,
		To:        model.BehaviorIdle,
		Requested: model.BehaviorBeamAttack,
		Reason:    ReasonFallback,
		Disabled:  "Idle",
		Enabled:   "Idle",
	})

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "disabling=Idle")
	assert.Contains(t, out, "requested=BEAM_ATTACK")
	assert.Contains(t, out, "reason=fallback")
}

func TestLogSink_OutOfRangeRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	LogSink{Logger: logger}.OnTransition(TransitionEvent{
		To:        model.BehaviorIdle,
		Requested: model.BehaviorKind(42),
		Reason:    ReasonFallback,
	})

	out := buf.String()
	assert.Contains(t, out, "UNKNOWN(42)")
	assert.NotContains(t, out, "!ERROR")
}

func TestEnableDebugLogging(t *testing.T) {
	t.Cleanup(func() { EnableDebugLogging(false) })

	for _, enabled := range []bool{true, false, true} {
		EnableDebugLogging(enabled)
		assert.Equal(t, enabled, IsDebugEnabled())
	}
}
