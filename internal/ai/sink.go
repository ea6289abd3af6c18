package ai

import (
	"context"
	"log/slog"
	"time"

	"github.com/udisondev/bossai/internal/model"
)

// TransitionReason says why a boss changed behaviour.
type TransitionReason string

const (
	ReasonStart    TransitionReason = "start"
	ReasonFinished TransitionReason = "finished"
	ReasonForced   TransitionReason = "forced"
	ReasonDirector TransitionReason = "director"
	ReasonFallback TransitionReason = "fallback"
	ReasonStop     TransitionReason = "stop"
)

// TransitionEvent describes one completed transition. To is the kind the
// boss ended up in; Requested differs from To only for fallbacks.
type TransitionEvent struct {
	BossID    uint32             `json:"boss_id"`
	BossName  string             `json:"boss_name"`
	From      model.BehaviorKind `json:"from"`
	To        model.BehaviorKind `json:"to"`
	Requested model.BehaviorKind `json:"requested"`
	Reason    TransitionReason   `json:"reason"`
	Disabled  string             `json:"disabled,omitempty"`
	Enabled   string             `json:"enabled,omitempty"`
	Tick      int64              `json:"tick"`
	At        time.Time          `json:"at"`
}

// TransitionSink receives transition diagnostics. Called on the tick
// goroutine; implementations must not block.
type TransitionSink interface {
	OnTransition(ev TransitionEvent)
}

// SinkFunc adapts a function to TransitionSink.
type SinkFunc func(ev TransitionEvent)

func (f SinkFunc) OnTransition(ev TransitionEvent) { f(ev) }

// MultiSink fans an event out to every non-nil sink in order.
type MultiSink []TransitionSink

func (m MultiSink) OnTransition(ev TransitionEvent) {
	for _, s := range m {
		if s != nil {
			s.OnTransition(ev)
		}
	}
}

// LogSink writes "Disabling X / Enabling Y" lines for every transition.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) OnTransition(ev TransitionEvent) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	level := slog.LevelInfo
	if ev.Reason == ReasonFallback {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, "boss behavior transition",
		"boss", ev.BossName,
		"bossID", ev.BossID,
		"disabling", ev.Disabled,
		"enabling", ev.Enabled,
		"from", ev.From,
		"to", ev.To,
		"requested", ev.Requested,
		"reason", ev.Reason,
		"tick", ev.Tick)
}
