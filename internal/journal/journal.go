package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/udisondev/bossai/internal/ai"
)

// Prefix is the file name prefix of transition journals.
const Prefix = "transitions"

// Journal is an ai.TransitionSink that records every transition on disk.
// OnTransition only enqueues; Run does the writing.
type Journal struct {
	w       *JSONLZstdWriter
	events  chan ai.TransitionEvent
	dropped atomic.Int64
}

// New creates a journal writing under dir. buffer bounds the queue.
func New(dir string, buffer int) *Journal {
	if buffer <= 0 {
		buffer = 1024
	}
	return &Journal{
		w:      NewJSONLZstdWriter(dir, Prefix),
		events: make(chan ai.TransitionEvent, buffer),
	}
}

// OnTransition queues ev. Never blocks: a full queue drops the event.
func (j *Journal) OnTransition(ev ai.TransitionEvent) {
	select {
	case j.events <- ev:
	default:
		if j.dropped.Add(1) == 1 {
			slog.Warn("journal queue full, dropping transitions")
		}
	}
}

// Dropped returns the number of events lost to a full queue.
func (j *Journal) Dropped() int64 {
	return j.dropped.Load()
}

// Run writes queued events until ctx is canceled, flushing every
// flushInterval, then drains the queue and closes the file.
func (j *Journal) Run(ctx context.Context, flushInterval time.Duration) error {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	slog.Info("transition journal started", "flushInterval", flushInterval)

	for {
		select {
		case <-ctx.Done():
			for drained := false; !drained; {
				select {
				case ev := <-j.events:
					j.write(ev)
				default:
					drained = true
				}
			}
			if err := j.w.Close(); err != nil {
				slog.Error("closing transition journal", "error", err)
			}
			slog.Info("transition journal stopped", "dropped", j.Dropped())
			return ctx.Err()

		case ev := <-j.events:
			j.write(ev)

		case <-ticker.C:
			if err := j.w.Flush(); err != nil {
				slog.Error("flushing transition journal", "error", err)
			}
		}
	}
}

func (j *Journal) write(ev ai.TransitionEvent) {
	if err := j.w.Write(ev); err != nil {
		slog.Error("writing transition journal", "bossID", ev.BossID, "error", err)
	}
}

// ReadFile decodes every transition in a journal file.
func ReadFile(path string) ([]ai.TransitionEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer dec.Close()

	var out []ai.TransitionEvent
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var ev ai.TransitionEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			return out, fmt.Errorf("decoding journal line %d: %w", len(out)+1, err)
		}
		out = append(out, ev)
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("reading journal %s: %w", path, err)
	}
	return out, nil
}
