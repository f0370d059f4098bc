package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"modes_radar/internal/display"
	"modes_radar/internal/tracker"
)

// FrameSink receives a frame after every poll
type FrameSink interface {
	Render(f display.Frame) error
}

// RadarTask polls the receiver, reconciles the snapshot into the tracker and repaints
type RadarTask struct {
	tracker  *tracker.Tracker
	source   tracker.Source
	sink     FrameSink
	interval time.Duration
}

// NewRadarTask creates the poll task. sink may be nil when nothing is displayed.
func NewRadarTask(t *tracker.Tracker, source tracker.Source, sink FrameSink, interval time.Duration) *RadarTask {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &RadarTask{
		tracker:  t,
		source:   source,
		sink:     sink,
		interval: interval,
	}
}

func (r *RadarTask) Name() string {
	return "radar"
}

func (r *RadarTask) Interval() time.Duration {
	return r.interval
}

// Run performs one poll cycle. A receiver failure is not an error here; it is
// reported through the tracker's connection flag and shown on the next frame.
func (r *RadarTask) Run(ctx context.Context) error {
	stats := r.tracker.Poll(ctx, r.source)

	slog.Debug("Reconciled receiver snapshot",
		"messages", stats.MessagesReceived,
		"created", stats.Created,
		"updated", stats.Updated,
		"removed", stats.Removed,
		"tracked", r.tracker.Len(),
		"connection_error", r.tracker.ConnectionError(),
	)

	if r.sink == nil {
		return nil
	}
	if err := r.sink.Render(display.FrameFrom(r.tracker)); err != nil {
		return fmt.Errorf("failed to render frame: %w", err)
	}
	return nil
}
