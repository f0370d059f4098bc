package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"modes_radar/internal/display"
	"modes_radar/internal/models"
	"modes_radar/internal/tracker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLookup struct{}

func (staticLookup) LookupType(hex string) string {
	return "MODEL?"
}

// mockSource returns a canned batch or error
type mockSource struct {
	batch []models.TransponderMessage
	err   error
}

func (m *mockSource) Fetch(ctx context.Context) ([]models.TransponderMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.batch, nil
}

// mockSink records every frame it is handed
type mockSink struct {
	frames []display.Frame
	err    error
}

func (m *mockSink) Render(f display.Frame) error {
	m.frames = append(m.frames, f)
	return m.err
}

func seen(v float64) *float64 {
	return &v
}

func TestNewRadarTask_DefaultInterval(t *testing.T) {
	task := NewRadarTask(tracker.New(staticLookup{}), &mockSource{}, nil, 0)

	assert.Equal(t, 500*time.Millisecond, task.Interval())
	assert.Equal(t, "radar", task.Name())
}

func TestRadarTask_RunPollsAndRenders(t *testing.T) {
	tr := tracker.New(staticLookup{})
	src := &mockSource{batch: []models.TransponderMessage{
		{Hex: "a1b2c3", Messages: 10, Seen: seen(1)},
		{Hex: "abcdef", Messages: 3, Seen: seen(2)},
	}}
	sink := &mockSink{}

	task := NewRadarTask(tr, src, sink, time.Second)
	require.NoError(t, task.Run(context.Background()))

	require.Len(t, sink.frames, 1)
	frame := sink.frames[0]
	assert.Len(t, frame.Aircraft, 2)
	assert.Equal(t, 2, frame.Stats.Created)
	assert.Equal(t, 2, frame.Stats.MessagesReceived)
	assert.False(t, frame.ConnectionError)
}

func TestRadarTask_ReceiverFailureStillRenders(t *testing.T) {
	tr := tracker.New(staticLookup{})
	src := &mockSource{err: errors.New("connection refused")}
	sink := &mockSink{}

	task := NewRadarTask(tr, src, sink, time.Second)
	require.NoError(t, task.Run(context.Background()))

	require.Len(t, sink.frames, 1)
	assert.True(t, sink.frames[0].ConnectionError)
	assert.Empty(t, sink.frames[0].Aircraft)
}

func TestRadarTask_RenderError(t *testing.T) {
	tr := tracker.New(staticLookup{})
	sink := &mockSink{err: errors.New("broken pipe")}

	task := NewRadarTask(tr, &mockSource{}, sink, time.Second)
	assert.Error(t, task.Run(context.Background()))
}

func TestRadarTask_NoSink(t *testing.T) {
	tr := tracker.New(staticLookup{})
	src := &mockSource{batch: []models.TransponderMessage{{Hex: "a1b2c3", Seen: seen(1)}}}

	task := NewRadarTask(tr, src, nil, time.Second)
	require.NoError(t, task.Run(context.Background()))
	assert.Equal(t, 1, tr.Len())
}
