package tracker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"modes_radar/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLookup is a simple TypeLookup that records every hex it was asked about
type mockLookup struct {
	types map[string]string
	calls []string
}

func (m *mockLookup) LookupType(hex string) string {
	m.calls = append(m.calls, hex)
	if v, ok := m.types[hex]; ok {
		return v
	}
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

func f(v float64) *float64 {
	return &v
}

func message(hex string, seen float64) models.TransponderMessage {
	return models.TransponderMessage{
		Hex:           hex,
		Flight:        "SWA1234 ",
		ValidPosition: true,
		Lat:           f(30.2),
		Lon:           f(-90.1),
		Altitude:      f(12000),
		ValidTrack:    true,
		Track:         f(45),
		Speed:         f(310),
		Messages:      100,
		Seen:          f(seen),
	}
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestTracker(lookup *mockLookup) *Tracker {
	return New(lookup, WithClock(func() time.Time { return fixedNow }))
}

func TestReconcile_CreatesNewAircraft(t *testing.T) {
	lookup := &mockLookup{types: map[string]string{"ABC123": "737-7H4"}}
	tr := newTestTracker(lookup)

	stats := tr.Reconcile([]models.TransponderMessage{message("abc123", 5)})

	assert.Equal(t, Stats{Created: 1, MessagesReceived: 1}, stats)
	require.Equal(t, 1, tr.Len())

	ac := tr.Aircraft()[0]
	assert.Equal(t, "ABC123", ac.HexCode)
	assert.Equal(t, "737-7H4", ac.Type)
	assert.Equal(t, "SWA1234", ac.Flight)
	assert.True(t, ac.HasValidPosition)
	assert.Equal(t, 30.2, ac.Latitude)
	assert.Equal(t, 100, ac.MessageCount)
	assert.Equal(t, 5.0, ac.Seen)
	assert.Equal(t, []string{"ABC123"}, lookup.calls)
	assert.Equal(t, fixedNow, tr.LastUpdate())
}

func TestReconcile_UpdatesExistingAircraft(t *testing.T) {
	lookup := &mockLookup{}
	tr := newTestTracker(lookup)
	tr.Reconcile([]models.TransponderMessage{message("ABC123", 5)})

	next := message("ABC123", 1)
	next.Flight = ""
	next.ValidPosition = false
	next.Altitude = nil
	next.Messages = 140

	stats := tr.Reconcile([]models.TransponderMessage{next})

	assert.Equal(t, Stats{Updated: 1, MessagesReceived: 1}, stats)
	require.Equal(t, 1, tr.Len())

	ac := tr.Aircraft()[0]
	assert.Equal(t, NotAvailable, ac.Flight)
	assert.False(t, ac.HasValidPosition)
	assert.Nil(t, ac.Altitude)
	assert.Equal(t, 140, ac.MessageCount)
	assert.Equal(t, 1.0, ac.Seen)

	// type is resolved once, at creation
	assert.Len(t, lookup.calls, 1)
}

func TestReconcile_StaleRecordEvictedWithoutRecreate(t *testing.T) {
	tr := newTestTracker(&mockLookup{})
	tr.Reconcile([]models.TransponderMessage{message("ABC123", 5)})
	tr.Reconcile([]models.TransponderMessage{message("ABC123", 61)})
	require.Equal(t, 1, tr.Len())

	// the stored record is stale; the fresh message must not bring it back this cycle
	stats := tr.Reconcile([]models.TransponderMessage{message("ABC123", 5)})

	assert.Equal(t, Stats{Removed: 1, MessagesReceived: 1}, stats)
	assert.Equal(t, 0, tr.Len())

	// it comes back on the following cycle
	stats = tr.Reconcile([]models.TransponderMessage{message("ABC123", 5)})
	assert.Equal(t, Stats{Created: 1, MessagesReceived: 1}, stats)
	assert.Equal(t, 1, tr.Len())
}

func TestReconcile_StaleUntrackedMessageDropped(t *testing.T) {
	lookup := &mockLookup{}
	tr := newTestTracker(lookup)

	stats := tr.Reconcile([]models.TransponderMessage{message("DEF456", 75)})

	assert.Equal(t, Stats{MessagesReceived: 1}, stats)
	assert.Equal(t, 0, tr.Len())
	assert.Empty(t, lookup.calls)
}

func TestReconcile_SeenAtLimitIsKept(t *testing.T) {
	tr := newTestTracker(&mockLookup{})

	tr.Reconcile([]models.TransponderMessage{message("ABC123", 60)})
	require.Equal(t, 1, tr.Len())

	stats := tr.Reconcile([]models.TransponderMessage{message("ABC123", 60)})
	assert.Equal(t, Stats{Updated: 1, MessagesReceived: 1}, stats)
}

func TestReconcile_CustomSeenLimit(t *testing.T) {
	tr := New(&mockLookup{}, WithSeenLimit(10))
	assert.Equal(t, 10.0, tr.SeenLimit())

	stats := tr.Reconcile([]models.TransponderMessage{message("ABC123", 11)})
	assert.Equal(t, 0, stats.Created)
}

func TestReconcile_NoSweepOfSilentAircraft(t *testing.T) {
	tr := newTestTracker(&mockLookup{})
	tr.Reconcile([]models.TransponderMessage{message("ABC123", 61)})
	assert.Equal(t, 0, tr.Len())

	tr.Reconcile([]models.TransponderMessage{message("ABC123", 50)})
	tr.Reconcile([]models.TransponderMessage{message("ABC123", 70)})
	require.Equal(t, 1, tr.Len())

	// ABC123 is stale but never mentioned again, so it stays
	for i := 0; i < 3; i++ {
		tr.Reconcile([]models.TransponderMessage{message("DEF456", 1)})
	}
	assert.Equal(t, 2, tr.Len())
}

func TestReconcile_MixedBatch(t *testing.T) {
	tr := newTestTracker(&mockLookup{})
	tr.Reconcile([]models.TransponderMessage{
		message("AAAAAA", 1),
		message("BBBBBB", 1),
	})
	tr.Reconcile([]models.TransponderMessage{
		message("BBBBBB", 65),
	})

	stats := tr.Reconcile([]models.TransponderMessage{
		message("AAAAAA", 2),  // update
		message("BBBBBB", 2),  // stored record stale -> removed
		message("CCCCCC", 3),  // create
		message("DDDDDD", 90), // stale and untracked -> dropped
		{Flight: "NOHEX"},     // no identity -> skipped
	})

	assert.Equal(t, Stats{Created: 1, Updated: 1, Removed: 1, MessagesReceived: 5}, stats)

	var hexes []string
	for _, ac := range tr.Aircraft() {
		hexes = append(hexes, ac.HexCode)
	}
	assert.Equal(t, []string{"AAAAAA", "CCCCCC"}, hexes)
}

func TestReconcile_DuplicateHexInBatch(t *testing.T) {
	tr := newTestTracker(&mockLookup{})

	stats := tr.Reconcile([]models.TransponderMessage{
		message("ABC123", 3),
		message("abc123", 1),
	})

	assert.Equal(t, Stats{Created: 1, Updated: 1, MessagesReceived: 2}, stats)
	require.Equal(t, 1, tr.Len())
	assert.Equal(t, 1.0, tr.Aircraft()[0].Seen)
}

func TestReconcile_EmptyBatchResetsCounters(t *testing.T) {
	tr := newTestTracker(&mockLookup{})
	tr.Reconcile([]models.TransponderMessage{message("ABC123", 1), message("DEF456", 1)})

	for i := 0; i < 3; i++ {
		stats := tr.Reconcile(nil)
		assert.Equal(t, Stats{}, stats)
		assert.Equal(t, Stats{}, tr.Stats())
		assert.Equal(t, 2, tr.Len())
		assert.False(t, tr.ConnectionError())
	}
}

func TestReconcile_MissingSeenCountsAsFresh(t *testing.T) {
	tr := newTestTracker(&mockLookup{})

	stats := tr.Reconcile([]models.TransponderMessage{{Hex: "ABC123"}})

	assert.Equal(t, 1, stats.Created)
	ac := tr.Aircraft()[0]
	assert.Equal(t, NotAvailable, ac.Flight)
	assert.False(t, ac.HasValidPosition)
	assert.False(t, ac.HasValidTrack)
	assert.Nil(t, ac.Speed)
}

func TestClear(t *testing.T) {
	tr := newTestTracker(&mockLookup{})
	tr.Reconcile([]models.TransponderMessage{message("ABC123", 1), message("DEF456", 1)})
	tr.Poll(context.Background(), &mockSource{err: errors.New("connection refused")})
	tr.Reconcile([]models.TransponderMessage{message("ABC123", 1)})
	before := tr.Stats()

	tr.Clear()

	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, before, tr.Stats())
	assert.True(t, tr.ConnectionError())

	// clearing an empty list is fine
	tr.Clear()
	assert.Equal(t, 0, tr.Len())
}

func TestPoll_Success(t *testing.T) {
	tr := newTestTracker(&mockLookup{})
	src := &mockSource{batch: []models.TransponderMessage{message("ABC123", 1)}}

	stats := tr.Poll(context.Background(), src)

	assert.Equal(t, Stats{Created: 1, MessagesReceived: 1}, stats)
	assert.False(t, tr.ConnectionError())
}

func TestPoll_FailureSetsConnectionError(t *testing.T) {
	tr := newTestTracker(&mockLookup{})
	tr.Reconcile([]models.TransponderMessage{message("ABC123", 1)})

	stats := tr.Poll(context.Background(), &mockSource{err: errors.New("connection refused")})

	assert.Equal(t, Stats{}, stats)
	assert.True(t, tr.ConnectionError())
	assert.Equal(t, 1, tr.Len())
	assert.Equal(t, fixedNow, tr.LastUpdate())

	// next successful poll clears the flag
	tr.Poll(context.Background(), &mockSource{})
	assert.False(t, tr.ConnectionError())
}

func TestAircraft_ReturnsCopies(t *testing.T) {
	tr := newTestTracker(&mockLookup{})
	tr.Reconcile([]models.TransponderMessage{message("ABC123", 1)})

	list := tr.Aircraft()
	list[0].Flight = "CHANGED"
	*list[0].Altitude = 1

	ac := tr.Aircraft()[0]
	assert.Equal(t, "SWA1234", ac.Flight)
	assert.Equal(t, 12000.0, *ac.Altitude)
}

func TestSummaryHeadings(t *testing.T) {
	want := "HEX     FLT       ALT     LAT         LON         SPD   TRK  SEC  TYPE                "
	assert.Equal(t, want, SummaryHeadings())
	assert.Equal(t, want, newTestTracker(&mockLookup{}).SummaryHeadings())
}

func TestAircraft_Summary(t *testing.T) {
	lookup := &mockLookup{types: map[string]string{"A1B2C3": "BOEING 737-800 NEXT GENERATION"}}
	tr := newTestTracker(lookup)

	msg := message("a1b2c3", 0.3)
	msg.Flight = "UAL1234567"
	msg.Lat = f(30.0337061234)
	msg.Lon = f(-90.053415)
	msg.Altitude = f(35000)
	msg.Speed = f(451)
	msg.Track = f(271)
	tr.Reconcile([]models.TransponderMessage{msg})

	summary := tr.Aircraft()[0].Summary()

	want := "A1B2C3  UAL12345  35000   30.0337061  -90.053415  451   271  0.3  BOEING 737-800 NEXT "
	assert.Equal(t, want, summary)
	assert.Equal(t, len(SummaryHeadings()), len(summary))
}

func TestAircraft_SummaryNotAvailable(t *testing.T) {
	tr := newTestTracker(&mockLookup{})
	tr.Reconcile([]models.TransponderMessage{{Hex: "ABC123", Seen: f(12)}})

	fields := strings.Fields(tr.Aircraft()[0].Summary())

	assert.Equal(t, []string{"ABC123", "N/A", "N/A", "N/A", "N/A", "N/A", "N/A", "12", "MODEL?"}, fields)
}
