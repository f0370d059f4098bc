// Package tracker reconciles periodic receiver snapshots into a deduplicated list of
// tracked aircraft.
//
// Each call to Reconcile walks the batch in order. For every message:
//   - a tracked aircraft whose stored seen value is over the limit is removed, and the
//     same message does not recreate it (it reappears on a later batch);
//   - otherwise a tracked aircraft is updated from the message;
//   - an untracked aircraft is created only if the message's own seen is within the limit.
//
// Aircraft that stop appearing in snapshots are never swept; they stay until a message
// about them arrives with a stale seen value, or until Clear.
package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"modes_radar/internal/models"
)

// DefaultSeenLimit is the staleness threshold in seconds
const DefaultSeenLimit = 60.0

// TypeLookup resolves an aircraft type from its hex code. It must never fail;
// unknown aircraft resolve to a placeholder.
type TypeLookup interface {
	LookupType(hex string) string
}

// Source fetches the latest snapshot from the receiver
type Source interface {
	Fetch(ctx context.Context) ([]models.TransponderMessage, error)
}

// Stats are the counters of the most recent reconciliation
type Stats struct {
	Created          int
	Updated          int
	Removed          int
	MessagesReceived int
}

// Tracker owns the list of tracked aircraft
type Tracker struct {
	mu sync.RWMutex

	lookup    TypeLookup
	seenLimit float64
	now       func() time.Time

	aircraft        []*Aircraft
	stats           Stats
	connectionError bool
	lastUpdate      time.Time
}

// Option configures a Tracker
type Option func(*Tracker)

// WithSeenLimit overrides DefaultSeenLimit
func WithSeenLimit(seconds float64) Option {
	return func(t *Tracker) {
		t.seenLimit = seconds
	}
}

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

func New(lookup TypeLookup, opts ...Option) *Tracker {
	t := &Tracker{
		lookup:    lookup,
		seenLimit: DefaultSeenLimit,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Poll fetches a snapshot from src and reconciles it. A failed fetch sets the
// connection error flag and reconciles an empty batch; Poll itself never fails.
func (t *Tracker) Poll(ctx context.Context, src Source) Stats {
	batch, err := src.Fetch(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()

	if err != nil {
		slog.Warn("Failed to fetch receiver data", "error", err)
		t.connectionError = true
		return t.reconcileLocked(nil)
	}

	t.connectionError = false
	return t.reconcileLocked(batch)
}

// Reconcile applies a decoded batch of transponder messages to the tracked list
func (t *Tracker) Reconcile(batch []models.TransponderMessage) Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.reconcileLocked(batch)
}

func (t *Tracker) reconcileLocked(batch []models.TransponderMessage) Stats {
	t.lastUpdate = t.now()
	t.stats = Stats{MessagesReceived: len(batch)}

	for i := range batch {
		msg := &batch[i]

		hex := msg.ICAO()
		if hex == "" {
			slog.Debug("Skipping message without hex code", "index", i)
			continue
		}

		tracked := false
		if idx := t.indexOf(hex); idx >= 0 {
			existing := t.aircraft[idx]
			if existing.Seen > t.seenLimit {
				// judged on the stored record; the incoming message is dropped below
				// even when it is fresh
				t.aircraft = append(t.aircraft[:idx], t.aircraft[idx+1:]...)
				t.stats.Removed++
				slog.Debug("Removed stale aircraft", "hex", hex, "seen", existing.Seen)
				continue
			}

			existing.update(msg)
			t.stats.Updated++
			tracked = true
		}

		if !tracked && msg.SeenSeconds() <= t.seenLimit {
			ac := newAircraft(msg, t.lookup.LookupType(hex))
			t.aircraft = append(t.aircraft, ac)
			t.stats.Created++
			slog.Debug("Tracking new aircraft", "hex", hex, "type", ac.Type)
		}
	}

	return t.stats
}

func (t *Tracker) indexOf(hex string) int {
	for i, ac := range t.aircraft {
		if ac.HexCode == hex {
			return i
		}
	}
	return -1
}

// Clear drops every tracked aircraft. Counters and the connection flag are kept.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.aircraft = nil
}

// Aircraft returns a copy of the tracked aircraft in the order they were first seen
func (t *Tracker) Aircraft() []Aircraft {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Aircraft, 0, len(t.aircraft))
	for _, ac := range t.aircraft {
		out = append(out, ac.clone())
	}
	return out
}

// Len returns the number of tracked aircraft
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.aircraft)
}

func (t *Tracker) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.stats
}

// ConnectionError reports whether the most recent poll failed to retrieve data
func (t *Tracker) ConnectionError() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.connectionError
}

// LastUpdate is the time of the most recent poll or reconcile attempt
func (t *Tracker) LastUpdate() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.lastUpdate
}

func (t *Tracker) SeenLimit() float64 {
	return t.seenLimit
}

// SummaryHeadings returns the column headings for Aircraft.Summary rows
func (t *Tracker) SummaryHeadings() string {
	return SummaryHeadings()
}
