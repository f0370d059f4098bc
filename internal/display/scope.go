// Package display draws tracked aircraft on a text radar scope with a summary table.
package display

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"modes_radar/internal/geo"
)

// cellAspect is the number of terminal columns per row needed for a round-looking scope;
// character cells are roughly twice as tall as they are wide
const cellAspect = 2

// View is the presentation configuration: where the scope is centred and what it shows
type View struct {
	CenterLat  float64
	CenterLon  float64
	Unit       geo.Unit
	Range      float64 // distance from centre to the scope edge, in Unit
	RadiusRows int     // rows from centre to the scope edge

	Locked         []string // hex codes drawn with distance and bearing
	OnlyPositioned bool     // list only aircraft with a valid position
	OnlyFlight     bool     // list only aircraft broadcasting a flight id
}

// Scope converts coordinates to character cells for a View
type Scope struct {
	mu   sync.RWMutex
	view View

	// degrees per row and per column
	latScale float64
	lonScale float64
}

func NewScope(view View) (*Scope, error) {
	s := &Scope{view: view}
	if err := s.rescale(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scope) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := s.view
	v.Locked = append([]string(nil), s.view.Locked...)
	return v
}

// SetCenter moves the scope centre and recomputes the scale
func (s *Scope) SetCenter(lat, lon float64) error {
	return s.apply(func(v *View) {
		v.CenterLat, v.CenterLon = lat, lon
	})
}

// SetUnit switches the unit of distance; Range is reinterpreted in the new unit
func (s *Scope) SetUnit(unit geo.Unit) error {
	return s.apply(func(v *View) {
		v.Unit = unit
	})
}

// SetRange changes the distance covered from centre to edge
func (s *Scope) SetRange(r float64) error {
	return s.apply(func(v *View) {
		v.Range = r
	})
}

// apply installs the changed view only if a scale can be derived for it
func (s *Scope) apply(change func(v *View)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevView, prevLat, prevLon := s.view, s.latScale, s.lonScale
	change(&s.view)
	if err := s.rescale(); err != nil {
		s.view, s.latScale, s.lonScale = prevView, prevLat, prevLon
		return err
	}
	return nil
}

// rescale derives degrees per cell from the view. Callers hold mu or own s exclusively.
func (s *Scope) rescale() error {
	v := s.view
	if v.CenterLat < -90 || v.CenterLat > 90 || v.CenterLon < -180 || v.CenterLon > 180 {
		return fmt.Errorf("invalid centre %v, %v", v.CenterLat, v.CenterLon)
	}
	if v.Range <= 0 {
		return fmt.Errorf("range must be greater than 0, got %v", v.Range)
	}
	if v.RadiusRows <= 0 {
		return fmt.Errorf("radius_rows must be greater than 0, got %d", v.RadiusRows)
	}

	latOffset, err := geo.DegreeOffsetForDistance(v.CenterLat, v.CenterLon, geo.Latitude, v.Range, v.Unit)
	if err != nil {
		return fmt.Errorf("failed to compute latitude scale: %w", err)
	}
	lonOffset, err := geo.DegreeOffsetForDistance(v.CenterLat, v.CenterLon, geo.Longitude, v.Range, v.Unit)
	if err != nil {
		return fmt.Errorf("failed to compute longitude scale: %w", err)
	}

	s.latScale = latOffset / float64(v.RadiusRows)
	s.lonScale = lonOffset / float64(v.RadiusRows*cellAspect)
	return nil
}

// Size returns the scope dimensions in rows and columns
func (s *Scope) Size() (rows, cols int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sizeLocked()
}

func (s *Scope) sizeLocked() (rows, cols int) {
	r := s.view.RadiusRows
	return 2*r + 1, 2*r*cellAspect + 1
}

// Project maps a coordinate to a (row, col) cell. ok is false when the point is off the scope.
func (s *Scope) Project(lat, lon float64) (row, col int, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r := s.view.RadiusRows
	row = r + int(math.Round((s.view.CenterLat-lat)/s.latScale))
	col = r*cellAspect + int(math.Round((lon-s.view.CenterLon)/s.lonScale))

	rows, cols := s.sizeLocked()
	ok = row >= 0 && row < rows && col >= 0 && col < cols
	return row, col, ok
}

// DistanceAndBearing returns how far, and in which direction, a point lies from the centre
func (s *Scope) DistanceAndBearing(lat, lon float64) (float64, float64, error) {
	s.mu.RLock()
	v := s.view
	s.mu.RUnlock()

	d, err := geo.Distance(v.CenterLat, v.CenterLon, lat, lon, v.Unit)
	if err != nil {
		return 0, 0, err
	}
	return d, geo.Bearing(v.CenterLat, v.CenterLon, lat, lon), nil
}

// IsLocked reports whether hex is in the view's lock list
func (s *Scope) IsLocked(hex string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, h := range s.view.Locked {
		if strings.EqualFold(strings.TrimSpace(h), hex) {
			return true
		}
	}
	return false
}
