package tracker

import (
	"fmt"
	"strconv"
	"strings"

	"modes_radar/internal/models"
)

// NotAvailable is shown for fields the transponder has not (validly) reported
const NotAvailable = "N/A"

// Aircraft is the current decoded state of one tracked aircraft.
// HexCode and Type are fixed at creation; everything else is replaced by each update.
type Aircraft struct {
	HexCode string
	Type    string

	Flight           string
	HasValidPosition bool
	Latitude         float64
	Longitude        float64
	Altitude         *float64
	HasValidTrack    bool
	Track            float64
	Speed            *float64
	MessageCount     int
	Seen             float64
}

func newAircraft(msg *models.TransponderMessage, aircraftType string) *Aircraft {
	ac := &Aircraft{
		HexCode: msg.ICAO(),
		Type:    aircraftType,
	}
	ac.update(msg)
	return ac
}

// update overwrites every mutable field from msg; nothing carries over from the previous message
func (a *Aircraft) update(msg *models.TransponderMessage) {
	a.Flight = strings.TrimSpace(msg.Flight)
	if a.Flight == "" {
		a.Flight = NotAvailable
	}

	a.HasValidPosition = bool(msg.ValidPosition) && msg.Lat != nil && msg.Lon != nil
	a.Latitude, a.Longitude = 0, 0
	if a.HasValidPosition {
		a.Latitude, a.Longitude = *msg.Lat, *msg.Lon
	}

	a.HasValidTrack = bool(msg.ValidTrack) && msg.Track != nil
	a.Track = 0
	if a.HasValidTrack {
		a.Track = *msg.Track
	}

	a.Altitude = copyFloat(msg.Altitude)
	a.Speed = copyFloat(msg.Speed)
	a.MessageCount = msg.Messages
	a.Seen = msg.SeenSeconds()
}

// HasFlight reports whether the aircraft has broadcast a flight identification
func (a *Aircraft) HasFlight() bool {
	return a.Flight != NotAvailable
}

// Summary formats the aircraft as one fixed-width row matching SummaryHeadings
func (a *Aircraft) Summary() string {
	lat, lon := NotAvailable, NotAvailable
	if a.HasValidPosition {
		lat, lon = formatNumber(a.Latitude), formatNumber(a.Longitude)
	}

	track := NotAvailable
	if a.HasValidTrack {
		track = formatNumber(a.Track)
	}

	return formatRow(
		a.HexCode,
		a.Flight,
		formatOptional(a.Altitude),
		lat,
		lon,
		formatOptional(a.Speed),
		track,
		formatNumber(a.Seen),
		a.Type,
	)
}

// clone returns a deep copy so callers can't reach tracker-owned state
func (a *Aircraft) clone() Aircraft {
	c := *a
	c.Altitude = copyFloat(a.Altitude)
	c.Speed = copyFloat(a.Speed)
	return c
}

// SummaryHeadings returns column headings aligned with Aircraft.Summary
func SummaryHeadings() string {
	return formatRow("HEX", "FLT", "ALT", "LAT", "LON", "SPD", "TRK", "SEC", "TYPE")
}

// column widths: HEX FLT ALT LAT LON SPD TRK SEC TYPE
func formatRow(hex, flight, alt, lat, lon, speed, track, seen, aircraftType string) string {
	return fmt.Sprintf("%-6.6s  %-8.8s  %-6.6s  %-10.10s  %-10.10s  %-4.4s  %-3.3s  %-3.3s  %-20.20s",
		hex, flight, alt, lat, lon, speed, track, seen, aircraftType)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return formatNumber(*v)
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
