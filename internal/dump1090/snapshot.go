package dump1090

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"modes_radar/internal/models"
)

var ErrUnknownFormat = errors.New("unrecognised snapshot format")

// ParseSnapshot decodes either the classic dump1090 data.json (a JSON array of
// aircraft) or the dump1090-fa aircraft.json object ({"now":..., "aircraft":[...]}).
// Decoding is all-or-nothing: a malformed document yields an error, never a partial batch.
func ParseSnapshot(data []byte) ([]models.TransponderMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrUnknownFormat)
	}

	switch data[0] {
	case '[':
		var msgs []models.TransponderMessage
		if err := json.Unmarshal(data, &msgs); err != nil {
			return nil, fmt.Errorf("failed to parse data.json: %w", err)
		}
		return msgs, nil

	case '{':
		var snap faSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("failed to parse aircraft.json: %w", err)
		}
		if snap.Aircraft == nil {
			return nil, fmt.Errorf("%w: object without aircraft list", ErrUnknownFormat)
		}

		msgs := make([]models.TransponderMessage, 0, len(snap.Aircraft))
		for _, a := range snap.Aircraft {
			msgs = append(msgs, a.toMessage())
		}
		return msgs, nil

	default:
		return nil, fmt.Errorf("%w: starts with %q", ErrUnknownFormat, data[0])
	}
}

type faSnapshot struct {
	Now      float64      `json:"now"`
	Messages int          `json:"messages"`
	Aircraft []faAircraft `json:"aircraft"`
}

type faAircraft struct {
	Hex      string        `json:"hex"`
	Flight   string        `json:"flight"`
	Lat      *float64      `json:"lat"`
	Lon      *float64      `json:"lon"`
	AltBaro  *baroAltitude `json:"alt_baro"`
	AltGeom  *float64      `json:"alt_geom"`
	GS       *float64      `json:"gs"`
	Track    *float64      `json:"track"`
	Messages int           `json:"messages"`
	Seen     *float64      `json:"seen"`
}

func (a faAircraft) toMessage() models.TransponderMessage {
	msg := models.TransponderMessage{
		Hex:           a.Hex,
		Flight:        a.Flight,
		ValidPosition: models.Flag(a.Lat != nil && a.Lon != nil),
		Lat:           a.Lat,
		Lon:           a.Lon,
		ValidTrack:    models.Flag(a.Track != nil),
		Track:         a.Track,
		Speed:         a.GS,
		Messages:      a.Messages,
		Seen:          a.Seen,
	}

	switch {
	case a.AltBaro != nil:
		alt := float64(*a.AltBaro)
		msg.Altitude = &alt
	case a.AltGeom != nil:
		msg.Altitude = a.AltGeom
	}

	return msg
}

// baroAltitude is a barometric altitude in feet; dump1090-fa reports "ground" for surface targets
type baroAltitude float64

func (b *baroAltitude) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "ground" {
			*b = 0
			return nil
		}
		return fmt.Errorf("invalid alt_baro %q", s)
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid alt_baro %s", string(data))
	}
	*b = baroAltitude(v)
	return nil
}
