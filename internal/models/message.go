package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// TransponderMessage is one aircraft entry of a dump1090 data.json snapshot.
// Optional numeric fields are pointers so an absent value stays distinguishable from zero.
type TransponderMessage struct {
	Hex           string   `json:"hex"`
	Flight        string   `json:"flight"`
	ValidPosition Flag     `json:"validposition"`
	Lat           *float64 `json:"lat"`
	Lon           *float64 `json:"lon"`
	Altitude      *float64 `json:"altitude"`
	ValidTrack    Flag     `json:"validtrack"`
	Track         *float64 `json:"track"`
	Speed         *float64 `json:"speed"`
	Messages      int      `json:"messages"`
	Seen          *float64 `json:"seen"` // seconds since the receiver last heard this aircraft
}

// ICAO returns the normalised (upper case, trimmed) hex identity of the message
func (m *TransponderMessage) ICAO() string {
	return strings.ToUpper(strings.TrimSpace(m.Hex))
}

// SeenSeconds returns the staleness clock of the message; a missing value counts as fresh
func (m *TransponderMessage) SeenSeconds() float64 {
	if m.Seen == nil {
		return 0
	}
	return *m.Seen
}

// Flag is a validity indicator that dump1090 forks encode either as 0/1 or as a JSON bool
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = false
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag(b)
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid flag value %s", string(data))
	}
	*f = n != 0
	return nil
}

func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}
