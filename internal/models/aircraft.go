package models

// RegisteredAircraft is one row of the FAA releasable aircraft MASTER file.
// Only the columns used for lookups are kept.
type RegisteredAircraft struct {
	NNumber        string // Primary key - N-number without the leading N
	SerialNumber   string // Manufacturer serial number
	MfrMdlCode     string // Joins to AircraftReference.Code
	YearMfr        string // Year manufactured
	TypeRegistrant string // Registrant type code
	Name           string // Registrant name
	City           string
	State          string
	ModeSCode      string // Mode S code (octal)
	ModeSCodeHex   string // Mode S code as 6 hex digits, matches transponder hex
}

// AircraftReference is one row of the FAA ACFTREF file
type AircraftReference struct {
	Code         string // Manufacturer/model/series code
	Manufacturer string // Manufacturer name
	Model        string // Model name (e.g. 737-7H4)
	TypeAircraft string // Aircraft type code
	TypeEngine   string // Engine type code
	NumEngines   string
	NumSeats     string
}
