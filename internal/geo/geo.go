package geo

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Unit is the unit of distance used for all geodesic calculations
type Unit string

const (
	Miles      Unit = "miles"
	Kilometers Unit = "km"
)

// Axis selects which coordinate DegreeOffsetForDistance varies
type Axis string

const (
	Latitude  Axis = "lat"
	Longitude Axis = "lon"
)

const (
	earthRadiusMiles = 3959.0
	earthRadiusKm    = 6371.0

	// offsetTolerance is the largest gap (in the requested unit) accepted by the offset search
	offsetTolerance = 0.0001
	maxIterations   = 100000
)

var (
	ErrUnknownUnit     = errors.New("unknown unit of distance")
	ErrUnknownAxis     = errors.New("unknown axis")
	ErrInvalidDistance = errors.New("invalid distance")
	ErrNoConvergence   = errors.New("offset search did not converge")
)

// ParseUnit converts a configuration string into a Unit
func ParseUnit(s string) (Unit, error) {
	switch u := Unit(strings.ToLower(strings.TrimSpace(s))); u {
	case Miles, Kilometers:
		return u, nil
	default:
		return "", fmt.Errorf("%w: %q (must be miles or km)", ErrUnknownUnit, s)
	}
}

// ParseAxis converts a string into an Axis
func ParseAxis(s string) (Axis, error) {
	switch a := Axis(strings.ToLower(strings.TrimSpace(s))); a {
	case Latitude, Longitude:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q (must be lat or lon)", ErrUnknownAxis, s)
	}
}

// EarthRadius returns the mean radius of the Earth expressed in unit
func EarthRadius(unit Unit) (float64, error) {
	switch unit {
	case Miles:
		return earthRadiusMiles, nil
	case Kilometers:
		return earthRadiusKm, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, string(unit))
	}
}

// Distance returns the great-circle distance between two points given in
// decimal degrees, computed with the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64, unit Unit) (float64, error) {
	radius, err := EarthRadius(unit)
	if err != nil {
		return 0, err
	}

	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	phi1 := radians(lat1)
	phi2 := radians(lat2)

	a := math.Pow(math.Sin(dLat/2), 2) + math.Cos(phi1)*math.Cos(phi2)*math.Pow(math.Sin(dLon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return radius * c, nil
}

// Bearing returns the initial bearing in degrees [0, 360) from point 1 toward point 2.
// The bearing of a point to itself is 0.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dLon := radians(lon2 - lon1)

	x := math.Cos(phi2) * math.Sin(dLon)
	y := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)

	bearing := math.Mod(degrees(math.Atan2(x, y))+360, 360)
	if bearing >= 360 {
		bearing = 0
	}
	return bearing
}

// DegreeOffsetForDistance finds how far latitude (or longitude) has to move away
// from (lat, lon), with the other coordinate held fixed, to cover desired distance.
//
// The search walks the varied coordinate in steps of 1 degree and shrinks the step
// tenfold each time an increase overshoots the target. Intermediate coordinates are
// rounded to 6 decimal places. Distance stays the only definition of the metric,
// so the result accounts for meridians converging toward the poles.
func DegreeOffsetForDistance(lat, lon float64, axis Axis, desired float64, unit Unit) (float64, error) {
	if axis != Latitude && axis != Longitude {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAxis, string(axis))
	}
	if _, err := EarthRadius(unit); err != nil {
		return 0, err
	}
	if desired < 0 || math.IsNaN(desired) || math.IsInf(desired, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidDistance, desired)
	}

	origin := lat
	if axis == Longitude {
		origin = lon
	}

	measure := func(value float64) float64 {
		// unit already validated above
		if axis == Latitude {
			d, _ := Distance(lat, lon, value, lon, unit)
			return d
		}
		d, _ := Distance(lat, lon, lat, value, unit)
		return d
	}

	value := origin
	actual := 0.0
	step := 1.0
	shrink := false

	for i := 0; math.Abs(desired-actual) > offsetTolerance; i++ {
		if i >= maxIterations {
			return 0, fmt.Errorf("%w: %v %s along %s from (%v, %v)", ErrNoConvergence, desired, unit, axis, lat, lon)
		}

		if desired > actual {
			value = round6(value + step)
			shrink = true
		} else {
			if shrink {
				step *= 0.1
			}
			value = round6(value - step)
			shrink = false
		}

		actual = measure(value)
	}

	return math.Abs(round6(value - origin)), nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
