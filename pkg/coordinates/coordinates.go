// Package coordinates provides the great-circle math used to measure how far
// an aircraft is from the observer.
package coordinates

import (
	"fmt"
	"math"
	"strings"
)

// Constants for coordinate calculations
const (
	// DegreesToRadians converts degrees to radians
	DegreesToRadians = math.Pi / 180.0

	// EarthRadiusKm is the Earth's radius in kilometers (WGS84 mean radius)
	EarthRadiusKm = 6371.0

	kmPerNauticalMile  = 1.852
	kmPerStatuteMile   = 1.609344
	metersPerKilometer = 1000.0
)

// Geographic represents a position on Earth's surface.
// Uses the WGS84 coordinate system (same as GPS).
type Geographic struct {
	// Latitude in decimal degrees (-90 to +90)
	Latitude float64

	// Longitude in decimal degrees (-180 to +180)
	Longitude float64
}

// Observer represents the geographic location of the receiving station.
type Observer struct {
	// Location is the observer's position on Earth
	Location Geographic

	// Timezone is the IANA timezone name (e.g., "America/New_York") the
	// receiver writes its log timestamps in.
	Timezone string
}

// DistanceUnit is the unit distances are reported in. The aggregation engine
// never converts between units; the unit only matters when a distance is
// computed from coordinates.
type DistanceUnit string

const (
	Kilometers      DistanceUnit = "km"
	NauticalMiles   DistanceUnit = "nm"
	StatuteMiles    DistanceUnit = "mi"
	Meters          DistanceUnit = "m"
	DefaultDistUnit              = StatuteMiles
)

// ParseDistanceUnit validates a unit label.
func ParseDistanceUnit(s string) (DistanceUnit, error) {
	switch u := DistanceUnit(strings.ToLower(strings.TrimSpace(s))); u {
	case Kilometers, NauticalMiles, StatuteMiles, Meters:
		return u, nil
	default:
		return "", fmt.Errorf("distance unit must be one of [km|nm|mi|m], got %q", s)
	}
}

// FromKilometers converts a distance in kilometers to the unit.
func (u DistanceUnit) FromKilometers(km float64) float64 {
	switch u {
	case NauticalMiles:
		return km / kmPerNauticalMile
	case StatuteMiles:
		return km / kmPerStatuteMile
	case Meters:
		return km * metersPerKilometer
	default:
		return km
	}
}

// DistanceKilometers calculates the great-circle distance between two points
// using the Haversine formula.
func DistanceKilometers(from, to Geographic) float64 {
	lat1Rad := from.Latitude * DegreesToRadians
	lon1Rad := from.Longitude * DegreesToRadians
	lat2Rad := to.Latitude * DegreesToRadians
	lon2Rad := to.Longitude * DegreesToRadians

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Distance returns the great-circle distance between two points in unit.
func Distance(from, to Geographic, unit DistanceUnit) float64 {
	return unit.FromKilometers(DistanceKilometers(from, to))
}

// ValidLatLon reports whether the pair is a usable position.
func ValidLatLon(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
