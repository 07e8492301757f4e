// Package adsb defines the sighting record written by a dump1090-style
// receiver logger, one row per reception of an aircraft's transponder.
package adsb

import "math"

// ICAOLength is the length of a well-formed ICAO 24-bit address in hex.
const ICAOLength = 6

// Sentinel is substituted for a numeric field that could not be parsed. It is
// larger than any realistic threshold, so such a sighting is never in range.
const Sentinel = 999999.0

// Measurement is a numeric field that may have failed to parse.
type Measurement struct {
	Value float64
	Valid bool
}

// Measured wraps a parsed value.
func Measured(v float64) Measurement {
	return Measurement{Value: v, Valid: true}
}

// Unparsed is the zero Measurement.
var Unparsed = Measurement{}

// OrSentinel returns the value, or Sentinel when the field did not parse.
func (m Measurement) OrSentinel() float64 {
	if !m.Valid {
		return Sentinel
	}
	return m.Value
}

// Sub subtracts a constant from a valid measurement.
func (m Measurement) Sub(v float64) Measurement {
	if !m.Valid {
		return m
	}
	return Measured(m.Value - v)
}

// Sighting is one normalized observation of an aircraft.
type Sighting struct {
	// ICAO is the 24-bit transponder address as logged (e.g., "A4A567").
	ICAO string

	// Altitude in feet as reported by the aircraft, before any correction.
	Altitude Measurement

	// Latitude and Longitude in decimal degrees.
	Latitude  Measurement
	Longitude Measurement

	// Date and Time are the receiver-local timestamp components as logged,
	// e.g. "2020/08/12" and "10:00:05.123".
	Date string
	Time string

	// Angle is the bearing column, kept as text.
	Angle string

	// Distance from the receiver, in whatever unit the logger was configured with.
	Distance Measurement

	Squawk      string
	GroundSpeed Measurement
	Track       Measurement

	// Callsign is the flight identifier with surrounding whitespace removed; may be empty.
	Callsign string
}

// WellFormed reports whether the identifier has the fixed ICAO length.
// Rows failing this are never treated as aircraft sightings.
func (s Sighting) WellFormed() bool {
	return len(s.ICAO) == ICAOLength
}

// CorrectedAltitude applies the configured altitude correction.
func (s Sighting) CorrectedAltitude(correction float64) Measurement {
	return s.Altitude.Sub(correction)
}

// Timestamp joins date and time, truncating the time to whole seconds.
func (s Sighting) Timestamp() string {
	return s.Date + " " + s.ClockTime()
}

// ClockTime returns the HH:MM:SS part of Time.
func (s Sighting) ClockTime() string {
	if len(s.Time) > 8 {
		return s.Time[:8]
	}
	return s.Time
}

// HasPosition reports whether latitude and longitude both parsed.
func (s Sighting) HasPosition() bool {
	return s.Latitude.Valid && s.Longitude.Valid &&
		!math.IsNaN(s.Latitude.Value) && !math.IsNaN(s.Longitude.Value)
}

// RecordSource is implemented by anything that yields raw log rows in order.
// Next returns io.EOF once the stream is exhausted.
type RecordSource interface {
	Next() ([]string, error)
}
