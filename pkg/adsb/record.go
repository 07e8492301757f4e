package adsb

import (
	"math"
	"strconv"
	"strings"
)

// Column positions in a receiver log row. Extra trailing columns are ignored.
const (
	ColICAO = iota
	ColAltitude
	ColLatitude
	ColLongitude
	ColDate
	ColTime
	ColAngle
	ColDistance
	ColSquawk
	ColGroundSpeed
	ColTrack
	ColCallsign

	// RecordFields is the number of columns in a complete row.
	RecordFields
)

// ParseRecord normalizes one raw row into a Sighting. It never fails: missing
// columns read as empty text and numeric text that does not parse leaves the
// measurement unparsed. Rows whose identifier is not ICAOLength characters are
// returned with only the text fields set; their numeric columns are not trusted.
func ParseRecord(fields []string) Sighting {
	s := Sighting{
		ICAO:     field(fields, ColICAO),
		Date:     field(fields, ColDate),
		Time:     field(fields, ColTime),
		Angle:    field(fields, ColAngle),
		Squawk:   field(fields, ColSquawk),
		Callsign: strings.TrimSpace(field(fields, ColCallsign)),
	}

	if !s.WellFormed() {
		return s
	}

	s.Altitude = parseMeasurement(field(fields, ColAltitude))
	s.Latitude = parseMeasurement(field(fields, ColLatitude))
	s.Longitude = parseMeasurement(field(fields, ColLongitude))
	s.Distance = parseMeasurement(field(fields, ColDistance))
	s.GroundSpeed = parseMeasurement(field(fields, ColGroundSpeed))
	s.Track = parseMeasurement(field(fields, ColTrack))

	return s
}

func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

// parseMeasurement accepts anything strconv.ParseFloat does, after trimming.
// NaN and the infinities are treated as unparsed.
func parseMeasurement(text string) Measurement {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Unparsed
	}
	return Measured(v)
}
