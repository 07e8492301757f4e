package fence

import (
	"fmt"
	"math"
	"strconv"
)

// Columns is the CSV column order of a Record.
var Columns = []string{
	"ICAO", "Flight Number", "In-range Date/Time", "Out-range Date/Time",
	"Lowest Altitude", "Minimal Distance", "Flight Link",
}

// Record is a closed event ready for output. LowestAltitude is rounded to
// whole feet and MinDistance to one decimal, matching their text form.
type Record struct {
	ICAO           string  `json:"icao"`
	FlightNumber   string  `json:"flight_number"`
	FirstSeen      string  `json:"first_seen"`
	LastSeen       string  `json:"last_seen"`
	LowestAltitude float64 `json:"lowest_altitude"`
	MinDistance    float64 `json:"min_distance"`
	TrackLink      string  `json:"track_link"`
}

// Finalize closes out the table and returns its events in first-qualification
// order. An empty table yields an empty, non-nil slice.
func Finalize(t *Table) []Record {
	records := make([]Record, 0, t.Len())
	for _, ev := range t.Events() {
		records = append(records, Record{
			ICAO:           ev.ICAO,
			FlightNumber:   ev.FlightNumber,
			FirstSeen:      ev.FirstSeen,
			LastSeen:       ev.LastSeen,
			LowestAltitude: roundTo(ev.LowestAltitude, 0),
			MinDistance:    roundTo(ev.MinDistance, 1),
			TrackLink:      ev.TrackLink,
		})
	}
	return records
}

// AltitudeText formats the altitude with no decimals.
func (r Record) AltitudeText() string {
	return strconv.FormatFloat(r.LowestAltitude, 'f', 0, 64)
}

// DistanceText formats the distance with one decimal.
func (r Record) DistanceText() string {
	return strconv.FormatFloat(r.MinDistance, 'f', 1, 64)
}

// Fields returns the record as CSV fields in Columns order.
func (r Record) Fields() []string {
	return []string{
		r.ICAO, r.FlightNumber, r.FirstSeen, r.LastSeen,
		r.AltitudeText(), r.DistanceText(), r.TrackLink,
	}
}

// ParseFields is the inverse of Fields, for reading back an event file.
func ParseFields(fields []string) (Record, error) {
	if len(fields) != len(Columns) {
		return Record{}, fmt.Errorf("event has %d fields, want %d", len(fields), len(Columns))
	}
	alt, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return Record{}, fmt.Errorf("bad altitude %q: %w", fields[4], err)
	}
	dist, err := strconv.ParseFloat(fields[5], 64)
	if err != nil {
		return Record{}, fmt.Errorf("bad distance %q: %w", fields[5], err)
	}
	return Record{
		ICAO:           fields[0],
		FlightNumber:   fields[1],
		FirstSeen:      fields[2],
		LastSeen:       fields[3],
		LowestAltitude: alt,
		MinDistance:    dist,
		TrackLink:      fields[6],
	}, nil
}

// roundTo rounds via the shortest decimal text so that the stored value
// and its formatted text always agree.
func roundTo(v float64, decimals int) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', decimals, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}
