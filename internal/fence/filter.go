// Package fence reduces a stream of receiver sightings to proximity events:
// one event per aircraft that came within the configured distance and
// altitude of the receiver, with its first and last qualifying sighting,
// lowest altitude, closest distance, best-known flight number and a
// tracking link.
//
// The package is single-threaded by construction. An Engine owns its Table
// and must be fed from one goroutine, in log order.
package fence

import (
	"github.com/unklstewy/planefence/pkg/adsb"
	"github.com/unklstewy/planefence/pkg/coordinates"
)

// DistanceFunc supplies a sighting's distance from the receiver. The default
// uses the logged distance column.
type DistanceFunc func(s adsb.Sighting) adsb.Measurement

// LoggedDistance returns the distance column as logged.
func LoggedDistance(s adsb.Sighting) adsb.Measurement {
	return s.Distance
}

// GreatCircleDistance computes the distance from the sighting's position to
// the observer in unit, ignoring the logged column. Sightings without a
// usable position have no distance.
func GreatCircleDistance(observer coordinates.Observer, unit coordinates.DistanceUnit) DistanceFunc {
	return func(s adsb.Sighting) adsb.Measurement {
		if !s.HasPosition() || !coordinates.ValidLatLon(s.Latitude.Value, s.Longitude.Value) {
			return adsb.Unparsed
		}
		pos := coordinates.Geographic{Latitude: s.Latitude.Value, Longitude: s.Longitude.Value}
		return adsb.Measured(coordinates.Distance(observer.Location, pos, unit))
	}
}

// Filter decides whether a sighting is in range.
type Filter struct {
	MaxDistance        float64
	MaxAltitude        float64
	AltitudeCorrection float64

	// Distance overrides where the distance comes from; nil means LoggedDistance.
	Distance DistanceFunc
}

// Measure returns the distance and corrected altitude the filter compares,
// with unparsed fields already replaced by adsb.Sentinel. Identifiers of the
// wrong length always measure as sentinels.
func (f Filter) Measure(s adsb.Sighting) (distance, altitude float64) {
	if !s.WellFormed() {
		return adsb.Sentinel, adsb.Sentinel
	}

	dist := f.Distance
	if dist == nil {
		dist = LoggedDistance
	}

	return dist(s).OrSentinel(), s.CorrectedAltitude(f.AltitudeCorrection).OrSentinel()
}

// InRange reports whether the identifier is well formed and both the distance
// and the corrected altitude are within limits.
func (f Filter) InRange(s adsb.Sighting) bool {
	return s.WellFormed() && f.within(f.Measure(s))
}

func (f Filter) within(distance, altitude float64) bool {
	return distance <= f.MaxDistance && altitude <= f.MaxAltitude
}
