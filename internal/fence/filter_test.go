package fence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unklstewy/planefence/pkg/adsb"
	"github.com/unklstewy/planefence/pkg/coordinates"
)

func TestFilterInRange(t *testing.T) {
	f := Filter{MaxDistance: 2, MaxAltitude: 5000, AltitudeCorrection: 200}

	tests := []struct {
		name string
		s    adsb.Sighting
		want bool
	}{
		{"inside both limits", sighting("A4A567", 1.0, 3000), true},
		{"on both limits", sighting("A4A567", 2.0, 5200), true},
		{"too far", sighting("A4A567", 2.01, 3000), false},
		{"too high after correction", sighting("A4A567", 1.0, 5201), false},
		{"five character identifier", sighting("ABCDE", 0.1, 100), false},
		{"seven character identifier", sighting("ABCDEF1", 0.1, 100), false},
		{"unparsed distance", adsb.Sighting{ICAO: "A4A567", Altitude: adsb.Measured(100)}, false},
		{"unparsed altitude", adsb.Sighting{ICAO: "A4A567", Distance: adsb.Measured(0.1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.InRange(tt.s))
		})
	}
}

func TestFilterSentinelPassesHugeLimits(t *testing.T) {
	f := Filter{MaxDistance: 2, MaxAltitude: 2 * adsb.Sentinel}
	s := adsb.Sighting{ICAO: "A4A567", Distance: adsb.Measured(1)}

	dist, alt := f.Measure(s)
	assert.Equal(t, 1.0, dist)
	assert.Equal(t, adsb.Sentinel, alt)
	assert.True(t, f.InRange(s))
}

func TestFilterMeasureMalformed(t *testing.T) {
	f := Filter{MaxDistance: 2, MaxAltitude: 5000}
	dist, alt := f.Measure(sighting("ABCDE", 0.1, 100))
	assert.Equal(t, adsb.Sentinel, dist)
	assert.Equal(t, adsb.Sentinel, alt)
}

func TestGreatCircleDistance(t *testing.T) {
	observer := coordinates.Observer{Location: coordinates.Geographic{Latitude: 40, Longitude: -74}}
	f := Filter{
		MaxDistance: 70,
		MaxAltitude: 99999,
		Distance:    GreatCircleDistance(observer, coordinates.StatuteMiles),
	}

	// Logged distance says 0.1 but the position is a degree north (about 69 mi).
	s := sighting("A4A567", 0.1, 1000)
	s.Latitude = adsb.Measured(41)
	s.Longitude = adsb.Measured(-74)

	dist, _ := f.Measure(s)
	assert.InDelta(t, 69.09, dist, 0.05)
	assert.True(t, f.InRange(s))

	s.Latitude = adsb.Unparsed
	dist, _ = f.Measure(s)
	assert.Equal(t, adsb.Sentinel, dist)
	assert.False(t, f.InRange(s))
}
