// Package tracklink builds the deep link into a third-party flight-tracking
// site that accompanies every proximity event.
//
// Two services are supported:
//   - adsbexchange: globe view centred on the observer, with the aircraft's
//     trace for the day and the moment it was seen
//   - flightaware: Mode S redirect keyed by ICAO address and callsign
//
// Generators never fail. Timestamp text that does not parse degrades to a
// date-only trace.
package tracklink

import (
	"fmt"
	"strings"
	"time"

	"github.com/unklstewy/planefence/pkg/adsb"
	"github.com/unklstewy/planefence/pkg/coordinates"
)

// Service names a tracking site.
type Service string

const (
	ADSBExchange Service = "adsbexchange"
	FlightAware  Service = "flightaware"
)

// ParseService validates a service name.
func ParseService(s string) (Service, error) {
	switch svc := Service(strings.ToLower(strings.TrimSpace(s))); svc {
	case ADSBExchange, FlightAware:
		return svc, nil
	default:
		return "", fmt.Errorf("track service must be adsbexchange or flightaware, got %q", s)
	}
}

// Generator turns a sighting into a tracking link.
type Generator interface {
	Link(s adsb.Sighting) string
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(s adsb.Sighting) string

// Link calls f(s).
func (f GeneratorFunc) Link(s adsb.Sighting) string { return f(s) }

// New returns the generator for service. The observer's time zone is used to
// interpret log timestamps; an empty zone or "Local" means the host zone.
func New(service Service, observer coordinates.Observer) (Generator, error) {
	switch service {
	case FlightAware:
		return flightAwareLink{}, nil
	case ADSBExchange:
		loc, err := LoadLocation(observer.Timezone)
		if err != nil {
			return nil, err
		}
		return &adsbExchangeLink{
			lat:      observer.Location.Latitude,
			lon:      observer.Location.Longitude,
			location: loc,
		}, nil
	default:
		return nil, fmt.Errorf("unknown track service %q", service)
	}
}

// LoadLocation resolves a time zone name.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", name, err)
	}
	return loc, nil
}
