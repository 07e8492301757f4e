package fence

import (
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/time/rate"

	"github.com/unklstewy/planefence/pkg/adsb"
	"github.com/unklstewy/planefence/pkg/logger"
	"github.com/unklstewy/planefence/pkg/tracklink"
)

// Outcome is what Process did with a sighting.
type Outcome int

const (
	// Discarded sightings changed nothing.
	Discarded Outcome = iota
	// Created a new event from an in-range sighting of an unseen aircraft.
	Created
	// Merged an in-range sighting into the aircraft's event.
	Merged
	// FlightNumberOnly filled in a missing flight number from an out-of-range sighting.
	FlightNumberOnly
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Merged:
		return "merged"
	case FlightNumberOnly:
		return "flight-number-only"
	default:
		return "discarded"
	}
}

// Stats counts what happened during a run.
type Stats struct {
	Sightings        int
	Malformed        int // identifier not ICAO length
	InRange          int
	Created          int
	Merged           int
	FlightNumberOnly int
	Discarded        int

	// OutOfOrder counts merges whose timestamp sorted before the event's last
	// seen time. The overwrite still happens; input is expected in log order.
	OutOfOrder int
}

// Engine applies sightings to a Table.
type Engine struct {
	filter Filter
	links  tracklink.Generator
	table  *Table
	stats  Stats
	logger *logger.Logger

	outOfOrderWarn rate.Sometimes
}

// NewEngine creates an engine with an empty table.
func NewEngine(filter Filter, links tracklink.Generator, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{
		filter:         filter,
		links:          links,
		table:          NewTable(),
		logger:         log.Named("engine"),
		outOfOrderWarn: rate.Sometimes{First: 5, Interval: time.Minute},
	}
}

// Table returns the engine's event table.
func (e *Engine) Table() *Table {
	return e.table
}

// Stats returns the counters so far.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Run drains src, processing every row in order. It returns nil once src
// reports io.EOF and any other read error unchanged in meaning.
func (e *Engine) Run(src adsb.RecordSource) error {
	for {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read sighting %d: %w", e.stats.Sightings+1, err)
		}
		e.Process(adsb.ParseRecord(row))
	}
}

// Process applies one sighting:
//   - known aircraft, in range: merge into its event
//   - unknown aircraft, in range: create an event
//   - known aircraft, out of range, event lacks a flight number and the
//     sighting has a callsign: take the callsign, nothing else
//   - anything else: discard
func (e *Engine) Process(s adsb.Sighting) Outcome {
	e.stats.Sightings++
	if !s.WellFormed() {
		e.stats.Malformed++
	}

	distance, altitude := e.filter.Measure(s)
	inRange := s.WellFormed() && e.filter.within(distance, altitude)
	if inRange {
		e.stats.InRange++
	}

	ev, exists := e.table.Get(s.ICAO)

	var outcome Outcome
	switch {
	case exists && inRange:
		e.merge(ev, s, distance, altitude)
		outcome = Merged
		e.stats.Merged++

	case inRange:
		e.create(s, distance, altitude)
		outcome = Created
		e.stats.Created++

	case exists && ev.FlightNumber == "" && s.Callsign != "":
		_ = e.table.Update(s.ICAO, func(ev *Event) { ev.FlightNumber = s.Callsign })
		outcome = FlightNumberOnly
		e.stats.FlightNumberOnly++
		e.logger.Debug("Added flight number",
			logger.String("icao", s.ICAO),
			logger.String("flight", s.Callsign))

	default:
		outcome = Discarded
		e.stats.Discarded++
	}

	return outcome
}

func (e *Engine) create(s adsb.Sighting, distance, altitude float64) {
	seen := s.Timestamp()
	ev := &Event{
		ICAO:           s.ICAO,
		FlightNumber:   s.Callsign,
		FirstSeen:      seen,
		LastSeen:       seen,
		LowestAltitude: altitude,
		MinDistance:    distance,
		TrackLink:      e.links.Link(s),
	}

	// Insert cannot fail here: the caller has just checked the key is absent.
	_ = e.table.Insert(ev)

	e.logger.Debug("New event",
		logger.Int("event", e.table.Len()-1),
		logger.String("icao", s.ICAO),
		logger.String("flight", s.Callsign),
		logger.Float64("distance", distance),
		logger.Float64("max_distance", e.filter.MaxDistance),
		logger.Float64("altitude", altitude))
}

func (e *Engine) merge(ev *Event, s adsb.Sighting, distance, altitude float64) {
	if ev.FlightNumber == "" && s.Callsign != "" {
		ev.FlightNumber = s.Callsign
	}

	ev.TrackLink = e.links.Link(s)

	seen := s.Timestamp()
	if seen < ev.LastSeen {
		e.stats.OutOfOrder++
		e.outOfOrderWarn.Do(func() {
			e.logger.Warn("Sighting is older than the event's last seen time; is the log sorted?",
				logger.String("icao", s.ICAO),
				logger.String("last_seen", ev.LastSeen),
				logger.String("sighting", seen))
		})
	}
	ev.LastSeen = seen

	if altitude < ev.LowestAltitude {
		ev.LowestAltitude = altitude
	}
	if distance < ev.MinDistance {
		ev.MinDistance = distance
	}
}
