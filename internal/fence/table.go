package fence

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateEvent is returned when inserting an ICAO address already in the table.
	ErrDuplicateEvent = errors.New("event already exists")

	// ErrUnknownEvent is returned when updating an ICAO address not in the table.
	ErrUnknownEvent = errors.New("no such event")
)

// Event is the running summary of one aircraft's qualifying sightings.
type Event struct {
	ICAO         string
	FlightNumber string
	FirstSeen    string
	LastSeen     string

	// LowestAltitude is the minimum corrected altitude seen; it never increases.
	LowestAltitude float64

	// MinDistance is the minimum distance seen; it never increases.
	MinDistance float64

	TrackLink string
}

// Table holds events keyed by ICAO address and remembers the order in which
// they were first inserted. Events are never removed or reordered.
type Table struct {
	index  map[string]int
	events []*Event
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Get returns the event for icao, if any.
func (t *Table) Get(icao string) (*Event, bool) {
	i, ok := t.index[icao]
	if !ok {
		return nil, false
	}
	return t.events[i], true
}

// Insert appends a new event.
func (t *Table) Insert(ev *Event) error {
	if _, ok := t.index[ev.ICAO]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEvent, ev.ICAO)
	}
	t.index[ev.ICAO] = len(t.events)
	t.events = append(t.events, ev)
	return nil
}

// Update applies fn to the event for icao in place.
func (t *Table) Update(icao string, fn func(*Event)) error {
	ev, ok := t.Get(icao)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEvent, icao)
	}
	fn(ev)
	return nil
}

// Len returns the number of events.
func (t *Table) Len() int {
	return len(t.events)
}

// Events returns the events in insertion order. The slice is a copy; the
// events are not.
func (t *Table) Events() []*Event {
	out := make([]*Event, len(t.events))
	copy(out, t.events)
	return out
}
