package fence

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableInsertAndGet(t *testing.T) {
	table := NewTable()

	_, ok := table.Get("A4A567")
	assert.False(t, ok)

	require.NoError(t, table.Insert(&Event{ICAO: "A4A567"}))
	ev, ok := table.Get("A4A567")
	require.True(t, ok)
	assert.Equal(t, "A4A567", ev.ICAO)
	assert.Equal(t, 1, table.Len())
}

func TestTableInsertDuplicate(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Insert(&Event{ICAO: "A4A567", FlightNumber: "first"}))

	err := table.Insert(&Event{ICAO: "A4A567", FlightNumber: "second"})
	assert.ErrorIs(t, err, ErrDuplicateEvent)

	ev, _ := table.Get("A4A567")
	assert.Equal(t, "first", ev.FlightNumber)
	assert.Equal(t, 1, table.Len())
}

func TestTableUpdate(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Insert(&Event{ICAO: "A4A567"}))

	require.NoError(t, table.Update("A4A567", func(ev *Event) { ev.FlightNumber = "UAL123" }))
	ev, _ := table.Get("A4A567")
	assert.Equal(t, "UAL123", ev.FlightNumber)

	err := table.Update("000000", func(*Event) { t.Fatal("must not be called") })
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestTableKeepsInsertionOrder(t *testing.T) {
	table := NewTable()
	ids := []string{"C00003", "A00001", "B00002", "000000", "FFFFFF"}
	for _, id := range ids {
		require.NoError(t, table.Insert(&Event{ICAO: id}))
	}

	require.NoError(t, table.Update("A00001", func(ev *Event) { ev.LastSeen = "later" }))

	var got []string
	for _, ev := range table.Events() {
		got = append(got, ev.ICAO)
	}
	assert.Equal(t, ids, got)
}

func TestTableEventsReturnsCopyOfOrder(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Insert(&Event{ICAO: "A00001"}))

	events := table.Events()
	events[0] = &Event{ICAO: "ZZZZZZ"}

	ev, ok := table.Get("A00001")
	require.True(t, ok)
	assert.Equal(t, "A00001", ev.ICAO)
}

func TestTableManyEvents(t *testing.T) {
	table := NewTable()
	for i := 0; i < 10000; i++ {
		require.NoError(t, table.Insert(&Event{ICAO: fmt.Sprintf("%06X", i)}))
	}
	ev, ok := table.Get("0026FF")
	require.True(t, ok)
	assert.Equal(t, "0026FF", ev.ICAO)
	assert.Equal(t, 10000, table.Len())
}
