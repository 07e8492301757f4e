package fence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalizeEmptyTable(t *testing.T) {
	records := Finalize(NewTable())
	require.NotNil(t, records)
	assert.Empty(t, records)
}

func TestFinalizeFormatsAndKeepsOrder(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Insert(&Event{
		ICAO: "B00002", FirstSeen: "2020/08/12 09:00:00", LastSeen: "2020/08/12 09:01:00",
		LowestAltitude: 1234.6, MinDistance: 1.26, TrackLink: "link-b",
	}))
	require.NoError(t, table.Insert(&Event{
		ICAO: "A00001", FlightNumber: "UAL123", FirstSeen: "2020/08/12 09:30:00", LastSeen: "2020/08/12 09:30:00",
		LowestAltitude: 800, MinDistance: 0.04, TrackLink: "link-a",
	}))

	records := Finalize(table)
	require.Len(t, records, 2)

	assert.Equal(t, "B00002", records[0].ICAO)
	assert.Equal(t, 1235.0, records[0].LowestAltitude)
	assert.InDelta(t, 1.3, records[0].MinDistance, 1e-9)
	assert.Equal(t, []string{
		"B00002", "", "2020/08/12 09:00:00", "2020/08/12 09:01:00", "1235", "1.3", "link-b",
	}, records[0].Fields())

	assert.Equal(t, []string{
		"A00001", "UAL123", "2020/08/12 09:30:00", "2020/08/12 09:30:00", "800", "0.0", "link-a",
	}, records[1].Fields())
}

func TestRecordTextMatchesRoundedValue(t *testing.T) {
	r := Record{LowestAltitude: roundTo(-49.5, 0), MinDistance: roundTo(0.25, 1)}
	assert.Equal(t, r.AltitudeText(), "-50")
	assert.Equal(t, "0.2", r.DistanceText())
	assert.Equal(t, 0.2, r.MinDistance)
}

func TestColumnsMatchFields(t *testing.T) {
	assert.Len(t, Columns, len(Record{}.Fields()))
}

func TestParseFields(t *testing.T) {
	want := Record{
		ICAO: "A4A567", FlightNumber: "UAL123", FirstSeen: "2020/08/12 10:00:00",
		LastSeen: "2020/08/12 10:00:05", LowestAltitude: 800, MinDistance: 0.5, TrackLink: "link",
	}
	got, err := ParseFields(want.Fields())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ParseFields([]string{"A4A567"})
	assert.Error(t, err)

	bad := want.Fields()
	bad[5] = "far"
	_, err = ParseFields(bad)
	assert.Error(t, err)
}
