package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unklstewy/planefence/internal/fence"
)

func viewRecords() []fence.Record {
	return []fence.Record{
		{ICAO: "A00001", FlightNumber: "UAL1", FirstSeen: "2020/08/12 09:00:00", LowestAltitude: 3000, MinDistance: 0.4, TrackLink: "link-a"},
		{ICAO: "B00002", FirstSeen: "2020/08/12 10:00:00", LowestAltitude: 1000, MinDistance: 1.5, TrackLink: "link-b"},
		{ICAO: "C00003", FlightNumber: "DAL3", FirstSeen: "2020/08/12 11:00:00", LowestAltitude: 2000, MinDistance: 0.1},
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m model, msgs ...tea.Msg) model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(model)
	}
	return m
}

func icaos(m model) []string {
	var out []string
	for _, rec := range m.records {
		out = append(out, rec.ICAO)
	}
	return out
}

func TestModelNavigation(t *testing.T) {
	m := newModel("test.csv", viewRecords())

	m = press(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.selected)

	m = press(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, m.selected)

	m = press(m, runes("g"))
	assert.Equal(t, 0, m.selected)
	m = press(m, runes("G"))
	assert.Equal(t, 2, m.selected)
}

func TestModelSortCyclesAndKeepsSelection(t *testing.T) {
	m := newModel("test.csv", viewRecords())
	assert.Equal(t, []string{"A00001", "B00002", "C00003"}, icaos(m))

	m = press(m, tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, "B00002", m.records[m.selected].ICAO)

	m = press(m, runes("s"))
	assert.Equal(t, byAltitude, m.sortBy)
	assert.Equal(t, []string{"B00002", "C00003", "A00001"}, icaos(m))
	assert.Equal(t, "B00002", m.records[m.selected].ICAO)

	m = press(m, runes("s"))
	assert.Equal(t, byDistance, m.sortBy)
	assert.Equal(t, []string{"C00003", "A00001", "B00002"}, icaos(m))
	assert.Equal(t, 2, m.selected)

	m = press(m, runes("s"))
	assert.Equal(t, byFirstSeen, m.sortBy)
	assert.Equal(t, []string{"A00001", "B00002", "C00003"}, icaos(m))
}

func TestModelQuit(t *testing.T) {
	m := newModel("test.csv", viewRecords())
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModelViewShowsSelectedLink(t *testing.T) {
	m := newModel("test.csv", viewRecords())
	m = press(m, tea.KeyMsg{Type: tea.KeyDown})

	out := m.View()
	assert.Contains(t, out, "Events: (3)")
	assert.Contains(t, out, "link-b")
	assert.NotContains(t, out, "link-a")
	assert.Contains(t, out, "--------")
}

func TestModelViewEmpty(t *testing.T) {
	m := newModel("empty.csv", nil)
	m = press(m, tea.KeyMsg{Type: tea.KeyDown}, runes("s"), runes("G"))
	assert.Equal(t, 0, m.selected)
	assert.Contains(t, m.View(), "No aircraft came within range")
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"A4A567,UAL123,2020/08/12 10:00:00,2020/08/12 10:00:05,800,0.5,link\n"), 0644))

	records, err := loadCSV(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 0.5, records[0].MinDistance)

	_, err = loadSQLite(context.Background(), filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}
