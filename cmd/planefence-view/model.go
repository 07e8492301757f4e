package main

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/planefence/internal/fence"
)

// listHeight is how many events fit on screen at once.
const listHeight = 15

type sortKey int

const (
	byFirstSeen sortKey = iota
	byAltitude
	byDistance
)

func (k sortKey) String() string {
	switch k {
	case byAltitude:
		return "lowest altitude"
	case byDistance:
		return "closest approach"
	default:
		return "first seen"
	}
}

func (k sortKey) next() sortKey {
	return (k + 1) % 3
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("237"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	linkStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Underline(true)
	closeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
)

type model struct {
	source   string
	records  []fence.Record
	selected int
	sortBy   sortKey
}

func newModel(source string, records []fence.Record) model {
	m := model{source: source, records: records}
	m.sort()
	return m
}

// sort orders the events by the current key. Ties keep first-seen order.
func (m *model) sort() {
	less := func(a, b fence.Record) bool { return a.FirstSeen < b.FirstSeen }
	switch m.sortBy {
	case byAltitude:
		less = func(a, b fence.Record) bool { return a.LowestAltitude < b.LowestAltitude }
	case byDistance:
		less = func(a, b fence.Record) bool { return a.MinDistance < b.MinDistance }
	}
	sort.SliceStable(m.records, func(i, j int) bool { return less(m.records[i], m.records[j]) })
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.records)-1 {
			m.selected++
		}
	case "home", "g":
		m.selected = 0
	case "end", "G":
		if len(m.records) > 0 {
			m.selected = len(m.records) - 1
		}
	case "s":
		var icao, firstSeen string
		if len(m.records) > 0 {
			icao, firstSeen = m.records[m.selected].ICAO, m.records[m.selected].FirstSeen
		}
		m.records = append([]fence.Record(nil), m.records...)
		m.sortBy = m.sortBy.next()
		m.sort()
		// Keep the same event selected.
		for i, rec := range m.records {
			if rec.ICAO == icao && rec.FirstSeen == firstSeen {
				m.selected = i
				break
			}
		}
	}

	return m, nil
}

func (m model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("PLANEFENCE"))
	s.WriteString(" ")
	s.WriteString(dimStyle.Render(m.source))
	s.WriteString("\n\n")

	s.WriteString(headerStyle.Render(fmt.Sprintf("Events: (%d)  sorted by %s", len(m.records), m.sortBy)))
	s.WriteString("\n\n")

	if len(m.records) == 0 {
		s.WriteString(dimStyle.Render("  No aircraft came within range"))
		s.WriteString("\n\n")
		s.WriteString(dimStyle.Render("q: quit"))
		return s.String()
	}

	s.WriteString(headerStyle.Render(fmt.Sprintf("  %-6s  %-8s  %-19s  %-19s  %8s  %6s",
		"ICAO", "Flight", "In range", "Out of range", "Alt ft", "Dist")))
	s.WriteString("\n")

	start := 0
	if m.selected > listHeight/2 && len(m.records) > listHeight {
		start = m.selected - listHeight/2
	}
	end := start + listHeight
	if end > len(m.records) {
		end = len(m.records)
		if end-listHeight > 0 {
			start = end - listHeight
		}
	}

	for i := start; i < end; i++ {
		rec := m.records[i]

		prefix := "  "
		if i == m.selected {
			prefix = "→ "
		}

		flight := rec.FlightNumber
		if flight == "" {
			flight = "--------"
		}

		line := fmt.Sprintf("%s%-6s  %-8s  %-19s  %-19s  %8s  %6s",
			prefix, rec.ICAO, flight, rec.FirstSeen, rec.LastSeen,
			rec.AltitudeText(), rec.DistanceText())

		if i == m.selected {
			line = selectedStyle.Render(line)
		}
		s.WriteString(line)
		s.WriteString("\n")
	}

	sel := m.records[m.selected]
	s.WriteString("\n")
	s.WriteString(closeStyle.Render(fmt.Sprintf("%s closest at %s, lowest %s ft",
		sel.ICAO, sel.DistanceText(), sel.AltitudeText())))
	s.WriteString("\n")
	if sel.TrackLink != "" {
		s.WriteString(linkStyle.Render(sel.TrackLink))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(dimStyle.Render("↑/↓: select  s: sort  q: quit"))
	return s.String()
}
