package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unklstewy/planefence/internal/fence"
	"github.com/unklstewy/planefence/pkg/config"
)

var (
	summaryTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("86")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)
	summaryHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	summaryCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	summaryWarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Padding(0, 1)
)

// renderSummary draws the run counters as a table.
func renderSummary(cfg *config.Config, stats fence.Stats, unreadable, events int, elapsed time.Duration) string {
	rows := [][]string{
		{"Log file", cfg.Input.LogFile},
		{"Fence", fmt.Sprintf("%g %s, %g ft", cfg.Fence.MaxDistance, cfg.Fence.DistanceUnit, cfg.Fence.MaxAltitude)},
		{"Sightings", strconv.Itoa(stats.Sightings)},
		{"Unreadable rows", strconv.Itoa(unreadable)},
		{"Malformed ids", strconv.Itoa(stats.Malformed)},
		{"In range", strconv.Itoa(stats.InRange)},
		{"Flight numbers added", strconv.Itoa(stats.FlightNumberOnly)},
		{"Out of order", strconv.Itoa(stats.OutOfOrder)},
		{"Events", strconv.Itoa(events)},
		{"Elapsed", elapsed.Round(time.Millisecond).String()},
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("Counter", "Value").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return summaryHeaderStyle
			case rows[row][0] == "Out of order" && stats.OutOfOrder > 0:
				return summaryWarnStyle
			default:
				return summaryCellStyle
			}
		})

	return summaryTitleStyle.Render("PLANEFENCE") + "\n" + t.String()
}
