package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unklstewy/planefence/internal/db"
	"github.com/unklstewy/planefence/internal/fence"
	"github.com/unklstewy/planefence/internal/sink"
)

// loadCSV reads an event file written by planefence.
func loadCSV(path string) ([]fence.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return sink.ReadCSV(f)
}

// loadSQLite reads every event archived with planefence --sqlite.
func loadSQLite(ctx context.Context, path string) ([]fence.Record, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	conn, err := db.OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return db.NewEventRepository(conn).ListEvents(ctx)
}

// Planefence-view browses the events of a finished planefence run.
func main() {
	sqlitePath := flag.String("sqlite", "", "Read events from a SQLite archive instead of a CSV file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: planefence-view [--sqlite events.db] [events.csv]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	var (
		source  string
		records []fence.Record
		err     error
	)
	switch {
	case *sqlitePath != "":
		source = *sqlitePath
		records, err = loadSQLite(context.Background(), source)
	case flag.NArg() == 1:
		source = flag.Arg(0)
		records, err = loadCSV(source)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load events: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(newModel(source, records), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
