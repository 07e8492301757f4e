package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/unklstewy/planefence/internal/fence"
	"github.com/unklstewy/planefence/pkg/logger"
)

// CSV writes events as CSV rows to a file or stdout.
type CSV struct {
	path   string
	header bool
	stdout io.Writer
	logger *logger.Logger
}

// NewCSV creates a CSV sink. An empty path, "-" or "/dev/stdout" write to stdout.
func NewCSV(path string, header bool, log *logger.Logger) *CSV {
	if log == nil {
		log = logger.NewNop()
	}
	return &CSV{
		path:   path,
		header: header,
		stdout: os.Stdout,
		logger: log.Named("sink-csv"),
	}
}

func (c *CSV) Name() string { return "csv" }

func (c *CSV) toStdout() bool {
	return c.path == "" || c.path == "-" || c.path == "/dev/stdout"
}

// Write replaces the file with the given events. With no events the file is
// left untouched.
func (c *CSV) Write(_ context.Context, records []fence.Record) error {
	if len(records) == 0 {
		c.logger.Info("No events, nothing to write", logger.String("path", c.path))
		return nil
	}

	if c.toStdout() {
		return c.encode(c.stdout, records)
	}

	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := c.encode(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	c.logger.Info("Wrote events",
		logger.String("path", c.path),
		logger.Int("events", len(records)))
	return nil
}

func (c *CSV) encode(w io.Writer, records []fence.Record) error {
	cw := csv.NewWriter(w)
	if c.header {
		if err := cw.Write(fence.Columns); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for _, rec := range records {
		if err := cw.Write(rec.Fields()); err != nil {
			return fmt.Errorf("failed to write event %s: %w", rec.ICAO, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write events: %w", err)
	}
	return nil
}

func (c *CSV) Close() error { return nil }

// ReadCSV loads an event file written by the CSV sink, with or without a
// header row.
func ReadCSV(r io.Reader) ([]fence.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	records := make([]fence.Record, 0, len(rows))
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == fence.Columns[0] {
			continue
		}
		rec, err := fence.ParseFields(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
