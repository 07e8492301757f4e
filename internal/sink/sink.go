// Package sink delivers finalized events: a CSV file, a SQLite or
// PostgreSQL archive, or a NATS subject.
package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/unklstewy/planefence/internal/fence"
)

// Sink receives the finalized event list once per run.
type Sink interface {
	Name() string
	Write(ctx context.Context, records []fence.Record) error
	Close() error
}

// Multi writes to every sink in order. A failing sink does not stop the rest.
type Multi []Sink

func (m Multi) Name() string { return "multi" }

func (m Multi) Write(ctx context.Context, records []fence.Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, records); err != nil {
			errs = append(errs, fmt.Errorf("%s sink: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s sink: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
