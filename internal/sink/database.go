package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/unklstewy/planefence/internal/db"
	"github.com/unklstewy/planefence/internal/fence"
	"github.com/unklstewy/planefence/pkg/config"
	"github.com/unklstewy/planefence/pkg/logger"
)

// Database archives events in SQLite or PostgreSQL.
type Database struct {
	db      *db.DB
	repo    *db.EventRepository
	retries int
	logger  *logger.Logger
}

// NewSQLite opens (creating if needed) a SQLite event archive.
func NewSQLite(ctx context.Context, path string, log *logger.Logger) (*Database, error) {
	conn, err := db.OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	return newDatabase(ctx, conn, 3, log)
}

// NewPostgres connects to PostgreSQL, retrying with backoff as configured.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*Database, error) {
	conn, err := db.ReconnectWithRetry(ctx, cfg, cfg.ConnectRetries, time.Second, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return newDatabase(ctx, conn, cfg.ConnectRetries, log)
}

func newDatabase(ctx context.Context, conn *db.DB, retries int, log *logger.Logger) (*Database, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if err := conn.InitSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return &Database{
		db:      conn,
		repo:    db.NewEventRepository(conn),
		retries: retries,
		logger:  log.Named("sink-" + conn.Dialect().String()),
	}, nil
}

func (d *Database) Name() string { return d.db.Dialect().String() }

// Write upserts the events in one transaction.
func (d *Database) Write(ctx context.Context, records []fence.Record) error {
	if len(records) == 0 {
		return nil
	}

	err := db.WithRetry(ctx, func() error {
		return d.repo.SaveEvents(ctx, records)
	}, d.retries, d.logger)
	if err != nil {
		return err
	}

	d.logger.Info("Saved events", logger.Int("events", len(records)))
	return nil
}

// Repository exposes the underlying event store.
func (d *Database) Repository() *db.EventRepository {
	return d.repo
}

func (d *Database) Close() error {
	return d.db.Close()
}
