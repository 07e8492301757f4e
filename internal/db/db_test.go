package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unklstewy/planefence/internal/fence"
	"github.com/unklstewy/planefence/pkg/config"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	db, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.InitSchema(ctx))
	return db
}

func TestConnString(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db.local",
		Port:     5433,
		Username: "fence",
		Password: "secret",
		Database: "planefence",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host='db.local' port=5433 user='fence' password='secret' dbname='planefence' sslmode='require'",
		connString(cfg))
}

func TestConnStringQuotesAwkwardPasswords(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db.local",
		Port:     5432,
		Username: "fence",
		Password: `two words sslmode=disable it's a\b`,
		Database: "planefence",
		SSLMode:  "require",
	}

	assert.Equal(t,
		`host='db.local' port=5432 user='fence' password='two words sslmode=disable it\'s a\\b' dbname='planefence' sslmode='require'`,
		connString(cfg))
}

func TestDialectPlaceholders(t *testing.T) {
	assert.Equal(t, "$3", Postgres.placeholder(3))
	assert.Equal(t, "?3", SQLite.placeholder(3))
	assert.Equal(t, "sqlite", SQLite.String())
	assert.Equal(t, "postgres", Postgres.String())
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.InitSchema(context.Background()))
	assert.Equal(t, SQLite, db.Dialect())
}

func TestSaveAndListEvents(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(openTestDB(t))

	records := []fence.Record{
		{ICAO: "B00002", FirstSeen: "2020/08/12 11:00:00", LastSeen: "2020/08/12 11:02:00", LowestAltitude: 3000, MinDistance: 1.9, TrackLink: "b"},
		{ICAO: "A4A567", FlightNumber: "UAL123", FirstSeen: "2020/08/12 10:00:00", LastSeen: "2020/08/12 10:00:05", LowestAltitude: 800, MinDistance: 0.5, TrackLink: "a"},
	}
	require.NoError(t, repo.SaveEvents(ctx, records))

	got, err := repo.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, records[1], got[0])
	assert.Equal(t, records[0], got[1])
}

func TestSaveEventsUpserts(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(openTestDB(t))

	first := fence.Record{ICAO: "A4A567", FlightNumber: "UAL123", FirstSeen: "2020/08/12 10:00:00", LastSeen: "2020/08/12 10:00:05", LowestAltitude: 800, MinDistance: 0.5}
	require.NoError(t, repo.SaveEvents(ctx, []fence.Record{first}))

	again := first
	again.FlightNumber = ""
	again.LastSeen = "2020/08/12 10:03:00"
	again.MinDistance = 0.2
	require.NoError(t, repo.SaveEvents(ctx, []fence.Record{again}))

	n, err := repo.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := repo.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "UAL123", got[0].FlightNumber)
	assert.Equal(t, "2020/08/12 10:03:00", got[0].LastSeen)
	assert.Equal(t, 0.2, got[0].MinDistance)
}

func TestSaveEventsEmpty(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(openTestDB(t))

	require.NoError(t, repo.SaveEvents(ctx, nil))
	got, err := repo.ListEvents(ctx)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), true},
		{errors.New("write: Broken Pipe"), true},
		{errors.New("unexpected EOF"), true},
		{errors.New("i/o timeout"), true},
		{errors.New(`pq: duplicate key value violates unique constraint "events_pkey"`), false},
		{errors.New("syntax error at or near \"SELEC\""), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isConnectionError(tt.err), tt.err.Error())
	}
}

func TestWithRetry(t *testing.T) {
	retryStep = time.Millisecond
	t.Cleanup(func() { retryStep = time.Second })
	ctx := context.Background()

	t.Run("retries connection errors until success", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			if calls < 3 {
				return errors.New("connection reset by peer")
			}
			return nil
		}, 3, nil)
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			return errors.New("connection refused")
		}, 2, nil)
		assert.EqualError(t, err, "connection refused")
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			return errors.New("permission denied for table events")
		}, 5, nil)
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestReconnectWithRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := config.DatabaseConfig{Host: "127.0.0.1", Port: 1, Username: "x", Database: "x", SSLMode: "disable"}
	_, err := ReconnectWithRetry(ctx, cfg, 0, time.Millisecond, nil)
	assert.Error(t, err)
}
