package db

import (
	"context"
	"strings"
	"time"

	"github.com/unklstewy/planefence/pkg/config"
	"github.com/unklstewy/planefence/pkg/logger"
)

// Backoff bounds. Variables so tests can shrink them.
var (
	maxReconnectDelay = 60 * time.Second
	retryStep         = time.Second
)

// ReconnectWithRetry attempts to connect to the database with exponential backoff.
//
// Parameters:
//   - cfg: Database configuration
//   - maxRetries: Maximum number of connection attempts (0 = until ctx is done)
//   - initialDelay: Initial wait time between attempts
//
// Returns: Connected database or the last error once retries are exhausted
func ReconnectWithRetry(ctx context.Context, cfg config.DatabaseConfig, maxRetries int, initialDelay time.Duration, log *logger.Logger) (*DB, error) {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.Named("db")

	delay := initialDelay
	attempt := 0

	for {
		attempt++
		log.Debug("Database connection attempt", logger.Int("attempt", attempt))

		db, err := Connect(ctx, cfg)
		if err == nil {
			if attempt > 1 {
				log.Info("Database connected", logger.Int("attempts", attempt))
			}
			return db, nil
		}

		if maxRetries > 0 && attempt >= maxRetries {
			log.Error("Failed to connect to database",
				logger.Int("attempts", attempt),
				logger.Error(err))
			return nil, err
		}

		log.Warn("Database connection failed",
			logger.Error(err),
			logger.Duration("retry_in", delay))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// connErrors are substrings of driver errors worth retrying.
var connErrors = []string{
	"connection refused",
	"broken pipe",
	"no connection",
	"connection reset",
	"bad connection",
	"eof",
	"timeout",
	"database is locked",
}

// isConnectionError reports whether err looks like a transient connection failure.
func isConnectionError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range connErrors {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// WithRetry executes a database operation, retrying it on connection failures.
// Other errors are returned immediately.
//
// Parameters:
//   - operation: Function to execute that may fail due to connection issues
//   - maxRetries: Maximum number of retry attempts
//
// Returns: Error from operation or nil on success
func WithRetry(ctx context.Context, operation func() error, maxRetries int, log *logger.Logger) error {
	if log == nil {
		log = logger.NewNop()
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isConnectionError(err) {
			return err
		}

		if attempt < maxRetries {
			waitTime := time.Duration(attempt+1) * retryStep
			log.Warn("Database operation failed",
				logger.Int("attempt", attempt+1),
				logger.Int("max_attempts", maxRetries+1),
				logger.Error(err),
				logger.Duration("retry_in", waitTime))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitTime):
			}
		}
	}

	return lastErr
}
