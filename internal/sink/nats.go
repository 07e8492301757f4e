package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/unklstewy/planefence/internal/fence"
	"github.com/unklstewy/planefence/pkg/logger"
)

// publisher is the part of *nats.Conn the sink uses.
type publisher interface {
	PublishMsg(m *nats.Msg) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATS publishes one JSON message per event.
type NATS struct {
	conn    publisher
	subject string
	logger  *logger.Logger
}

// NewNATS connects to the server at url.
func NewNATS(url, subject string, log *logger.Logger) (*NATS, error) {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.Named("sink-nats")

	conn, err := nats.Connect(url,
		nats.Name("planefence"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("Disconnected from NATS", logger.Error(err))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}

	return newNATS(conn, subject, log), nil
}

func newNATS(conn publisher, subject string, log *logger.Logger) *NATS {
	if log == nil {
		log = logger.NewNop()
	}
	return &NATS{conn: conn, subject: subject, logger: log}
}

func (n *NATS) Name() string { return "nats" }

// Write publishes every event and waits for the server to acknowledge them.
func (n *NATS) Write(ctx context.Context, records []fence.Record) error {
	if len(records) == 0 {
		return nil
	}

	for _, rec := range records {
		msg, err := eventMessage(n.subject, rec)
		if err != nil {
			return err
		}
		if err := n.conn.PublishMsg(msg); err != nil {
			return fmt.Errorf("failed to publish event %s: %w", rec.ICAO, err)
		}
	}

	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush nats: %w", err)
	}

	n.logger.Info("Published events",
		logger.String("subject", n.subject),
		logger.Int("events", len(records)))
	return nil
}

// eventMessage encodes rec as JSON. The Nats-Msg-Id header lets a JetStream
// stream drop the duplicates a re-run produces.
func eventMessage(subject string, rec fence.Record) (*nats.Msg, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event %s: %w", rec.ICAO, err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, rec.ICAO+"@"+rec.FirstSeen+"@"+rec.LastSeen)
	return msg, nil
}

func (n *NATS) Close() error {
	n.conn.Close()
	return nil
}
