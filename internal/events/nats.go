package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes events as JSON on a NATS subject.
type NATSPublisher struct {
	log *slog.Logger
	nc  *nats.Conn
}

// NewNATS constructs a thin NATS-based publisher.
func NewNATS(log *slog.Logger, nc *nats.Conn) *NATSPublisher {
	return &NATSPublisher{log: log, nc: nc}
}

func (p *NATSPublisher) Publish(_ context.Context, ev Event) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.nc.Publish(SubjectExtracted, body)
}

// Close flushes pending events and closes the connection.
func (p *NATSPublisher) Close() error {
	if err := p.nc.Drain(); err != nil {
		p.log.Warn("nats drain failed", "err", err)
		p.nc.Close()
		return err
	}
	return nil
}
