// Package nats publishes ingestion events over NATS JetStream and exposes the
// JetStream context for the blame KV cache.
package nats

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Strob0t/subete/internal/port/events"
)

const streamName = "SUBETE"

// Publisher implements events.Publisher using NATS JetStream.
type Publisher struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	subject string
}

// Connect establishes a connection to NATS and ensures the JetStream stream
// capturing subete.> exists. Events are published on subject.
func Connect(ctx context.Context, url, subject string) (*Publisher, error) {
	if subject == "" {
		subject = events.SubjectIngested
	}
	nc, err := nats.Connect(url, nats.Name("subete"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"subete.>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", streamName, "subject", subject)
	return &Publisher{nc: nc, js: js, subject: subject}, nil
}

// JetStream returns the JetStream context of the connection.
func (p *Publisher) JetStream() jetstream.JetStream { return p.js }

// Subject returns the subject events are published on.
func (p *Publisher) Subject() string { return p.subject }

// Publish encodes ev and publishes it, waiting for the stream ack.
func (p *Publisher) Publish(ctx context.Context, ev events.Ingested) error {
	data, err := events.Encode(ev)
	if err != nil {
		return err
	}
	ack, err := p.js.Publish(ctx, p.subject, data, jetstream.WithMsgID(ev.RunID))
	if err != nil {
		return fmt.Errorf("nats publish %s: %w", p.subject, err)
	}
	slog.Debug("ingestion event published", "subject", p.subject, "seq", ack.Sequence, "run_id", ev.RunID)
	return nil
}

// IsConnected reports whether the underlying connection is up.
func (p *Publisher) IsConnected() bool {
	return p.nc != nil && p.nc.IsConnected()
}

// Close drains and shuts down the NATS connection.
func (p *Publisher) Close() error {
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return fmt.Errorf("nats drain: %w", err)
	}
	return nil
}
