package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/esports-tournament-engine/services"
	"github.com/nats-io/nats.go"
)

const streamName = "TOURNAMENT_EVENTS"

// jetStreamPublisher is the part of nats.JetStreamContext the publisher uses.
type jetStreamPublisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// NATSPublisher sends PhaseAdvancedEvent to a JetStream subject so the
// notification side can inform affected teams.
type NATSPublisher struct {
	nc      *nats.Conn
	js      jetStreamPublisher
	subject string
	logger  *slog.Logger
}

// NewNATSPublisher connects to url and makes sure a stream captures subject.
func NewNATSPublisher(url, subject string, logger *slog.Logger) (*NATSPublisher, error) {
	if subject == "" {
		return nil, errors.New("nats subject is required")
	}

	nc, err := nats.Connect(url, nats.Name("tournament-engine"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err := js.StreamInfo(streamName); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			nc.Close()
			return nil, fmt.Errorf("failed to look up stream %s: %w", streamName, err)
		}
		_, err = js.AddStream(&nats.StreamConfig{
			Name:     streamName,
			Subjects: []string{subject},
			Storage:  nats.FileStorage,
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("failed to create stream %s: %w", streamName, err)
		}
	}

	return &NATSPublisher{nc: nc, js: js, subject: subject, logger: logger}, nil
}

func (p *NATSPublisher) Name() string { return "nats" }

func (p *NATSPublisher) PublishPhaseAdvanced(ctx context.Context, event services.PhaseAdvancedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", event.ID, err)
	}

	// The event ID doubles as the JetStream dedup key so retried publishes
	// are stored once.
	ack, err := p.js.Publish(p.subject, data, nats.MsgId(event.ID), nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("failed to publish event %s to %s: %w", event.ID, p.subject, err)
	}

	p.logger.DebugContext(ctx, "phase advanced event published",
		slog.String("event_id", event.ID),
		slog.String("stream", ack.Stream),
		slog.Uint64("sequence", ack.Sequence),
		slog.Bool("duplicate", ack.Duplicate),
	)
	return nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
