package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/contentpress/internal/config"
)

// DanglingLinkEvent is published for each dangling (source, target) pair so
// downstream tooling (dashboards, issue filers) can react without re-running
// the build.
type DanglingLinkEvent struct {
	SourceID   string    `json:"source_id"`
	TargetSlug string    `json:"target_slug"`
	BuildID    string    `json:"build_id"`
	BuildTime  time.Time `json:"build_time"`
}

// EventPublisher publishes dangling-link events.
type EventPublisher interface {
	PublishDanglingLink(ctx context.Context, event *DanglingLinkEvent) error
	Close() error
}

// NATSPublisher publishes events to a NATS JetStream subject.
type NATSPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewNATSPublisher connects to NATS using the link events configuration.
func NewNATSPublisher(cfg *config.LinkEventsConfig) (*NATSPublisher, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("link events are disabled")
	}

	conn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	slog.Info("NATS publisher initialized for link events",
		"url", cfg.NATSURL,
		"subject", cfg.Subject)

	return &NATSPublisher{conn: conn, js: js, subject: cfg.Subject}, nil
}

// PublishDanglingLink publishes a single event as JSON.
func (p *NATSPublisher) PublishDanglingLink(ctx context.Context, event *DanglingLinkEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := p.js.Publish(ctx, p.subject, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close drains the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}

// PublishReport publishes one event per dangling entry in the report.
// Publish failures are logged and do not fail the build.
func PublishReport(ctx context.Context, pub EventPublisher, report *Report, buildID string, buildTime time.Time) {
	if pub == nil {
		return
	}
	for _, entry := range report.Dangling() {
		event := &DanglingLinkEvent{
			SourceID:   entry.SourceID,
			TargetSlug: entry.TargetSlug,
			BuildID:    buildID,
			BuildTime:  buildTime,
		}
		if err := pub.PublishDanglingLink(ctx, event); err != nil {
			slog.Error("Failed to publish dangling link event",
				"source", entry.SourceID,
				"target", entry.TargetSlug,
				"error", err)
		}
	}
}
