package natsadapter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geoportfolio/internal/adapters/geojson"
	"github.com/samirrijal/geoportfolio/internal/core/domain"
)

const (
	// StreamName is the JetStream stream holding property change events.
	StreamName = "PROPERTY_EVENTS"
	// SubjectPrefix is followed by the action: portfolio.property.created.
	SubjectPrefix = "portfolio.property."
	// SubjectAll matches every property event.
	SubjectAll = SubjectPrefix + ">"
	// HeaderPortfolio carries the portfolio id so consumers can filter
	// without decoding the payload.
	HeaderPortfolio = "Portfolio-Id"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure stream exists
	cfg := nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{SubjectAll},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// Subject returns the subject an action is published on.
func Subject(action domain.PropertyAction) string {
	return SubjectPrefix + string(action)
}

// PublishPropertyEvent publishes the event as a GeoJSON-bearing message.
func (p *Publisher) PublishPropertyEvent(ctx context.Context, event domain.PropertyEvent) error {
	data, err := json.Marshal(geojson.FromEvent(event))
	if err != nil {
		return err
	}
	msg := nats.NewMsg(Subject(event.Action))
	msg.Data = data
	msg.Header.Set(HeaderPortfolio, strconv.FormatInt(event.Property.PortfolioID, 10))
	_, err = p.js.PublishMsg(msg, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection so the WebSocket relay can share it.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
