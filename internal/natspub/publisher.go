// Package natspub publishes fused readings to a NATS subject, letting
// downstream analytics consume the stream without touching the daemon.
package natspub

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/aerolab/winddaq/internal/broadcast"
	"github.com/aerolab/winddaq/internal/metrics"
	"github.com/aerolab/winddaq/internal/model"
)

// Config holds the NATS connection settings.
type Config struct {
	URL     string
	Subject string
}

// Publisher is a registry subscriber that forwards each reading to a
// NATS subject as JSON.
type Publisher struct {
	cfg    Config
	logger *slog.Logger
	conn   *nats.Conn
}

// New connects to the NATS server. The connection reconnects
// indefinitely on its own; publish failures while disconnected surface
// as subscriber delivery errors and are isolated by the registry.
func New(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("winddaq"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", cfg.URL, err)
	}

	logger.Info("nats publisher connected", "url", cfg.URL, "subject", cfg.Subject)

	return &Publisher{
		cfg:    cfg,
		logger: logger,
		conn:   conn,
	}, nil
}

// Subscriber returns the registry handle delivering into NATS.
func (p *Publisher) Subscriber() *broadcast.Subscriber {
	return broadcast.NewSubscriber("nats:"+p.cfg.Subject, p.publish)
}

// Close drains and closes the connection.
func (p *Publisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		return fmt.Errorf("drain nats: %w", err)
	}
	return nil
}

func (p *Publisher) publish(r model.Reading) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode reading: %w", err)
	}
	if err := p.conn.Publish(p.cfg.Subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.cfg.Subject, err)
	}
	metrics.NATSPublished.Inc()
	return nil
}
