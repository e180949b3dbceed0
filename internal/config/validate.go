package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *DaemonConfig) Validate() error {
	if c.Serial.Device == "" {
		return errors.New("serial.device is required")
	}
	if c.Serial.BaudRate < 1 {
		return errors.New("serial.baud_rate must be >= 1")
	}
	if c.Serial.ReadTimeout <= 0 {
		return errors.New("serial.read_timeout must be > 0")
	}
	if c.Serial.RetryInterval <= 0 {
		return errors.New("serial.retry_interval must be > 0")
	}

	if c.Acquire.ReadingInterval <= 0 {
		return errors.New("acquire.reading_interval must be > 0")
	}

	switch c.Store.Backend {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path is required for the sqlite backend")
		}
	case "postgres":
		if err := validatePostgres(c); err != nil {
			return err
		}
	default:
		return fmt.Errorf("store.backend must be sqlite or postgres, got %q", c.Store.Backend)
	}

	if c.Store.BatchSize < 1 {
		return errors.New("store.batch_size must be >= 1")
	}
	if c.Store.FlushInterval <= 0 {
		return errors.New("store.flush_interval must be > 0")
	}

	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}

	if c.NATS.Enabled {
		if c.NATS.URL == "" {
			return errors.New("nats.url is required when nats.enabled is true")
		}
		if c.NATS.Subject == "" {
			return errors.New("nats.subject is required when nats.enabled is true")
		}
	}

	return nil
}

func validatePostgres(c *DaemonConfig) error {
	pg := c.Store.Postgres
	if pg.Host == "" {
		return errors.New("store.postgres.host is required")
	}
	if pg.Name == "" {
		return errors.New("store.postgres.name is required")
	}
	if pg.User == "" {
		return errors.New("store.postgres.user is required")
	}
	if pg.MaxConns < 1 {
		return errors.New("store.postgres.max_conns must be >= 1")
	}
	if pg.MinConns < 0 {
		return errors.New("store.postgres.min_conns must be >= 0")
	}
	if pg.MinConns > pg.MaxConns {
		return fmt.Errorf("store.postgres.min_conns (%d) cannot exceed max_conns (%d)",
			pg.MinConns, pg.MaxConns)
	}
	return nil
}
