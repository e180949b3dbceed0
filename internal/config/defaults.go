package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultDevice          = "/dev/ttyUSB0"
	DefaultBaudRate        = 9600
	DefaultReadTimeout     = 50 * time.Millisecond
	DefaultSettleDelay     = 2 * time.Second
	DefaultRetryInterval   = 5 * time.Second
	DefaultReadingInterval = 100 * time.Millisecond
	DefaultStoreBackend    = "sqlite"
	DefaultBatchSize       = 10
	DefaultFlushInterval   = 5 * time.Second
	DefaultSQLitePath      = "data/winddaq.db"
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 4
	DefaultMinConns        = 1
	DefaultServerAddr      = ":8000"
	DefaultMetricsPath     = "/metrics"
	DefaultNATSSubject     = "winddaq.readings"
)

func (c *DaemonConfig) applyDefaults() {
	// Serial defaults
	if c.Serial.Device == "" {
		c.Serial.Device = DefaultDevice
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = DefaultBaudRate
	}
	if c.Serial.ReadTimeout == 0 {
		c.Serial.ReadTimeout = Duration(DefaultReadTimeout)
	}
	if c.Serial.SettleDelay == 0 {
		c.Serial.SettleDelay = Duration(DefaultSettleDelay)
	}
	if c.Serial.RetryInterval == 0 {
		c.Serial.RetryInterval = Duration(DefaultRetryInterval)
	}

	// Acquire defaults
	if c.Acquire.ReadingInterval == 0 {
		c.Acquire.ReadingInterval = Duration(DefaultReadingInterval)
	}

	// Store defaults
	if c.Store.Backend == "" {
		c.Store.Backend = DefaultStoreBackend
	}
	if c.Store.BatchSize == 0 {
		c.Store.BatchSize = DefaultBatchSize
	}
	if c.Store.FlushInterval == 0 {
		c.Store.FlushInterval = Duration(DefaultFlushInterval)
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = DefaultSQLitePath
	}
	if c.Store.Postgres.Port == 0 {
		c.Store.Postgres.Port = DefaultDBPort
	}
	if c.Store.Postgres.SSLMode == "" {
		c.Store.Postgres.SSLMode = DefaultDBSSLMode
	}
	if c.Store.Postgres.MaxConns == 0 {
		c.Store.Postgres.MaxConns = DefaultMaxConns
	}
	if c.Store.Postgres.MinConns == 0 {
		c.Store.Postgres.MinConns = DefaultMinConns
	}

	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.MetricsPath == "" {
		c.Server.MetricsPath = DefaultMetricsPath
	}

	// NATS defaults
	if c.NATS.Subject == "" {
		c.NATS.Subject = DefaultNATSSubject
	}
}
