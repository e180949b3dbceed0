package acquire

import (
	"context"
	"time"
)

// Link is the sensor connection surface the orchestrator drives.
// Implemented by sensor.Link; tests substitute a fake.
type Link interface {
	Connect(ctx context.Context) error
	Disconnect() error
	ReadLine() (string, error)
	IsConnected() bool
}

// Config holds read-loop timing.
type Config struct {
	ReadingInterval time.Duration // pause between loop iterations
	RetryInterval   time.Duration // wait before a reconnect attempt
	FaultPause      time.Duration // pause after an unexpected loop fault
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ReadingInterval: 100 * time.Millisecond,
		RetryInterval:   5 * time.Second,
		FaultPause:      time.Second,
	}
}
