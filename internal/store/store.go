package store

import (
	"context"
	"errors"
	"time"

	"github.com/aerolab/winddaq/internal/model"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// Store is the durable, buffered append-only log of readings.
//
// Append, Flush and Clear serialize against each other; a concurrent
// reader never observes a partially written batch.
type Store interface {
	// Append buffers one reading, flushing the batch to durable
	// storage once it reaches the configured batch size.
	Append(ctx context.Context, r model.Reading) error

	// Flush forces buffered readings to durable storage. A no-op when
	// the buffer is empty.
	Flush(ctx context.Context) error

	// GetRecent returns the most recent n flushed readings in
	// chronological order. Unflushed buffer contents may be absent.
	GetRecent(ctx context.Context, n int) ([]model.Reading, error)

	// Clear removes all durable and buffered readings.
	Clear(ctx context.Context) error

	// Close flushes and releases the backend.
	Close() error
}

// Config holds batching settings shared by all backends.
type Config struct {
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     10,
		FlushInterval: 5 * time.Second,
	}
}
