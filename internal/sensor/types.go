package sensor

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected = errors.New("sensor not connected")
	ErrTransport    = errors.New("serial transport fault")
	ErrDecode       = errors.New("malformed sample line")
	ErrNoData       = errors.New("no data")
)

// Port is the narrow serial-port surface the link needs. Satisfied by
// go.bug.st/serial ports; tests substitute a fake.
type Port interface {
	Read(p []byte) (int, error)
	ResetInputBuffer() error
	SetReadTimeout(t time.Duration) error
	Close() error
}

// PortOpener opens the serial device described by cfg.
type PortOpener func(cfg LinkConfig) (Port, error)

// LinkConfig configures a sensor Link.
type LinkConfig struct {
	Device        string        // serial device path, e.g. /dev/ttyUSB0
	BaudRate      int           // e.g. 9600
	ReadTimeout   time.Duration // max wait for bytes in one poll
	SettleDelay   time.Duration // hardware reset window after open
	RetryInterval time.Duration // auto-reconnect attempt spacing
}

// DefaultLinkConfig returns sensible defaults.
func DefaultLinkConfig() LinkConfig {
	return LinkConfig{
		Device:        "/dev/ttyUSB0",
		BaudRate:      9600,
		ReadTimeout:   50 * time.Millisecond,
		SettleDelay:   2 * time.Second,
		RetryInterval: 5 * time.Second,
	}
}
