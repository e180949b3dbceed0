package sensor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/aerolab/winddaq/internal/model"
)

// Link owns the serial connection to the sensor hardware.
type Link struct {
	cfg    LinkConfig
	logger *slog.Logger
	open   PortOpener

	// Connection state
	mu        sync.Mutex
	port      Port
	connected bool
	pending   []byte // bytes read but not yet forming a complete line

	// Auto-reconnect loop (at most one per Link)
	reconnectMu     sync.Mutex
	reconnectCancel context.CancelFunc
}

// LinkOption customizes a Link.
type LinkOption func(*Link)

// WithOpener overrides how the serial device is opened.
func WithOpener(open PortOpener) LinkOption {
	return func(l *Link) {
		l.open = open
	}
}

// NewLink creates a sensor Link. The link starts Disconnected; call
// Connect or StartAutoReconnect to bring it up.
func NewLink(cfg LinkConfig, logger *slog.Logger, opts ...LinkOption) *Link {
	if logger == nil {
		logger = slog.Default()
	}

	l := &Link{
		cfg:    cfg,
		logger: logger,
		open:   openSerialPort,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Connect opens the serial device. The sensor firmware resets when the
// port opens, so the link waits out a settle delay and drains any bytes
// the transport buffered before reporting Connected. A failed open
// leaves the link Disconnected.
func (l *Link) Connect(ctx context.Context) error {
	l.mu.Lock()
	if l.connected && l.port != nil {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	l.logAvailablePorts()

	port, err := l.open(l.cfg)
	if err != nil {
		l.logger.Warn("failed to open sensor device",
			"device", l.cfg.Device,
			"error", err,
		)
		return fmt.Errorf("open %s: %w", l.cfg.Device, err)
	}

	select {
	case <-ctx.Done():
		port.Close()
		return ctx.Err()
	case <-time.After(l.cfg.SettleDelay):
	}

	// Discard anything the device emitted during its reset sequence.
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return fmt.Errorf("drain input buffer: %w", err)
	}

	if err := port.SetReadTimeout(l.cfg.ReadTimeout); err != nil {
		port.Close()
		return fmt.Errorf("set read timeout: %w", err)
	}

	l.mu.Lock()
	if l.connected && l.port != nil {
		// A concurrent Connect won while this one was settling; keep
		// its port and drop ours.
		l.mu.Unlock()
		port.Close()
		return nil
	}
	l.port = port
	l.connected = true
	l.pending = l.pending[:0]
	l.mu.Unlock()

	l.logger.Info("sensor connected",
		"device", l.cfg.Device,
		"baud", l.cfg.BaudRate,
	)
	return nil
}

// Disconnect stops the auto-reconnect loop and closes the port.
// Safe to call repeatedly and in any state.
func (l *Link) Disconnect() error {
	l.stopAutoReconnect()

	l.mu.Lock()
	port := l.port
	l.port = nil
	l.connected = false
	l.pending = nil
	l.mu.Unlock()

	if port == nil {
		return nil
	}
	if err := port.Close(); err != nil {
		return fmt.Errorf("close port: %w", err)
	}
	l.logger.Info("sensor disconnected", "device", l.cfg.Device)
	return nil
}

// ReadLine polls for one complete line. Returns ("", nil) when no
// complete line is available this tick. A transport fault transitions
// the link to Disconnected and returns an error wrapping ErrTransport.
func (l *Link) ReadLine() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.connected || l.port == nil {
		return "", ErrNotConnected
	}

	// Drain lines already buffered before touching the port.
	if line, ok := l.takeLine(); ok {
		return line, nil
	}

	buf := make([]byte, 256)
	n, err := l.port.Read(buf)
	if err != nil {
		l.connected = false
		l.port.Close()
		l.port = nil
		return "", fmt.Errorf("%w: read: %v", ErrTransport, err)
	}
	if n > 0 {
		l.pending = append(l.pending, buf[:n]...)
	}

	if line, ok := l.takeLine(); ok {
		return line, nil
	}
	return "", nil
}

// takeLine extracts the next newline-terminated line from the pending
// buffer. Caller holds l.mu.
func (l *Link) takeLine() (string, bool) {
	idx := bytes.IndexByte(l.pending, '\n')
	if idx < 0 {
		return "", false
	}
	line := strings.TrimSpace(string(l.pending[:idx]))
	l.pending = l.pending[idx+1:]
	return line, true
}

// IsConnected reports whether the port handle is live and the last
// known state is Connected. Any transport fault or Close clears the
// flag, so it cannot outlive the port.
func (l *Link) IsConnected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected && l.port != nil
}

// State returns the link's connection state.
func (l *Link) State() model.ConnectionState {
	if l.IsConnected() {
		return model.Connected
	}
	return model.Disconnected
}

// StartAutoReconnect runs a background loop that attempts Connect at
// the configured retry interval while the link is disconnected. At
// most one loop runs per Link; subsequent calls are no-ops until the
// loop is cancelled via ctx or Disconnect.
func (l *Link) StartAutoReconnect(ctx context.Context) {
	l.reconnectMu.Lock()
	defer l.reconnectMu.Unlock()

	if l.reconnectCancel != nil {
		l.logger.Warn("auto-reconnect already running", "device", l.cfg.Device)
		return
	}

	rctx, cancel := context.WithCancel(ctx)
	l.reconnectCancel = cancel

	go l.reconnectLoop(rctx)
}

// reconnectLoop attempts Connect at fixed intervals while disconnected.
func (l *Link) reconnectLoop(ctx context.Context) {
	ticker := time.NewTicker(l.cfg.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if l.IsConnected() {
				continue
			}
			l.logger.Info("attempting sensor reconnect", "device", l.cfg.Device)
			if err := l.Connect(ctx); err != nil {
				l.logger.Warn("sensor reconnect failed",
					"device", l.cfg.Device,
					"error", err,
				)
			}
		}
	}
}

// stopAutoReconnect cancels the reconnect loop if one is running.
func (l *Link) stopAutoReconnect() {
	l.reconnectMu.Lock()
	defer l.reconnectMu.Unlock()

	if l.reconnectCancel != nil {
		l.reconnectCancel()
		l.reconnectCancel = nil
	}
}

// logAvailablePorts lists detected serial devices for debugging.
func (l *Link) logAvailablePorts() {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		l.logger.Debug("failed to enumerate serial ports", "error", err)
		return
	}

	names := make([]string, 0, len(ports))
	for _, p := range ports {
		names = append(names, p.Name)
	}
	l.logger.Debug("available serial ports", "ports", names)
}

// openSerialPort is the default PortOpener backed by go.bug.st/serial.
func openSerialPort(cfg LinkConfig) (Port, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
	}
	return serial.Open(cfg.Device, mode)
}
