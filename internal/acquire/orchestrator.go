package acquire

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aerolab/winddaq/internal/broadcast"
	"github.com/aerolab/winddaq/internal/metrics"
	"github.com/aerolab/winddaq/internal/model"
	"github.com/aerolab/winddaq/internal/sensor"
	"github.com/aerolab/winddaq/internal/store"
)

// Orchestrator drives the acquisition pipeline: read loop, fusion,
// recording, and broadcast.
type Orchestrator struct {
	cfg    Config
	logger *slog.Logger

	link  Link
	store store.Store
	subs  *broadcast.Registry

	// Lifecycle
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// Recording state: written by command handlers, read by the loop.
	recording atomic.Bool
	readings  atomic.Int64
}

// New creates an orchestrator over the given link, store and registry.
func New(cfg Config, link Link, st store.Store, subs *broadcast.Registry, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:    cfg,
		logger: logger,
		link:   link,
		store:  st,
		subs:   subs,
	}
}

// Start transitions Stopped→Running and spawns the read loop. An
// initial connect failure is logged, not returned: the loop retries.
// Calling Start while Running is a no-op with a warning.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		o.logger.Warn("orchestrator already running")
		return nil
	}

	if err := o.link.Connect(ctx); err != nil {
		o.logger.Warn("initial sensor connect failed, read loop will retry",
			"error", err,
		)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.running = true

	o.wg.Add(1)
	go o.readLoop(loopCtx)

	o.logger.Info("orchestrator started",
		"reading_interval", o.cfg.ReadingInterval,
		"retry_interval", o.cfg.RetryInterval,
	)
	return nil
}

// Stop cancels the read loop, waits for it to exit, then disconnects
// the sensor and flushes the store. No-op when already Stopped.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return nil
	}
	o.running = false
	cancel := o.cancel
	o.cancel = nil
	o.mu.Unlock()

	cancel()

	// The loop must be fully out before the transport closes, so a
	// read never races a closed port.
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		o.logger.Warn("read loop stop timed out")
	}

	if err := o.link.Disconnect(); err != nil {
		o.logger.Warn("sensor disconnect failed", "error", err)
	}

	if err := o.store.Flush(ctx); err != nil {
		o.logger.Error("final flush failed", "error", err)
		return err
	}

	o.logger.Info("orchestrator stopped")
	return nil
}

// IsRunning reports whether the read loop is active.
func (o *Orchestrator) IsRunning() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// StartRecording enables persistence and resets the session tally.
// Stored history is untouched.
func (o *Orchestrator) StartRecording() {
	o.readings.Store(0)
	o.recording.Store(true)
	o.logger.Info("recording started")
}

// StopRecording disables persistence and flushes buffered readings.
func (o *Orchestrator) StopRecording(ctx context.Context) error {
	o.recording.Store(false)
	err := o.store.Flush(ctx)
	o.logger.Info("recording stopped", "readings", o.readings.Load())
	return err
}

// ClearReadings removes all stored readings and resets the tally.
func (o *Orchestrator) ClearReadings(ctx context.Context) error {
	if err := o.store.Clear(ctx); err != nil {
		o.logger.Error("failed to clear readings", "error", err)
		return err
	}
	o.readings.Store(0)
	return nil
}

// Status computes the current system status from live component state.
func (o *Orchestrator) Status() model.SystemStatus {
	return model.SystemStatus{
		Connected:       o.link.IsConnected(),
		SubscriberCount: o.subs.Count(),
		Recording:       o.recording.Load(),
		ReadingsCount:   o.readings.Load(),
	}
}

// RecentReadings returns the most recent n flushed readings.
func (o *Orchestrator) RecentReadings(ctx context.Context, n int) ([]model.Reading, error) {
	return o.store.GetRecent(ctx, n)
}

// Registry exposes the subscriber registry to the transport layer.
func (o *Orchestrator) Registry() *broadcast.Registry {
	return o.subs
}

// readLoop runs until its context is cancelled.
func (o *Orchestrator) readLoop(ctx context.Context) {
	defer o.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		o.iterate(ctx)

		if !sleep(ctx, o.cfg.ReadingInterval) {
			return
		}
	}
}

// iterate performs one read-loop cycle. A panic inside the cycle is
// recovered and followed by a short pause; the loop itself never dies.
func (o *Orchestrator) iterate(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			o.logger.Error("read loop fault", "panic", rec)
			sleep(ctx, o.cfg.FaultPause)
		}
	}()

	if !o.link.IsConnected() {
		metrics.SensorConnected.Set(0)
		if !sleep(ctx, o.cfg.RetryInterval) {
			return
		}
		if err := o.link.Connect(ctx); err != nil {
			o.logger.Warn("sensor reconnect failed", "error", err)
		}
		return
	}
	metrics.SensorConnected.Set(1)

	line, err := o.link.ReadLine()
	if err != nil {
		if errors.Is(err, sensor.ErrTransport) {
			metrics.TransportFaults.Inc()
			o.logger.Warn("sensor read fault, will reconnect", "error", err)
		}
		return
	}
	if line == "" {
		return
	}

	sample, err := sensor.ParseSample(line)
	if err != nil {
		if errors.Is(err, sensor.ErrDecode) {
			metrics.DecodeErrors.Inc()
			o.logger.Warn("discarding malformed sample", "line", line, "error", err)
		}
		return
	}
	if !sample.Valid {
		return
	}

	// Fusion: stamp the sample with the wall clock now, not at sensor
	// read time.
	reading := model.Reading{
		Timestamp:     time.Now(),
		RotationSpeed: sample.RotationSpeed,
		LiftForce:     sample.LiftForce,
	}
	metrics.ReadingsFused.Inc()

	if o.recording.Load() {
		if err := o.store.Append(ctx, reading); err != nil {
			o.logger.Error("failed to append reading", "error", err)
		} else {
			o.readings.Add(1)
		}
	}

	o.subs.Broadcast(reading)
}

// sleep waits d or until ctx is cancelled, reporting whether the full
// wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
