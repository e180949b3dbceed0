package broadcast

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/aerolab/winddaq/internal/metrics"
	"github.com/aerolab/winddaq/internal/model"
)

// DeliverFunc receives one fused reading. Implementations must not
// retain the reading past the call.
type DeliverFunc func(model.Reading) error

// Subscriber is an identity-keyed handle for one reading consumer.
// Heterogeneous consumers (WebSocket clients, NATS publisher, tests)
// are normalized to a single Deliver capability at construction.
type Subscriber struct {
	id      uuid.UUID
	name    string
	deliver DeliverFunc
}

// NewSubscriber wraps a delivery function in a registry handle.
// The name is used only for logging.
func NewSubscriber(name string, deliver DeliverFunc) *Subscriber {
	return &Subscriber{
		id:      uuid.New(),
		name:    name,
		deliver: deliver,
	}
}

// ID returns the subscriber's unique identity.
func (s *Subscriber) ID() uuid.UUID {
	return s.id
}

// Registry is the set of active subscribers.
type Registry struct {
	logger *slog.Logger

	mu   sync.Mutex
	subs map[uuid.UUID]*Subscriber
}

// NewRegistry creates an empty subscriber registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger: logger,
		subs:   make(map[uuid.UUID]*Subscriber),
	}
}

// Subscribe adds a subscriber. Adding the same handle twice is a no-op.
func (r *Registry) Subscribe(s *Subscriber) {
	if s == nil {
		return
	}
	r.mu.Lock()
	r.subs[s.id] = s
	total := len(r.subs)
	r.mu.Unlock()

	metrics.Subscribers.Set(float64(total))
	r.logger.Debug("subscriber added", "name", s.name, "total", total)
}

// Unsubscribe removes a subscriber. Removing an absent handle is a no-op.
func (r *Registry) Unsubscribe(s *Subscriber) {
	if s == nil {
		return
	}
	r.mu.Lock()
	delete(r.subs, s.id)
	total := len(r.subs)
	r.mu.Unlock()

	metrics.Subscribers.Set(float64(total))
	r.logger.Debug("subscriber removed", "name", s.name, "total", total)
}

// Count returns the current number of subscribers.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// Broadcast delivers a reading to every subscriber present when the
// broadcast starts. Delivery happens outside the lock on a snapshot,
// so membership may change concurrently. An error or panic from one
// subscriber is logged without aborting delivery to the rest.
func (r *Registry) Broadcast(reading model.Reading) {
	r.mu.Lock()
	snapshot := make([]*Subscriber, 0, len(r.subs))
	for _, s := range r.subs {
		snapshot = append(snapshot, s)
	}
	r.mu.Unlock()

	for _, s := range snapshot {
		if err := r.deliverOne(s, reading); err != nil {
			r.logger.Warn("subscriber delivery failed",
				"name", s.name,
				"error", err,
			)
		}
	}
}

// deliverOne invokes a single subscriber, converting a panic into an error.
func (r *Registry) deliverOne(s *Subscriber, reading model.Reading) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("subscriber panic: %v", rec)
		}
	}()
	return s.deliver(reading)
}
