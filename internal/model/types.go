package model

import "time"

// RawSample is a single decoded line from the sensor, before fusion.
// Valid is false when the line decoded to garbage; callers must not
// fuse an invalid sample.
type RawSample struct {
	RotationSpeed float64 // RPM, never negative (parser clamps)
	LiftForce     float64 // Newtons
	Valid         bool
}

// Reading is one fused measurement: a RawSample stamped with the
// wall-clock time at fusion. Immutable once created; this is the unit
// of persistence and broadcast.
type Reading struct {
	Timestamp     time.Time `json:"timestamp"`
	RotationSpeed float64   `json:"rpm"`
	LiftForce     float64   `json:"lift_force"`
}

// SystemStatus is a point-in-time snapshot of the acquisition system,
// computed on demand from live component state. Never cached.
type SystemStatus struct {
	Connected       bool  `json:"connected"`
	SubscriberCount int   `json:"subscriber_count"`
	Recording       bool  `json:"recording"`
	ReadingsCount   int64 `json:"readings_count"`
}

// ConnectionState describes the sensor link's view of its transport.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connected
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}
