// Package metrics provides Prometheus instrumentation for the
// acquisition pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReadingsFused counts readings produced by the read loop.
	ReadingsFused = promauto.NewCounter(prometheus.CounterOpts{
		Name: "winddaq_readings_fused_total",
		Help: "Readings fused from valid sensor samples.",
	})

	// DecodeErrors counts malformed sample lines discarded.
	DecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "winddaq_decode_errors_total",
		Help: "Sensor lines that failed to decode.",
	})

	// TransportFaults counts serial read faults that forced a reconnect.
	TransportFaults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "winddaq_transport_faults_total",
		Help: "Serial transport faults observed by the read loop.",
	})

	// SensorConnected is 1 while the sensor link is connected.
	SensorConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "winddaq_sensor_connected",
		Help: "Whether the sensor link is currently connected.",
	})

	// Subscribers tracks the live subscriber count.
	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "winddaq_subscribers",
		Help: "Currently registered reading subscribers.",
	})

	// WSMessagesSent counts readings pushed over WebSocket.
	WSMessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "winddaq_ws_messages_sent_total",
		Help: "Reading messages written to WebSocket clients.",
	})

	// NATSPublished counts readings published to NATS.
	NATSPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "winddaq_nats_published_total",
		Help: "Readings published to the NATS subject.",
	})
)
