// Package sensor implements the Sensor Link component.
//
// The Sensor Link:
//   - Owns the serial connection to the bench hardware
//   - Polls newline-delimited JSON samples without blocking the caller
//   - Transitions to Disconnected on any transport fault
//   - Runs an optional auto-reconnect loop at a fixed interval
//
// ParseSample decodes one raw line into a model.RawSample, separating
// "no data this tick" from "garbage received" from "valid sample".
package sensor
