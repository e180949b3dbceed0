// Package acquire implements the Acquisition Orchestrator.
//
// The orchestrator:
//   - Drives the sensor read loop (one background goroutine)
//   - Fuses raw samples into wall-clock-timestamped readings
//   - Appends readings to the store while recording is active
//   - Broadcasts every reading to the subscriber registry
//   - Answers status queries and recording/clear commands from any
//     goroutine without coordinating with the read loop
//
// Faults never cross the orchestrator boundary: transport faults
// trigger reconnection, decode faults discard the sample, storage
// faults are logged and surfaced only to the failing command's caller.
package acquire
