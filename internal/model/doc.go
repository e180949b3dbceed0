// Package model defines the domain types shared across the pipeline.
//
// Types:
//   - RawSample: one decoded sensor line, pre-fusion (never persisted)
//   - Reading: timestamped fused measurement (persisted and broadcast)
//   - SystemStatus: on-demand snapshot of live system state
package model
