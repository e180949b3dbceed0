// Package store implements the Reading Store: a buffered, append-only
// log of fused readings.
//
// Appends accumulate in a bounded in-memory batch; hitting the batch
// size (or the periodic flush tick) writes the whole batch to durable
// storage as one operation. Readings are durable only after a flush —
// a crash may lose the current batch, which is the accepted trade-off
// for write amortization.
//
// Backends:
//   - SQLite (modernc.org/sqlite, pure Go): single-box default
//   - Postgres/TimescaleDB (pgx): shared lab deployments
package store
