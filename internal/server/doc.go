// Package server exposes the acquisition system over HTTP.
//
// REST endpoints control recording and read back stored data; the /ws
// WebSocket endpoint streams each fused reading to connected clients
// and accepts inbound control commands. Every WebSocket client gets its
// own delivery queue drained by a dedicated writer goroutine, so a slow
// client never back-pressures the read loop.
package server
