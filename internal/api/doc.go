// Package api implements the HTTP status API for the bridge.
//
// This package provides:
//   - Read endpoints for the device registry and per-device state history
//   - A toggle for the per-device Home Assistant publication gate
//   - A manual discovery sweep trigger and direct device control
//   - Middleware stack (request ID, logging, recovery, body size limit)
//
// # Architecture
//
// The API server sits beside the bridge and reads from the in-memory
// device registry. Control requests are translated to hub property
// writes and published on the hub connection; they never touch the
// Home Assistant side.
//
// # Graceful Degradation
//
// The server operates without the bridge or hub wired in. Reads keep
// working; sweep, control, and the publication toggle return 503.
package api
