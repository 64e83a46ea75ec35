// Package history keeps a local audit trail of device state changes in
// SQLite.
//
// Every status-triggering update appends a row with the device's full
// property snapshot and the names the delta touched. The registry is
// never rebuilt from this store; it exists for the HTTP API's history
// endpoint and for offline debugging of misbehaving devices.
//
// The Recorder decouples the bridge's callback path from disk writes:
// updates go through a buffered channel to a single writer goroutine,
// and are dropped with a warning when the buffer is full.
package history
