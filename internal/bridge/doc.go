// Package bridge orchestrates the translation between the hub and the
// Home Assistant broker.
//
// The Bridge owns the wiring: hub events flow through the registry and
// out as discovery, state and availability publishes; inbound command
// topics are decoded per category and forwarded as hub control
// envelopes. It holds no device state of its own; the registry is the
// single source of truth.
//
// Bulk publishes (discovery and availability sweeps) run through a
// Pacer so the broker is not flooded; tests swap in a no-op pacer to
// run without real delays.
//
// Connection lifecycle is tracked per upstream by a StateTracker:
// disconnected, connecting, connected, with a forced disconnect when
// the connect timeout expires. Reconnection itself belongs to the
// transport.
package bridge
