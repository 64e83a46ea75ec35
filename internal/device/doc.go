// Package device holds the in-memory device registry and the types it
// stores.
//
// The registry is the single source of truth for hub device state. It is
// populated from a full snapshot (ReplaceAll) and then kept current by
// applying incremental events: additions, removals, renames, definition
// and parameter changes, and status deltas.
//
// # Merge Semantics
//
// A status delta never grows a device's property set. Keys are fixed by
// the first population (snapshot or bootstrap); later deltas overwrite
// values for existing keys and silently drop unknown ones. A delta whose
// target has no properties yet bootstraps the set verbatim without
// firing the status callback.
//
// # Concurrency
//
// All registry methods are safe for concurrent use. Accessors return
// deep copies, so callers never observe mutation through a shared
// pointer. Callbacks are invoked synchronously while the registry lock
// is NOT held.
//
// # Usage
//
//	reg := device.NewRegistry()
//	reg.SetCallbacks(device.Callbacks{
//	    OnStatus: func(dev device.Device, delta device.StatusDelta) {
//	        // publish translated state
//	    },
//	})
//	reg.ReplaceAll(snapshot)
package device
