package device

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Logger interface for registry diagnostics.
// Implementations must be safe for concurrent use.
type Logger interface {
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}

// noopLogger discards all log output. Used when no logger is configured.
type noopLogger struct{}

func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Debug(msg string, args ...any) {}

// Callbacks are invoked synchronously after a registry mutation commits.
// The registry lock is released before a callback runs, so callbacks may
// call back into the registry.
type Callbacks struct {
	// OnAdded fires when a device appears through an added event.
	// Snapshot replacement does not fire it.
	OnAdded func(dev Device)

	// OnRemoved fires once per removed device with its UUID and model.
	OnRemoved func(uuid, model string)

	// OnStatus fires after a property delta merges. Online-only deltas
	// and bootstrap population do not fire it.
	OnStatus func(dev Device, delta StatusDelta)

	// OnOnline fires when an online-only delta changes a device's
	// online flag. Deltas restating the current flag do not fire it.
	OnOnline func(dev Device, online bool)
}

// Registry is the thread-safe in-memory device store.
//
// Devices are held in snapshot order; the UUID index gives O(1) lookup.
type Registry struct {
	mu      sync.RWMutex
	devices []*Device
	byUUID  map[string]*Device

	callbacks Callbacks
	logger    Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byUUID: make(map[string]*Device),
		logger: noopLogger{},
	}
}

// SetLogger configures diagnostic logging. Pass nil to disable.
func (r *Registry) SetLogger(logger Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if logger == nil {
		r.logger = noopLogger{}
		return
	}
	r.logger = logger
}

// SetCallbacks registers the mutation callbacks. Replaces any previous set.
func (r *Registry) SetCallbacks(cb Callbacks) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = cb
}

// ReplaceAll swaps the registry contents for a fresh snapshot.
//
// Name traits are extracted for every device. HassEnabled survives the
// swap for UUIDs that were already present; new devices default to
// enabled. No callbacks fire.
func (r *Registry) ReplaceAll(devices []Device) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prevEnabled := make(map[string]bool, len(r.byUUID))
	for id, dev := range r.byUUID {
		prevEnabled[id] = dev.HassEnabled
	}

	r.devices = make([]*Device, 0, len(devices))
	r.byUUID = make(map[string]*Device, len(devices))

	for i := range devices {
		dev := devices[i].DeepCopy()
		dev.ExtractNameTraits()
		if enabled, ok := prevEnabled[dev.UUID]; ok {
			dev.HassEnabled = enabled
		} else {
			dev.HassEnabled = true
		}
		if _, dup := r.byUUID[dev.UUID]; dup {
			r.logger.Warn("duplicate uuid in snapshot, keeping first", "uuid", dev.UUID)
			continue
		}
		r.devices = append(r.devices, dev)
		r.byUUID[dev.UUID] = dev
	}

	r.logger.Debug("registry replaced", "count", len(r.devices))
}

// ApplyAdded handles a devices.added event.
//
// A known UUID is updated in place without a callback; an unknown one is
// appended and OnAdded fires with a copy of the stored device.
func (r *Registry) ApplyAdded(incoming Device) {
	r.mu.Lock()

	dev := incoming.DeepCopy()
	dev.ExtractNameTraits()

	if existing, ok := r.byUUID[dev.UUID]; ok {
		dev.HassEnabled = existing.HassEnabled
		*existing = *dev
		r.mu.Unlock()
		return
	}

	dev.HassEnabled = true
	r.devices = append(r.devices, dev)
	r.byUUID[dev.UUID] = dev
	added := dev.DeepCopy()
	cb := r.callbacks.OnAdded
	r.mu.Unlock()

	if cb != nil {
		cb(*added)
	}
}

// ApplyRemoved handles a devices.removed event for one or more UUIDs.
// Unknown UUIDs are ignored. OnRemoved fires once per removed device.
func (r *Registry) ApplyRemoved(uuids []string) {
	type removed struct{ uuid, model string }

	r.mu.Lock()
	var gone []removed
	for _, id := range uuids {
		dev, ok := r.byUUID[id]
		if !ok {
			r.logger.Debug("removal for unknown uuid ignored", "uuid", id)
			continue
		}
		gone = append(gone, removed{uuid: id, model: dev.Model})
		delete(r.byUUID, id)
		for i, d := range r.devices {
			if d.UUID == id {
				r.devices = append(r.devices[:i], r.devices[i+1:]...)
				break
			}
		}
	}
	cb := r.callbacks.OnRemoved
	r.mu.Unlock()

	if cb == nil {
		return
	}
	for _, rm := range gone {
		cb(rm.uuid, rm.model)
	}
}

// ApplyRenamed handles a devices.displayname_changed event.
// The new raw name is stored and traits are re-extracted from it.
func (r *Registry) ApplyRenamed(id, newName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev, ok := r.byUUID[id]
	if !ok {
		return ErrDeviceNotFound
	}
	dev.Name = newName
	dev.ExtractNameTraits()
	return nil
}

// ApplyPropertyDefinitionsChanged replaces a device's property
// definitions with the event's payload.
func (r *Registry) ApplyPropertyDefinitionsChanged(id string, defs []json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev, ok := r.byUUID[id]
	if !ok {
		return ErrDeviceNotFound
	}
	dev.PropertyDefinitions = defs
	return nil
}

// ApplyParametersChanged replaces a device's parameter list.
func (r *Registry) ApplyParametersChanged(id string, params Properties) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev, ok := r.byUUID[id]
	if !ok {
		return ErrDeviceNotFound
	}
	dev.Parameters = params.Clone()
	return nil
}

// ApplyStatus handles one device's entry of a devices.status event.
//
// Online deltas update only the online flag and never fire OnStatus;
// a changed flag fires OnOnline instead.
// A property delta against a device with no properties yet bootstraps
// the full set without a callback. Otherwise the delta merges into the
// existing key set and OnStatus fires with the post-merge device and
// the effective delta.
func (r *Registry) ApplyStatus(id string, delta StatusDelta) error {
	r.mu.Lock()

	dev, ok := r.byUUID[id]
	if !ok {
		r.mu.Unlock()
		return ErrDeviceNotFound
	}

	if delta.Online != nil {
		if dev.Online == *delta.Online {
			r.mu.Unlock()
			return nil
		}
		dev.Online = *delta.Online
		snapshot := dev.DeepCopy()
		cb := r.callbacks.OnOnline
		r.mu.Unlock()

		if cb != nil {
			cb(*snapshot, snapshot.Online)
		}
		return nil
	}

	if len(dev.Properties) == 0 {
		dev.Properties = delta.Properties.Clone()
		r.mu.Unlock()
		return nil
	}

	touched := dev.Properties.Merge(delta.Properties)
	if len(touched) == 0 {
		r.mu.Unlock()
		return nil
	}

	effective := make(Properties, 0, len(touched))
	for _, name := range touched {
		value, _ := dev.Properties.Get(name)
		effective = append(effective, Property{Name: name, Value: value})
	}

	snapshot := dev.DeepCopy()
	cb := r.callbacks.OnStatus
	r.mu.Unlock()

	if cb != nil {
		cb(*snapshot, StatusDelta{Properties: effective})
	}
	return nil
}

// FindByUUID returns a copy of the device with the given UUID.
func (r *Registry) FindByUUID(id string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dev, ok := r.byUUID[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return dev.DeepCopy(), nil
}

// FindControllable resolves an identifier to a controllable action.
//
// The identifier may be a UUID or a display name. The target must be an
// action whose model is in the permitted set; name lookups return the
// first match in registry order.
func (r *Registry) FindControllable(identifier string, models map[string]bool) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, err := uuid.Parse(identifier); err == nil {
		dev, ok := r.byUUID[identifier]
		if !ok {
			return nil, ErrDeviceNotFound
		}
		if dev.Type != TypeAction || !models[dev.Model] {
			return nil, ErrNotControllable
		}
		return dev.DeepCopy(), nil
	}

	for _, dev := range r.devices {
		if dev.Name == identifier && dev.Type == TypeAction && models[dev.Model] {
			return dev.DeepCopy(), nil
		}
	}
	return nil, ErrDeviceNotFound
}

// ListControllableUUIDs returns the UUIDs of all actions whose model is
// in the permitted set, in registry order.
func (r *Registry) ListControllableUUIDs(models map[string]bool) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for _, dev := range r.devices {
		if dev.Type == TypeAction && models[dev.Model] {
			ids = append(ids, dev.UUID)
		}
	}
	return ids
}

// All returns deep copies of every device in registry order.
func (r *Registry) All() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Device, 0, len(r.devices))
	for _, dev := range r.devices {
		out = append(out, *dev.DeepCopy())
	}
	return out
}

// Count returns the number of devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// SetHassEnabled toggles whether a device participates in discovery.
func (r *Registry) SetHassEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev, ok := r.byUUID[id]
	if !ok {
		return ErrDeviceNotFound
	}
	dev.HassEnabled = enabled
	return nil
}
