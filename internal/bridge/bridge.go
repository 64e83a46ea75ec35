package bridge

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/nerrad567/hobbybridge/internal/device"
	"github.com/nerrad567/hobbybridge/internal/hass"
	"github.com/nerrad567/hobbybridge/internal/hobby"
)

// Logger interface for bridge diagnostics.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any) {}
func (noopLogger) Info(msg string, args ...any)  {}
func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Error(msg string, args ...any) {}

// MQTTClient is what the bridge needs from the Home Assistant broker
// connection.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error
	IsConnected() bool
}

// HubController sends control envelopes to the hub. Satisfied by
// *hobby.Client.
type HubController interface {
	Control(uuid string, props device.Properties) error
}

// StatusSink receives every status-triggering device update after the
// registry merge. Sinks must not block; slow consumers buffer
// internally.
type StatusSink interface {
	RecordStatus(dev device.Device, delta device.Properties)
}

// OnlineSink receives online flag transitions. A StatusSink that also
// implements OnlineSink gets those through the same registration.
type OnlineSink interface {
	RecordOnline(dev device.Device, online bool)
}

// Config holds the bridge's tunables.
type Config struct {
	// Namespace is the discovery topic prefix.
	Namespace string

	// QoS for all generic-side publishes and subscriptions.
	QoS byte

	// SweepDelay is the inter-device delay during bulk sweeps.
	SweepDelay time.Duration

	// MarkOfflineOnHassStop publishes availability offline for every
	// device when Home Assistant announces shutdown. Off by default;
	// entities then keep their last availability across HA restarts.
	MarkOfflineOnHassStop bool
}

// Bridge routes device state from the hub to Home Assistant and
// commands the other way. All entry points are safe to call from either
// transport's callback goroutine.
type Bridge struct {
	cfg      Config
	registry *device.Registry
	hub      HubController
	hass     MQTTClient
	topics   hass.Topics

	// supported caches the model set eligible for translation.
	supported map[string]bool

	mu         sync.RWMutex
	hassOnline bool
	swVersion  string
	systemInfo json.RawMessage

	pacer  Pacer
	sinks  []StatusSink
	logger Logger
}

// New creates a bridge over an existing registry, hub controller and
// Home Assistant broker connection.
func New(cfg Config, registry *device.Registry, hub HubController, hassClient MQTTClient) *Bridge {
	return &Bridge{
		cfg:       cfg,
		registry:  registry,
		hub:       hub,
		hass:      hassClient,
		topics:    hass.NewTopics(cfg.Namespace),
		supported: hass.SupportedModels(),
		pacer:     NewFixedPacer(cfg.SweepDelay),
		logger:    noopLogger{},
	}
}

// SetLogger configures diagnostic logging. Pass nil to disable.
func (b *Bridge) SetLogger(logger Logger) {
	if logger == nil {
		b.logger = noopLogger{}
		return
	}
	b.logger = logger
}

// SetPacer replaces the sweep rate limiter. Tests use NopPacer.
func (b *Bridge) SetPacer(pacer Pacer) {
	if pacer == nil {
		pacer = NopPacer{}
	}
	b.pacer = pacer
}

// AddStatusSink registers a consumer of status updates. Call before
// Start.
func (b *Bridge) AddStatusSink(sink StatusSink) {
	b.sinks = append(b.sinks, sink)
}

// Start wires the registry callbacks and subscribes to the command
// wildcard and the Home Assistant status topic.
func (b *Bridge) Start() error {
	b.registry.SetCallbacks(device.Callbacks{
		OnAdded:   b.onDeviceAdded,
		OnRemoved: b.onDeviceRemoved,
		OnStatus:  b.onDeviceStatus,
		OnOnline:  b.onDeviceOnline,
	})

	if err := b.hass.Subscribe(b.topics.CommandWildcard(), b.cfg.QoS, b.handleCommand); err != nil {
		return err
	}
	return b.hass.Subscribe(b.topics.StatusTopic(), b.cfg.QoS, b.handleHassStatus)
}

// Topics exposes the topic scheme, mainly for the HTTP API.
func (b *Bridge) Topics() hass.Topics {
	return b.topics
}

// HubHandlers returns the callback set to register with the hub
// protocol client.
func (b *Bridge) HubHandlers() hobby.Handlers {
	return hobby.Handlers{
		OnSnapshot:      b.HandleSnapshot,
		OnDeviceAdded:   b.HandleDeviceAdded,
		OnDeviceRemoved: b.HandleDeviceRemoved,
		OnDeviceRenamed: b.HandleDeviceRenamed,
		OnDeviceChanged: b.HandleDeviceChanged,
		OnParamChanged:  b.HandleParamChanged,
		OnStatus:        b.HandleStatus,
		OnSystemInfo:    b.HandleSystemInfo,
		OnLocations: func(locations []hobby.Location) {
			b.logger.Info("location list received", "count", len(locations))
		},
		OnTime: func(info hobby.TimeInfo) {
			b.logger.Debug("controller time", "timezone", info.Timezone, "utc", info.UTCTime)
		},
		OnNotification: func(n hobby.Notification) {
			b.logger.Info("controller notification", "uuid", n.UUID, "type", n.Type, "text", n.Text)
		},
		OnError: func(err *hobby.APIError) {
			b.logger.Error("hub api error", "method", err.Method, "code", err.Code, "message", err.Message)
		},
	}
}

// =============================================================================
// Hub-side entry points (wired to hobby.Handlers)
// =============================================================================

// HandleSnapshot replaces the registry contents and, when Home
// Assistant is already online, runs a discovery sweep in the
// background.
func (b *Bridge) HandleSnapshot(devices []device.Device) {
	b.registry.ReplaceAll(devices)
	b.logger.Info("device snapshot applied", "count", len(devices))

	if b.HassOnline() {
		go b.DiscoverAll()
	}
}

// HandleStatus applies one device's status delta to the registry.
// Registry callbacks carry any publish side effects.
func (b *Bridge) HandleStatus(uuid string, delta device.StatusDelta) {
	if err := b.registry.ApplyStatus(uuid, delta); err != nil {
		b.logger.Debug("status for unknown device ignored", "uuid", uuid)
	}
}

// HandleDeviceAdded routes a devices.added event into the registry.
func (b *Bridge) HandleDeviceAdded(dev device.Device) {
	b.registry.ApplyAdded(dev)
}

// HandleDeviceRemoved routes a devices.removed event into the registry.
func (b *Bridge) HandleDeviceRemoved(uuids []string) {
	b.registry.ApplyRemoved(uuids)
}

// HandleDeviceRenamed applies a rename and refreshes the entity's
// discovery payload so the new name reaches Home Assistant.
func (b *Bridge) HandleDeviceRenamed(uuid, rawName string) {
	if err := b.registry.ApplyRenamed(uuid, rawName); err != nil {
		b.logger.Debug("rename for unknown device ignored", "uuid", uuid)
		return
	}
	if err := b.DiscoverDevice(uuid); err != nil && !errors.Is(err, device.ErrDeviceNotFound) {
		b.logger.Warn("discovery refresh after rename failed", "uuid", uuid, "error", err)
	}
}

// HandleDeviceChanged stores replacement property definitions.
func (b *Bridge) HandleDeviceChanged(uuid string, defs []json.RawMessage) {
	if err := b.registry.ApplyPropertyDefinitionsChanged(uuid, defs); err != nil {
		b.logger.Debug("definitions for unknown device ignored", "uuid", uuid)
	}
}

// HandleParamChanged stores a replacement parameter list.
func (b *Bridge) HandleParamChanged(uuid string, params device.Properties) {
	if err := b.registry.ApplyParametersChanged(uuid, params); err != nil {
		b.logger.Debug("parameters for unknown device ignored", "uuid", uuid)
	}
}

// HandleSystemInfo keeps the controller's system record and extracts
// the firmware version reported in discovery payloads.
func (b *Bridge) HandleSystemInfo(info json.RawMessage) {
	version := extractSWVersion(info)

	b.mu.Lock()
	b.systemInfo = info
	if version != "" {
		b.swVersion = version
	}
	b.mu.Unlock()

	b.logger.Info("controller system info updated", "sw_version", version)
}

// SystemInfo returns the last raw system record from the hub.
func (b *Bridge) SystemInfo() json.RawMessage {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.systemInfo
}

// =============================================================================
// Home Assistant side
// =============================================================================

// HassOnline reports whether Home Assistant last announced online.
func (b *Bridge) HassOnline() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.hassOnline
}

// handleHassStatus reacts to Home Assistant's birth and will messages.
func (b *Bridge) handleHassStatus(_ string, payload []byte) error {
	switch string(payload) {
	case "online":
		b.mu.Lock()
		b.hassOnline = true
		b.mu.Unlock()
		b.logger.Info("home assistant online, starting discovery sweep")
		go b.DiscoverAll()

	case "offline":
		b.mu.Lock()
		b.hassOnline = false
		b.mu.Unlock()
		b.logger.Info("home assistant offline")
		if b.cfg.MarkOfflineOnHassStop {
			go b.MarkAllUnavailable()
		}

	default:
		b.logger.Debug("unexpected status payload", "payload", string(payload))
	}
	return nil
}

// handleCommand decodes an inbound set-topic payload and forwards it as
// a single hub control envelope. Unknown devices and undecodable
// payloads are logged and dropped.
func (b *Bridge) handleCommand(topic string, payload []byte) error {
	_, uuid, ok := b.topics.ParseCommandTopic(topic)
	if !ok {
		b.logger.Debug("command on unrecognized topic", "topic", topic)
		return nil
	}

	dev, err := b.registry.FindByUUID(uuid)
	if err != nil {
		b.logger.Warn("command for unknown device", "uuid", uuid)
		return nil
	}

	adapter := hass.AdapterForModel(dev.Model)
	if adapter == nil {
		b.logger.Warn("command for unsupported model", "uuid", uuid, "model", dev.Model)
		return nil
	}

	writes, ok := adapter.Command(payload)
	if !ok {
		b.logger.Debug("command payload decoded to no-op", "uuid", uuid, "payload", string(payload))
		return nil
	}

	if err := b.hub.Control(uuid, writes); err != nil {
		b.logger.Error("hub control failed", "uuid", uuid, "error", err)
	}
	return nil
}

// =============================================================================
// Registry callbacks
// =============================================================================

func (b *Bridge) onDeviceAdded(dev device.Device) {
	if !b.translatable(dev) {
		return
	}
	b.publishEntity(dev)
}

func (b *Bridge) onDeviceRemoved(uuid, model string) {
	if err := b.Retract(uuid, model); err != nil {
		b.logger.Warn("discovery retraction failed", "uuid", uuid, "error", err)
	}
}

func (b *Bridge) onDeviceStatus(dev device.Device, delta device.StatusDelta) {
	for _, sink := range b.sinks {
		sink.RecordStatus(dev, delta.Properties)
	}
	if !b.translatable(dev) {
		return
	}
	b.publishState(dev, delta.Properties)
}

// onDeviceOnline fans an online flag transition out to the sinks that
// record it. Entity availability stays as published; it refreshes on
// the next sweep.
func (b *Bridge) onDeviceOnline(dev device.Device, online bool) {
	for _, sink := range b.sinks {
		if os, ok := sink.(OnlineSink); ok {
			os.RecordOnline(dev, online)
		}
	}
}

// translatable reports whether a device should surface as an entity.
func (b *Bridge) translatable(dev device.Device) bool {
	if dev.Type != device.TypeAction || !dev.HassEnabled {
		return false
	}
	if !b.supported[dev.Model] {
		b.logger.Debug("model not translated", "uuid", dev.UUID, "model", dev.Model)
		return false
	}
	return true
}

// =============================================================================
// Sweeps and publishes
// =============================================================================

// DiscoverAll publishes discovery, state and availability for every
// translatable device, paced by the configured delay.
func (b *Bridge) DiscoverAll() {
	uuids := b.registry.ListControllableUUIDs(b.supported)
	b.logger.Info("discovery sweep", "devices", len(uuids))

	for i, uuid := range uuids {
		if i > 0 {
			b.pacer.Pace()
		}
		if err := b.DiscoverDevice(uuid); err != nil {
			b.logger.Warn("discovery publish failed", "uuid", uuid, "error", err)
		}
	}
}

// DiscoverDevice publishes discovery, current state and availability
// for a single device.
func (b *Bridge) DiscoverDevice(uuid string) error {
	dev, err := b.registry.FindByUUID(uuid)
	if err != nil {
		return err
	}
	if !b.translatable(*dev) {
		return nil
	}
	return b.publishEntity(*dev)
}

func (b *Bridge) publishEntity(dev device.Device) error {
	adapter := hass.AdapterForModel(dev.Model)
	if adapter == nil {
		return nil
	}

	meta := hass.DiscoveryMeta{Topics: b.topics, SWVersion: b.sw()}
	config, err := adapter.Discovery(dev, meta)
	if err != nil {
		return err
	}

	category := adapter.Category()
	if err := b.hass.Publish(b.topics.Config(category, dev.UUID), config, b.cfg.QoS, false); err != nil {
		return err
	}

	if state, ok := adapter.State(dev, nil); ok {
		if err := b.hass.Publish(b.topics.State(category, dev.UUID), state, b.cfg.QoS, false); err != nil {
			return err
		}
	}

	return b.publishAvailability(category, dev.UUID, dev.Online)
}

func (b *Bridge) publishState(dev device.Device, delta device.Properties) {
	adapter := hass.AdapterForModel(dev.Model)
	if adapter == nil {
		return
	}
	state, ok := adapter.State(dev, delta)
	if !ok {
		return
	}
	topic := b.topics.State(adapter.Category(), dev.UUID)
	if err := b.hass.Publish(topic, state, b.cfg.QoS, false); err != nil {
		b.logger.Error("state publish failed", "uuid", dev.UUID, "error", err)
	}
}

// Retract removes a device's entity by publishing an empty payload to
// its discovery config topic.
func (b *Bridge) Retract(uuid, model string) error {
	category := hass.CategoryForModel(model)
	if category == hass.CategoryUnsupported {
		return nil
	}
	b.logger.Info("retracting entity", "uuid", uuid, "model", model)
	return b.hass.Publish(b.topics.Config(category, uuid), []byte{}, b.cfg.QoS, false)
}

// RetractAll removes every translatable entity, paced like a discovery
// sweep.
func (b *Bridge) RetractAll() {
	retracted := 0
	for _, dev := range b.registry.All() {
		if !b.supported[dev.Model] || dev.Type != device.TypeAction {
			continue
		}
		if retracted > 0 {
			b.pacer.Pace()
		}
		retracted++
		if err := b.Retract(dev.UUID, dev.Model); err != nil {
			b.logger.Warn("retraction failed", "uuid", dev.UUID, "error", err)
		}
	}
	b.logger.Info("retraction sweep", "devices", retracted)
}

// MarkAllUnavailable publishes availability offline for every
// translatable device.
func (b *Bridge) MarkAllUnavailable() {
	uuids := b.registry.ListControllableUUIDs(b.supported)
	for i, uuid := range uuids {
		if i > 0 {
			b.pacer.Pace()
		}
		dev, err := b.registry.FindByUUID(uuid)
		if err != nil {
			continue
		}
		category := hass.CategoryForModel(dev.Model)
		if err := b.publishAvailabilityState(category, uuid, false); err != nil {
			b.logger.Warn("availability publish failed", "uuid", uuid, "error", err)
		}
	}
}

func (b *Bridge) publishAvailability(category hass.Category, uuid string, online bool) error {
	return b.publishAvailabilityState(category, uuid, online)
}

func (b *Bridge) publishAvailabilityState(category hass.Category, uuid string, online bool) error {
	payload := "offline"
	if online {
		payload = "online"
	}
	return b.hass.Publish(b.topics.Available(category, uuid), []byte(payload), b.cfg.QoS, true)
}

func (b *Bridge) sw() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.swVersion
}

// extractSWVersion pulls the NHC firmware version out of a raw
// SystemInfo record. The record nests single-key maps the same way
// device properties do.
func extractSWVersion(info json.RawMessage) string {
	var record struct {
		SWVersions []map[string]string `json:"SWversions"`
	}
	if err := json.Unmarshal(info, &record); err != nil {
		return ""
	}
	for _, entry := range record.SWVersions {
		if v, ok := entry["NhcVersion"]; ok {
			return v
		}
	}
	return ""
}
