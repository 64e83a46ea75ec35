package hobby

import (
	"encoding/json"
	"fmt"

	"github.com/nerrad567/hobbybridge/internal/device"
)

// MQTTClient is the transport the client needs from the hub connection.
// Satisfied by the mqtt infrastructure client through a thin adapter.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error

	// IsConnected returns true if connected to the controller.
	IsConnected() bool
}

// Logger interface for client diagnostics.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any) {}
func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Error(msg string, args ...any) {}

// Handlers receive decoded frames. Nil entries are skipped. Handlers are
// invoked from the MQTT receive goroutine and must not block.
type Handlers struct {
	// OnSnapshot delivers the full device list from a devices.list
	// response.
	OnSnapshot func(devices []device.Device)

	// OnDeviceAdded delivers each record of a devices.added event.
	OnDeviceAdded func(dev device.Device)

	// OnDeviceRemoved delivers the UUIDs of a devices.removed event.
	OnDeviceRemoved func(uuids []string)

	// OnDeviceRenamed delivers a devices.displayname_changed event.
	// The name is raw and may still carry '#' trait segments.
	OnDeviceRenamed func(uuid, rawName string)

	// OnDeviceChanged delivers replacement property definitions.
	OnDeviceChanged func(uuid string, defs []json.RawMessage)

	// OnParamChanged delivers a replacement parameter list.
	OnParamChanged func(uuid string, params device.Properties)

	// OnStatus delivers one device's entry of a devices.status event.
	OnStatus func(uuid string, delta device.StatusDelta)

	// OnLocations delivers a locations.list response.
	OnLocations func(locations []Location)

	// OnSystemInfo delivers the raw SystemInfo record from a system
	// response or systeminfo.published event.
	OnSystemInfo func(info json.RawMessage)

	// OnTime delivers a time.published event.
	OnTime func(info TimeInfo)

	// OnNotification delivers each notification from a list response or
	// a notifications.raised event.
	OnNotification func(n Notification)

	// OnError delivers error frames from any err topic.
	OnError func(err *APIError)
}

// Client speaks the Hobby API over an established MQTT connection.
//
// Start subscribes to every response and event topic and requests the
// initial snapshot. Incoming frames are decoded and dispatched to the
// registered handlers; malformed frames are logged and dropped so one
// bad payload cannot stall the event stream.
type Client struct {
	mqtt     MQTTClient
	qos      byte
	handlers Handlers
	logger   Logger
}

// NewClient creates a Hobby API client over the given transport.
func NewClient(mqtt MQTTClient, qos byte, handlers Handlers) *Client {
	return &Client{
		mqtt:     mqtt,
		qos:      qos,
		handlers: handlers,
		logger:   noopLogger{},
	}
}

// SetLogger configures diagnostic logging. Pass nil to disable.
func (c *Client) SetLogger(logger Logger) {
	if logger == nil {
		c.logger = noopLogger{}
		return
	}
	c.logger = logger
}

// Start subscribes to all Hobby API topics and requests the initial
// snapshot: system info, the device list and the location list.
//
// Call it again after a reconnect to refresh the snapshot; the
// underlying transport restores the subscriptions itself.
func (c *Client) Start() error {
	for _, topic := range subscribeTopics {
		if err := c.mqtt.Subscribe(topic, c.qos, c.dispatch); err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}

	if err := c.RequestSystemInfo(); err != nil {
		return err
	}
	if err := c.RequestDeviceList(); err != nil {
		return err
	}
	return c.RequestLocations()
}

// RequestDeviceList asks the controller for the full device snapshot.
// The response arrives asynchronously via OnSnapshot.
func (c *Client) RequestDeviceList() error {
	return c.publish(TopicDevicesCmd, newMethodFrame(MethodDevicesList))
}

// RequestLocations asks for the location list (OnLocations).
func (c *Client) RequestLocations() error {
	return c.publish(TopicLocationsCmd, newMethodFrame(MethodLocationsList))
}

// RequestSystemInfo asks for controller system info (OnSystemInfo).
func (c *Client) RequestSystemInfo() error {
	return c.publish(TopicSystemCmd, newMethodFrame(MethodSystemInfo))
}

// RequestNotifications asks for the pending notification list.
func (c *Client) RequestNotifications() error {
	return c.publish(TopicNotificationCmd, newMethodFrame(MethodNotificationsList))
}

// MarkNotificationRead sets a notification's status to read.
func (c *Client) MarkNotificationRead(uuid string) error {
	return c.publish(TopicNotificationCmd, notificationsUpdateFrame(uuid, "read"))
}

// Control writes one or two properties on a device in a single
// devices.control envelope.
func (c *Client) Control(uuid string, props device.Properties) error {
	if len(props) == 0 {
		return fmt.Errorf("%w: empty property write", ErrInvalidValue)
	}
	return c.publish(TopicDevicesCmd, controlEnvelope(uuid, props))
}

func (c *Client) publish(topic string, payload []byte) error {
	if !c.mqtt.IsConnected() {
		return ErrNotConnected
	}
	return c.mqtt.Publish(topic, payload, c.qos, false)
}

// dispatch routes an incoming frame by topic and method.
func (c *Client) dispatch(topic string, payload []byte) error {
	var frame Frame
	if err := json.Unmarshal(payload, &frame); err != nil {
		c.logger.Warn("dropping malformed frame", "topic", topic, "error", err)
		return nil
	}

	switch topic {
	case TopicDevicesRsp, TopicDevicesEvt:
		c.dispatchDevices(frame)
	case TopicLocationsRsp:
		c.dispatchLocations(frame)
	case TopicSystemRsp, TopicSystemEvt, TopicTimeRsp:
		c.dispatchSystem(frame)
	case TopicNotificationRsp, TopicNotificationEvt:
		c.dispatchNotifications(frame)
	case TopicDevicesErr, TopicLocationErr, TopicSystemErr, TopicNotificationErr:
		c.dispatchError(frame)
	default:
		c.logger.Debug("frame on unexpected topic", "topic", topic)
	}
	return nil
}

func (c *Client) dispatchDevices(frame Frame) {
	switch frame.Method {
	case MethodDevicesList:
		if c.handlers.OnSnapshot == nil || len(frame.Params) == 0 {
			return
		}
		wire := frame.Params[0].Devices
		devices := make([]device.Device, 0, len(wire))
		for _, w := range wire {
			devices = append(devices, w.ToDevice())
		}
		c.handlers.OnSnapshot(devices)

	case MethodDevicesStatus:
		if c.handlers.OnStatus == nil {
			return
		}
		for _, w := range c.eventDevices(frame) {
			c.handlers.OnStatus(w.UUID, w.StatusDelta())
		}

	case MethodDevicesAdded:
		if c.handlers.OnDeviceAdded == nil {
			return
		}
		for _, w := range c.eventDevices(frame) {
			c.handlers.OnDeviceAdded(w.ToDevice())
		}

	case MethodDevicesRemoved:
		if c.handlers.OnDeviceRemoved == nil {
			return
		}
		wire := c.eventDevices(frame)
		uuids := make([]string, 0, len(wire))
		for _, w := range wire {
			uuids = append(uuids, w.UUID)
		}
		if len(uuids) > 0 {
			c.handlers.OnDeviceRemoved(uuids)
		}

	case MethodDevicesRenamed:
		if c.handlers.OnDeviceRenamed == nil {
			return
		}
		for _, w := range c.eventDevices(frame) {
			c.handlers.OnDeviceRenamed(w.UUID, w.DisplayName)
		}

	case MethodDevicesChanged:
		if c.handlers.OnDeviceChanged == nil {
			return
		}
		for _, w := range c.eventDevices(frame) {
			c.handlers.OnDeviceChanged(w.UUID, w.PropertyDefinitions)
		}

	case MethodDevicesParamChanged:
		if c.handlers.OnParamChanged == nil {
			return
		}
		for _, w := range c.eventDevices(frame) {
			c.handlers.OnParamChanged(w.UUID, w.Parameters)
		}

	case MethodDevicesControl:
		// Command echo, nothing to do.

	default:
		c.logger.Debug("unknown devices method", "method", frame.Method)
	}
}

// eventDevices flattens the device records of every params entry.
func (c *Client) eventDevices(frame Frame) []WireDevice {
	var out []WireDevice
	for _, param := range frame.Params {
		out = append(out, param.Devices...)
	}
	return out
}

func (c *Client) dispatchLocations(frame Frame) {
	if frame.Method != MethodLocationsList || c.handlers.OnLocations == nil {
		return
	}
	if len(frame.Params) == 0 {
		return
	}
	c.handlers.OnLocations(frame.Params[0].Locations)
}

func (c *Client) dispatchSystem(frame Frame) {
	switch frame.Method {
	case MethodTimePublished:
		if c.handlers.OnTime == nil || len(frame.Params) == 0 || len(frame.Params[0].TimeInfo) == 0 {
			return
		}
		c.handlers.OnTime(frame.Params[0].TimeInfo[0])

	case MethodSystemInfo, MethodSystemInfoPublished:
		if c.handlers.OnSystemInfo == nil || len(frame.Params) == 0 || len(frame.Params[0].SystemInfo) == 0 {
			return
		}
		c.handlers.OnSystemInfo(frame.Params[0].SystemInfo[0])

	default:
		c.logger.Debug("unknown system method", "method", frame.Method)
	}
}

func (c *Client) dispatchNotifications(frame Frame) {
	if c.handlers.OnNotification == nil {
		return
	}
	switch frame.Method {
	case MethodNotificationsList, MethodNotificationsRaised:
		for _, param := range frame.Params {
			for _, n := range param.Notifications {
				c.handlers.OnNotification(n)
			}
		}
	case MethodNotificationsUpdate:
		// Acknowledgment of our own update.
	default:
		c.logger.Debug("unknown notification method", "method", frame.Method)
	}
}

func (c *Client) dispatchError(frame Frame) {
	apiErr := &APIError{
		Method:  frame.Method,
		Code:    frame.ErrCode,
		Message: frame.ErrMessage,
	}
	c.logger.Error("controller error frame", "method", apiErr.Method, "code", apiErr.Code, "message", apiErr.Message)
	if c.handlers.OnError != nil {
		c.handlers.OnError(apiErr)
	}
}
