package hobby

import (
	"encoding/json"
	"strings"

	"github.com/nerrad567/hobbybridge/internal/device"
)

// Hobby API method names.
const (
	MethodDevicesList         = "devices.list"
	MethodDevicesControl      = "devices.control"
	MethodDevicesStatus       = "devices.status"
	MethodDevicesAdded        = "devices.added"
	MethodDevicesRemoved      = "devices.removed"
	MethodDevicesChanged      = "devices.changed"
	MethodDevicesParamChanged = "devices.param_changed"
	MethodDevicesRenamed      = "devices.displayname_changed"
	MethodLocationsList       = "locations.list"
	MethodSystemInfo          = "systeminfo.publish"
	MethodSystemInfoPublished = "systeminfo.published"
	MethodTimePublished       = "time.published"
	MethodNotificationsList   = "notifications.list"
	MethodNotificationsUpdate = "notifications.update"
	MethodNotificationsRaised = "notifications.raised"
)

// Frame is the outer envelope of every Hobby API message.
type Frame struct {
	Method string       `json:"Method"`
	Params []FrameParam `json:"Params,omitempty"`

	// Error fields, present only on err-topic frames.
	ErrCode    string `json:"ErrCode,omitempty"`
	ErrMessage string `json:"ErrMessage,omitempty"`
}

// FrameParam is one entry of a frame's Params array. The controller
// multiplexes several payload shapes through it; unused fields stay nil.
type FrameParam struct {
	Devices       []WireDevice      `json:"Devices,omitempty"`
	Locations     []Location        `json:"Locations,omitempty"`
	Notifications []Notification    `json:"Notifications,omitempty"`
	TimeInfo      []TimeInfo        `json:"TimeInfo,omitempty"`
	SystemInfo    []json.RawMessage `json:"SystemInfo,omitempty"`
}

// WireDevice is a device record as the controller transmits it.
//
// Event frames reuse the shape with most fields absent: a status delta
// carries only Uuid plus Properties and/or Online, a rename only Uuid
// and DisplayName.
type WireDevice struct {
	UUID        string `json:"Uuid"`
	Name        string `json:"Name,omitempty"`
	DisplayName string `json:"DisplayName,omitempty"`
	Model       string `json:"Model,omitempty"`
	Type        string `json:"Type,omitempty"`
	Online      string `json:"Online,omitempty"`

	Properties          device.Properties `json:"Properties,omitempty"`
	Parameters          device.Properties `json:"Parameters,omitempty"`
	Traits              device.Properties `json:"Traits,omitempty"`
	PropertyDefinitions []json.RawMessage `json:"PropertyDefinitions,omitempty"`
}

// ToDevice converts a full wire record into a registry device.
// Records without an Online field (moods, virtual actions) are treated
// as always online.
func (w WireDevice) ToDevice() device.Device {
	return device.Device{
		UUID:                w.UUID,
		Name:                w.Name,
		Model:               w.Model,
		Type:                w.Type,
		Online:              w.Online == "" || strings.EqualFold(w.Online, "True"),
		Properties:          w.Properties.Clone(),
		Parameters:          w.Parameters.Clone(),
		Traits:              w.Traits.Clone(),
		PropertyDefinitions: w.PropertyDefinitions,
	}
}

// StatusDelta extracts the status-event payload of a wire record.
// An Online field takes precedence and yields an online-only delta.
func (w WireDevice) StatusDelta() device.StatusDelta {
	if w.Online != "" {
		online := strings.EqualFold(w.Online, "True")
		return device.StatusDelta{Online: &online}
	}
	return device.StatusDelta{Properties: w.Properties.Clone()}
}

// Location is one entry of a locations.list response.
type Location struct {
	UUID string `json:"Uuid"`
	Name string `json:"Name"`
}

// Notification is one entry of a notification frame.
type Notification struct {
	UUID         string `json:"Uuid"`
	Text         string `json:"Text,omitempty"`
	Status       string `json:"Status,omitempty"`
	Type         string `json:"Type,omitempty"`
	TimeOccurred string `json:"TimeOccurred,omitempty"`
}

// TimeInfo is the payload of a time.published event.
type TimeInfo struct {
	GMTOffset string `json:"GMTOffset"`
	Timezone  string `json:"Timezone"`
	UTCTime   string `json:"UTCTime"`
}

// APIError describes an error frame received on an err topic.
type APIError struct {
	Method  string
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return "hobby: " + e.Method + ": " + e.Message + " (" + e.Code + ")"
}

// newMethodFrame encodes a parameterless request.
func newMethodFrame(method string) []byte {
	data, _ := json.Marshal(Frame{Method: method})
	return data
}

// controlProperty is a single property write inside a control envelope.
type controlProperty map[string]string

// controlEnvelope builds a devices.control frame writing one or two
// properties on a single device. The controller expects every write in
// one envelope; splitting a paired write (status plus brightness) into
// two frames makes the device flicker.
func controlEnvelope(uuid string, props device.Properties) []byte {
	writes := make([]controlProperty, 0, len(props))
	for _, p := range props {
		writes = append(writes, controlProperty{p.Name: p.Value})
	}

	frame := map[string]any{
		"Method": MethodDevicesControl,
		"Params": []map[string]any{{
			"Devices": []map[string]any{{
				"Uuid":       uuid,
				"Properties": writes,
			}},
		}},
	}

	data, _ := json.Marshal(frame)
	return data
}

// notificationsUpdateFrame sets a notification's status, normally "read".
// Unlike other frames the update parameters sit directly in Params.
func notificationsUpdateFrame(uuid, status string) []byte {
	frame := map[string]any{
		"Method": MethodNotificationsUpdate,
		"Params": []map[string]string{{
			"Uuid":   uuid,
			"Status": status,
		}},
	}
	data, _ := json.Marshal(frame)
	return data
}
