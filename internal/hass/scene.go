package hass

import (
	"encoding/json"
	"strings"

	"github.com/nerrad567/hobbybridge/internal/device"
	"github.com/nerrad567/hobbybridge/internal/hobby"
)

// sceneAdapter exposes moods and motion events as momentary trigger
// switches. There is no real off state: turning the entity "on" fires
// the scene; "off" is a display state only.
type sceneAdapter struct{}

type sceneDiscoveryPayload struct {
	DiscoveryPayload
	PayloadOn  string `json:"payload_on"`
	PayloadOff string `json:"payload_off"`
	StateOn    string `json:"state_on"`
	StateOff   string `json:"state_off"`
	Icon       string `json:"icon"`
}

func (sceneAdapter) Category() Category { return CategorySceneSwitch }

func (sceneAdapter) Discovery(dev device.Device, meta DiscoveryMeta) ([]byte, error) {
	return json.Marshal(sceneDiscoveryPayload{
		DiscoveryPayload: basePayload(dev, CategorySceneSwitch, meta),
		PayloadOn:        "Triggered",
		PayloadOff:       "NA",
		StateOn:          "ON",
		StateOff:         "OFF",
		Icon:             sceneIconForModel(dev.Model),
	})
}

// State reports ON while the scene's BasicState is On or Triggered,
// OFF otherwise.
func (sceneAdapter) State(dev device.Device, delta device.Properties) ([]byte, bool) {
	if delta != nil && !delta.Has(hobby.PropBasicState) {
		return nil, false
	}

	basic, ok := dev.Properties.Get(hobby.PropBasicState)
	if !ok {
		return nil, false
	}

	switch strings.ToUpper(basic) {
	case "ON", "TRIGGERED":
		return []byte("ON"), true
	default:
		return []byte("OFF"), true
	}
}

// Command accepts only the Triggered token and always targets
// BasicState, never Status. The payload_off token "NA" and everything
// else decode to no-op.
func (sceneAdapter) Command(payload []byte) (device.Properties, bool) {
	token := capitalize(strings.TrimSpace(string(payload)))
	if token != "Triggered" {
		return nil, false
	}
	return hobby.MoodWrite(), true
}
