package hass

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/nerrad567/hobbybridge/internal/device"
	"github.com/nerrad567/hobbybridge/internal/hobby"
)

// lightAdapter serves lights and dimmers. State payloads follow the
// discovery convention's JSON schema; brightness travels on a 0-255
// scale while the hub stores 0-100.
type lightAdapter struct{}

type lightDiscoveryPayload struct {
	DiscoveryPayload
	Schema     string `json:"schema"`
	Brightness bool   `json:"brightness"`
}

type lightStatePayload struct {
	State      string `json:"state"`
	Brightness *int   `json:"brightness,omitempty"`
}

func (lightAdapter) Category() Category { return CategoryLight }

func (lightAdapter) Discovery(dev device.Device, meta DiscoveryMeta) ([]byte, error) {
	return json.Marshal(lightDiscoveryPayload{
		DiscoveryPayload: basePayload(dev, CategoryLight, meta),
		Schema:           "json",
		Brightness:       dev.Model == "dimmer",
	})
}

// State publishes only when the update touched Status or Brightness,
// but the payload is built from the device's full property set so a
// brightness-only delta still carries the current state token.
func (lightAdapter) State(dev device.Device, delta device.Properties) ([]byte, bool) {
	if delta != nil && !delta.Has(hobby.PropStatus) && !delta.Has(hobby.PropBrightness) {
		return nil, false
	}

	status, ok := dev.Properties.Get(hobby.PropStatus)
	if !ok {
		return nil, false
	}

	payload := lightStatePayload{State: strings.ToUpper(status)}
	if raw, ok := dev.Properties.Get(hobby.PropBrightness); ok {
		if b100, err := strconv.Atoi(raw); err == nil {
			b255 := brightnessTo255(b100)
			payload.Brightness = &b255
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Command decodes a JSON {state, brightness?} payload. A missing or
// non-numeric brightness means no brightness change, not an error.
func (lightAdapter) Command(payload []byte) (device.Properties, bool) {
	var frame struct {
		State      string          `json:"state"`
		Brightness json.RawMessage `json:"brightness"`
	}
	if err := json.Unmarshal(payload, &frame); err != nil || frame.State == "" {
		return nil, false
	}

	status := capitalize(frame.State)
	if status != "On" && status != "Off" {
		return nil, false
	}

	writes := device.Properties{{Name: hobby.PropStatus, Value: status}}

	if len(frame.Brightness) > 0 {
		var b255 float64
		if err := json.Unmarshal(frame.Brightness, &b255); err == nil {
			writes = append(writes, device.Property{
				Name:  hobby.PropBrightness,
				Value: strconv.Itoa(brightnessTo100(b255)),
			})
		}
	}

	return writes, true
}

// brightnessTo255 scales a hub 0-100 value to the convention's 0-255.
func brightnessTo255(b100 int) int {
	return int(math.Round(float64(b100) * 2.55))
}

// brightnessTo100 scales a 0-255 value back to the hub's 0-100.
func brightnessTo100(b255 float64) int {
	return int(math.Round(b255 / 2.55))
}

// capitalize upper-cases the first rune and lower-cases the rest,
// matching the hub's token casing (On, Off, Open, Stop).
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
