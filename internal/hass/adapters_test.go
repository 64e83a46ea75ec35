package hass

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/hobbybridge/internal/device"
)

func testMeta() DiscoveryMeta {
	return DiscoveryMeta{
		Topics:    NewTopics("homeassistant"),
		SWVersion: "2.14.1",
	}
}

func dimmerDevice() device.Device {
	return device.Device{
		UUID:  "u1",
		Name:  "Living Dimmer",
		Model: "dimmer",
		Type:  "action",
		Properties: device.Properties{
			{Name: "Status", Value: "Off"},
			{Name: "Brightness", Value: "50"},
		},
		Parameters: device.Properties{
			{Name: "LocationName", Value: "Living Room"},
		},
	}
}

func TestLightDiscovery(t *testing.T) {
	data, err := lightAdapter{}.Discovery(dimmerDevice(), testMeta())
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(data, &payload))

	assert.Equal(t, "Living Dimmer Living Room", payload["name"])
	assert.Equal(t, "u1", payload["unique_id"])
	assert.Equal(t, "homeassistant/light/u1", payload["~"])
	assert.Equal(t, "~/set", payload["command_topic"])
	assert.Equal(t, "~/state", payload["state_topic"])
	assert.Equal(t, "~/available", payload["availability_topic"])
	assert.Equal(t, "json", payload["schema"])
	assert.Equal(t, true, payload["brightness"])

	dev, ok := payload["device"].(map[string]any)
	require.True(t, ok, "device block missing")
	assert.Equal(t, "Niko", dev["manufacturer"])
	assert.Equal(t, "dimmer", dev["model"])
	assert.Equal(t, "2.14.1", dev["sw_version"])

	// Non-dimmable lights advertise no brightness support.
	plain := dimmerDevice()
	plain.Model = "light"
	data, err = lightAdapter{}.Discovery(plain, testMeta())
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, false, payload["brightness"])
}

func TestLightState(t *testing.T) {
	dev := dimmerDevice()
	dev.Properties.Set("Status", "on")

	// Delta touching Status publishes the full payload.
	data, ok := lightAdapter{}.State(dev, device.Properties{{Name: "Status", Value: "on"}})
	require.True(t, ok)
	assert.JSONEq(t, `{"state":"ON","brightness":128}`, string(data))

	// Delta not touching Status or Brightness publishes nothing.
	_, ok = lightAdapter{}.State(dev, device.Properties{{Name: "Aligned", Value: "True"}})
	assert.False(t, ok)

	// Nil delta is a sweep publish.
	data, ok = lightAdapter{}.State(dev, nil)
	require.True(t, ok)
	assert.JSONEq(t, `{"state":"ON","brightness":128}`, string(data))

	// No brightness property: field omitted.
	plain := device.Device{
		Properties: device.Properties{{Name: "Status", Value: "Off"}},
	}
	data, ok = lightAdapter{}.State(plain, nil)
	require.True(t, ok)
	assert.JSONEq(t, `{"state":"OFF"}`, string(data))
}

func TestLightCommand(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    device.Properties
		wantOK  bool
	}{
		{
			name:    "state only",
			payload: `{"state":"ON"}`,
			want:    device.Properties{{Name: "Status", Value: "On"}},
			wantOK:  true,
		},
		{
			name:    "state and brightness",
			payload: `{"state":"ON","brightness":128}`,
			want: device.Properties{
				{Name: "Status", Value: "On"},
				{Name: "Brightness", Value: "50"},
			},
			wantOK: true,
		},
		{
			name:    "non-numeric brightness means no brightness change",
			payload: `{"state":"OFF","brightness":"dim"}`,
			want:    device.Properties{{Name: "Status", Value: "Off"}},
			wantOK:  true,
		},
		{
			name:    "missing state",
			payload: `{"brightness":128}`,
			wantOK:  false,
		},
		{
			name:    "unknown token",
			payload: `{"state":"toggle"}`,
			wantOK:  false,
		},
		{
			name:    "not json",
			payload: `ON`,
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := lightAdapter{}.Command([]byte(tt.payload))
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestBrightnessRoundTrip(t *testing.T) {
	// Scaling through 0-255 and back may drift by at most one step.
	for b100 := 0; b100 <= 100; b100++ {
		back := brightnessTo100(float64(brightnessTo255(b100)))
		diff := back - b100
		if diff < 0 {
			diff = -diff
		}
		assert.LessOrEqual(t, diff, 1, "b100=%d round-tripped to %d", b100, back)
	}
}

func TestSwitchState(t *testing.T) {
	dev := device.Device{
		Properties: device.Properties{{Name: "Status", Value: "on"}},
	}
	data, ok := switchAdapter{}.State(dev, nil)
	require.True(t, ok)
	assert.Equal(t, "ON", string(data))

	// BasicState fallback.
	dev = device.Device{
		Properties: device.Properties{{Name: "BasicState", Value: "Off"}},
	}
	data, ok = switchAdapter{}.State(dev, nil)
	require.True(t, ok)
	assert.Equal(t, "OFF", string(data))

	// No usable property.
	_, ok = switchAdapter{}.State(device.Device{}, nil)
	assert.False(t, ok)
}

func TestSwitchCommand(t *testing.T) {
	tests := []struct {
		payload string
		want    device.Properties
		wantOK  bool
	}{
		{payload: "ON", want: device.Properties{{Name: "Status", Value: "On"}}, wantOK: true},
		{payload: "off", want: device.Properties{{Name: "Status", Value: "Off"}}, wantOK: true},
		{payload: "1", want: device.Properties{{Name: "Status", Value: "On"}}, wantOK: true},
		{payload: "0", want: device.Properties{{Name: "Status", Value: "Off"}}, wantOK: true},
		{payload: "Triggered", want: device.Properties{{Name: "BasicState", Value: "Triggered"}}, wantOK: true},
		{payload: "toggle", wantOK: false},
		{payload: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("payload=%q", tt.payload), func(t *testing.T) {
			got, ok := switchAdapter{}.Command([]byte(tt.payload))
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSceneDiscovery(t *testing.T) {
	dev := device.Device{
		UUID:  "u9",
		Name:  "Movie Night",
		Model: "comfort",
		Type:  "action",
	}
	data, err := sceneAdapter{}.Discovery(dev, testMeta())
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(data, &payload))

	assert.Equal(t, "Triggered", payload["payload_on"])
	assert.Equal(t, "NA", payload["payload_off"])
	assert.Equal(t, "ON", payload["state_on"])
	assert.Equal(t, "OFF", payload["state_off"])
	assert.Equal(t, "mdi:sofa", payload["icon"])
	// Scene switches live under the switch component.
	assert.Equal(t, "homeassistant/switch/u9", payload["~"])
}

func TestSceneCommand(t *testing.T) {
	// Triggered always targets BasicState, never Status.
	got, ok := sceneAdapter{}.Command([]byte("Triggered"))
	require.True(t, ok)
	assert.Equal(t, device.Properties{{Name: "BasicState", Value: "Triggered"}}, got)

	for _, payload := range []string{"NA", "On", "Off", "1", ""} {
		_, ok := sceneAdapter{}.Command([]byte(payload))
		assert.False(t, ok, "payload %q must decode to no-op", payload)
	}
}

func TestSceneState(t *testing.T) {
	dev := device.Device{
		Properties: device.Properties{{Name: "BasicState", Value: "Triggered"}},
	}
	data, ok := sceneAdapter{}.State(dev, nil)
	require.True(t, ok)
	assert.Equal(t, "ON", string(data))

	dev.Properties.Set("BasicState", "Off")
	data, ok = sceneAdapter{}.State(dev, nil)
	require.True(t, ok)
	assert.Equal(t, "OFF", string(data))
}

func coverDevice(action, moving, position string) device.Device {
	return device.Device{
		UUID:  "u5",
		Model: "rolldownshutter",
		Properties: device.Properties{
			{Name: "Action", Value: action},
			{Name: "Moving", Value: moving},
			{Name: "Position", Value: position},
		},
	}
}

func TestCoverState(t *testing.T) {
	tests := []struct {
		name     string
		action   string
		moving   string
		position string
		want     string
		wantOK   bool
	}{
		{"moving away from open", "Open", "True", "50", "CLOSING", true},
		{"moving at position 100", "", "True", "100", "CLOSING", true},
		{"moving away from close", "Close", "True", "50", "OPENING", true},
		{"moving at position 0", "", "True", "0", "OPENING", true},
		{"resting closed", "Stop", "False", "0", "CLOSE", true},
		{"resting open", "Stop", "False", "100", "OPEN", true},
		{"resting mid-travel", "Stop", "False", "47", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := coverDevice(tt.action, tt.moving, tt.position)
			data, ok := coverAdapter{}.State(dev, nil)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, string(data))
			}
		})
	}
}

func TestCoverDiscovery(t *testing.T) {
	dev := coverDevice("Stop", "False", "0")
	dev.Model = "venetianblind"
	data, err := coverAdapter{}.Discovery(dev, testMeta())
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "blind", payload["device_class"])
	assert.Equal(t, "OPEN", payload["state_open"])
	assert.Equal(t, "OPENING", payload["state_opening"])
	assert.Equal(t, "CLOSE", payload["state_closed"])
	assert.Equal(t, "CLOSING", payload["state_closing"])
}

func TestCoverCommand(t *testing.T) {
	tests := []struct {
		payload string
		want    string
		wantOK  bool
	}{
		{payload: "OPEN", want: "Open", wantOK: true},
		{payload: "close", want: "Close", wantOK: true},
		{payload: "Stop", want: "Stop", wantOK: true},
		{payload: "tilt", wantOK: false},
	}

	for _, tt := range tests {
		got, ok := coverAdapter{}.Command([]byte(tt.payload))
		require.Equal(t, tt.wantOK, ok, "payload %q", tt.payload)
		if tt.wantOK {
			assert.Equal(t, device.Properties{{Name: "Action", Value: tt.want}}, got)
		}
	}
}

func TestFanAdapter(t *testing.T) {
	dev := device.Device{
		Properties: device.Properties{{Name: "Status", Value: "on"}},
	}
	data, ok := fanAdapter{}.State(dev, nil)
	require.True(t, ok)
	assert.Equal(t, "ON", string(data))

	got, ok := fanAdapter{}.Command([]byte("off"))
	require.True(t, ok)
	assert.Equal(t, device.Properties{{Name: "Status", Value: "Off"}}, got)

	_, ok = fanAdapter{}.Command([]byte("spin"))
	assert.False(t, ok)
}

func TestBinarySensorAdapter(t *testing.T) {
	dev := device.Device{
		UUID:       "u7",
		Model:      "pir",
		Properties: device.Properties{{Name: "Status", Value: "on"}},
	}

	data, err := binarySensorAdapter{}.Discovery(dev, testMeta())
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, float64(10), payload["off_delay"])
	_, hasCommand := payload["command_topic"]
	assert.False(t, hasCommand, "sensors must not advertise a command topic")

	state, ok := binarySensorAdapter{}.State(dev, nil)
	require.True(t, ok)
	assert.Equal(t, "ON", string(state))

	_, ok = binarySensorAdapter{}.Command([]byte("ON"))
	assert.False(t, ok)
}
