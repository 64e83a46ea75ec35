package hass

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/nerrad567/hobbybridge/internal/device"
	"github.com/nerrad567/hobbybridge/internal/hobby"
)

// switchAdapter serves sockets and generic switched outputs as plain
// on/off entities.
type switchAdapter struct{}

func (switchAdapter) Category() Category { return CategorySwitch }

func (switchAdapter) Discovery(dev device.Device, meta DiscoveryMeta) ([]byte, error) {
	return json.Marshal(basePayload(dev, CategorySwitch, meta))
}

// State mirrors Status upper-cased, with BasicState as a fallback for
// outputs that only report a basic state.
func (switchAdapter) State(dev device.Device, delta device.Properties) ([]byte, bool) {
	if delta != nil && !delta.Has(hobby.PropStatus) && !delta.Has(hobby.PropBasicState) {
		return nil, false
	}

	status, ok := dev.Properties.Get(hobby.PropStatus)
	if !ok {
		status, ok = dev.Properties.Get(hobby.PropBasicState)
	}
	if !ok {
		return nil, false
	}
	return []byte(strings.ToUpper(status)), true
}

// Command accepts On/Off tokens, numeric values (on at 1 and above) and
// Triggered, which targets BasicState. Anything else is a silent no-op.
func (switchAdapter) Command(payload []byte) (device.Properties, bool) {
	token := capitalize(strings.TrimSpace(string(payload)))

	if n, err := strconv.Atoi(token); err == nil {
		status := "Off"
		if n >= 1 {
			status = "On"
		}
		return device.Properties{{Name: hobby.PropStatus, Value: status}}, true
	}

	switch token {
	case "On", "Off":
		return device.Properties{{Name: hobby.PropStatus, Value: token}}, true
	case "Triggered":
		return device.Properties{{Name: hobby.PropBasicState, Value: "Triggered"}}, true
	default:
		return nil, false
	}
}
