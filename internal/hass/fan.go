package hass

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/nerrad567/hobbybridge/internal/device"
	"github.com/nerrad567/hobbybridge/internal/hobby"
)

// fanAdapter serves switched fans as plain on/off entities.
type fanAdapter struct{}

func (fanAdapter) Category() Category { return CategoryFan }

func (fanAdapter) Discovery(dev device.Device, meta DiscoveryMeta) ([]byte, error) {
	return json.Marshal(basePayload(dev, CategoryFan, meta))
}

func (fanAdapter) State(dev device.Device, delta device.Properties) ([]byte, bool) {
	if delta != nil && !delta.Has(hobby.PropStatus) {
		return nil, false
	}
	status, ok := dev.Properties.Get(hobby.PropStatus)
	if !ok {
		return nil, false
	}
	return []byte(strings.ToUpper(status)), true
}

func (fanAdapter) Command(payload []byte) (device.Properties, bool) {
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
	default:
		return nil, false
	}
}
