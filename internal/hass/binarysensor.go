package hass

import (
	"encoding/json"
	"strings"

	"github.com/nerrad567/hobbybridge/internal/device"
	"github.com/nerrad567/hobbybridge/internal/hobby"
)

// sensorOffDelay auto-resets the sensor this many seconds after a
// trigger, modeling momentary pulse sensors that never report off.
const sensorOffDelay = 10

// binarySensorAdapter serves read-only pulse sensors. No model in the
// current translation table maps here; the adapter stays in the closed
// dispatch table for hub models that report plain sensor status.
type binarySensorAdapter struct{}

type binarySensorDiscoveryPayload struct {
	DiscoveryPayload
	OffDelay int `json:"off_delay"`
}

func (binarySensorAdapter) Category() Category { return CategoryBinarySensor }

func (binarySensorAdapter) Discovery(dev device.Device, meta DiscoveryMeta) ([]byte, error) {
	payload := binarySensorDiscoveryPayload{
		DiscoveryPayload: basePayload(dev, CategoryBinarySensor, meta),
		OffDelay:         sensorOffDelay,
	}
	// Sensors are not actuated.
	payload.CommandTopic = ""
	return json.Marshal(payload)
}

func (binarySensorAdapter) State(dev device.Device, delta device.Properties) ([]byte, bool) {
	if delta != nil && !delta.Has(hobby.PropStatus) {
		return nil, false
	}
	status, ok := dev.Properties.Get(hobby.PropStatus)
	if !ok {
		return nil, false
	}
	return []byte(strings.ToUpper(status)), true
}

// Command always decodes to no-op.
func (binarySensorAdapter) Command([]byte) (device.Properties, bool) {
	return nil, false
}
