package hass

import (
	"github.com/nerrad567/hobbybridge/internal/device"
)

// Adapter translates one entity category between hub properties and
// Home Assistant payloads. Implementations are stateless and safe for
// concurrent use.
type Adapter interface {
	// Category returns the category this adapter serves.
	Category() Category

	// Discovery builds the discovery config payload for a device.
	Discovery(dev device.Device, meta DiscoveryMeta) ([]byte, error)

	// State builds the state payload for a device. A nil delta means a
	// full publish (discovery sweep); a non-nil delta restricts the
	// publish to updates touching the category's relevant properties.
	// The second return is false when nothing should be published.
	State(dev device.Device, delta device.Properties) ([]byte, bool)

	// Command decodes an inbound command payload into hub property
	// writes. The second return is false when the payload decodes to
	// no-op; decoding never fails hard.
	Command(payload []byte) (device.Properties, bool)
}

// adapters is the closed dispatch table. Every supported category has
// exactly one entry.
var adapters = map[Category]Adapter{
	CategoryLight:        lightAdapter{},
	CategorySwitch:       switchAdapter{},
	CategorySceneSwitch:  sceneAdapter{},
	CategoryCover:        coverAdapter{},
	CategoryFan:          fanAdapter{},
	CategoryBinarySensor: binarySensorAdapter{},
}

// AdapterFor returns the adapter for a category, or nil for
// CategoryUnsupported and unknown values.
func AdapterFor(category Category) Adapter {
	return adapters[category]
}

// AdapterForModel resolves a hub model straight to its adapter.
func AdapterForModel(model string) Adapter {
	return AdapterFor(CategoryForModel(model))
}
