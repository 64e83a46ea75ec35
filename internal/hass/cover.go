package hass

import (
	"encoding/json"
	"strings"

	"github.com/nerrad567/hobbybridge/internal/device"
	"github.com/nerrad567/hobbybridge/internal/hobby"
)

// coverAdapter serves motor-driven covers. The hub never reports a
// ready-made cover state; it is resolved from Action, Moving and
// Position.
type coverAdapter struct{}

type coverDiscoveryPayload struct {
	DiscoveryPayload
	DeviceClass  string `json:"device_class"`
	StateOpen    string `json:"state_open"`
	StateOpening string `json:"state_opening"`
	StateClosed  string `json:"state_closed"`
	StateClosing string `json:"state_closing"`
}

func (coverAdapter) Category() Category { return CategoryCover }

func (coverAdapter) Discovery(dev device.Device, meta DiscoveryMeta) ([]byte, error) {
	return json.Marshal(coverDiscoveryPayload{
		DiscoveryPayload: basePayload(dev, CategoryCover, meta),
		DeviceClass:      CoverClassForModel(dev.Model),
		StateOpen:        "OPEN",
		StateOpening:     "OPENING",
		StateClosed:      "CLOSE",
		StateClosing:     "CLOSING",
	})
}

// State resolves the cover state from the full property set.
//
// While moving, the hub's Action still names the position the motor
// left: Action OPEN (or Position 100) means the cover is on its way
// closed. At rest the Position end stops decide. Mid-travel rest
// positions publish nothing.
func (coverAdapter) State(dev device.Device, delta device.Properties) ([]byte, bool) {
	relevant := delta == nil ||
		delta.Has(hobby.PropAction) || delta.Has(hobby.PropMoving) || delta.Has(hobby.PropPosition)
	if !relevant {
		return nil, false
	}

	action, _ := dev.Properties.Get(hobby.PropAction)
	action = strings.ToUpper(action)
	position, hasPosition := dev.Properties.Get(hobby.PropPosition)
	movingRaw, hasMoving := dev.Properties.Get(hobby.PropMoving)
	if !hasMoving {
		return nil, false
	}
	moving := strings.EqualFold(movingRaw, "True")

	if moving {
		switch {
		case action == "OPEN" || (hasPosition && position == "100"):
			return []byte("CLOSING"), true
		case action == "CLOSE" || (hasPosition && position == "0"):
			return []byte("OPENING"), true
		}
		return nil, false
	}

	switch {
	case hasPosition && position == "0":
		return []byte("CLOSE"), true
	case hasPosition && position == "100":
		return []byte("OPEN"), true
	}
	return nil, false
}

// Command capitalizes the payload token and writes it as Action.
// Tokens outside Open/Close/Stop are dropped.
func (coverAdapter) Command(payload []byte) (device.Properties, bool) {
	token := capitalize(strings.TrimSpace(string(payload)))
	switch token {
	case "Open", "Close", "Stop":
		return device.Properties{{Name: hobby.PropAction, Value: token}}, true
	default:
		return nil, false
	}
}
