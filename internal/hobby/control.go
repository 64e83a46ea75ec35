package hobby

import (
	"strconv"

	"github.com/nerrad567/hobbybridge/internal/device"
)

// Property names accepted by devices.control.
const (
	PropStatus     = "Status"
	PropBrightness = "Brightness"
	PropBasicState = "BasicState"
	PropAction     = "Action"
	PropPosition   = "Position"
	PropMoving     = "Moving"
)

// MoodWrite builds the property write that triggers a mood.
// Moods only accept BasicState, never Status.
func MoodWrite() device.Properties {
	return device.Properties{{Name: PropBasicState, Value: "Triggered"}}
}

// RelayWrite maps a loose on/off value to a Status write.
// Numeric values switch on at 1 and above, off at 0 and below.
func RelayWrite(value string) (device.Properties, error) {
	status, err := onOffValue(value)
	if err != nil {
		return nil, err
	}
	return device.Properties{{Name: PropStatus, Value: status}}, nil
}

// DimmerWrite maps a value to a dimmer write. Numeric values are clamped
// to 0..100 and target Brightness; on/off values target Status.
func DimmerWrite(value string) (device.Properties, error) {
	if n, err := strconv.Atoi(value); err == nil {
		return device.Properties{{Name: PropBrightness, Value: strconv.Itoa(clampPercent(n))}}, nil
	}
	status, err := onOffValue(value)
	if err != nil {
		return nil, err
	}
	return device.Properties{{Name: PropStatus, Value: status}}, nil
}

// MotorWrite maps a value to a motor write. Numeric values are clamped
// to 0..100 and target Position; open/close/stop values target Action.
func MotorWrite(value string) (device.Properties, error) {
	if n, err := strconv.Atoi(value); err == nil {
		return device.Properties{{Name: PropPosition, Value: strconv.Itoa(clampPercent(n))}}, nil
	}
	switch value {
	case "open", "Open":
		return device.Properties{{Name: PropAction, Value: "Open"}}, nil
	case "close", "Close":
		return device.Properties{{Name: PropAction, Value: "Close"}}, nil
	case "stop", "Stop":
		return device.Properties{{Name: PropAction, Value: "Stop"}}, nil
	default:
		return nil, ErrInvalidValue
	}
}

func onOffValue(value string) (string, error) {
	if n, err := strconv.Atoi(value); err == nil {
		if n >= 1 {
			return "On", nil
		}
		return "Off", nil
	}
	switch value {
	case "on", "On":
		return "On", nil
	case "off", "Off":
		return "Off", nil
	default:
		return "", ErrInvalidValue
	}
}

func clampPercent(n int) int {
	if n > 100 {
		return 100
	}
	if n < 0 {
		return 0
	}
	return n
}
