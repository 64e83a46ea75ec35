package device

import "errors"

// Common errors returned by registry operations.
var (
	// ErrDeviceNotFound indicates the requested UUID is not in the registry.
	ErrDeviceNotFound = errors.New("device: device not found")

	// ErrInvalidDevice indicates a device record is missing required fields.
	ErrInvalidDevice = errors.New("device: invalid device")

	// ErrNotControllable indicates the identifier resolved to a device that
	// is not an action of a permitted model.
	ErrNotControllable = errors.New("device: device not controllable")
)
