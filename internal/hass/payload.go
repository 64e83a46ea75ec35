package hass

import (
	"github.com/nerrad567/hobbybridge/internal/device"
)

// Manufacturer reported in every discovery payload's device block.
const Manufacturer = "Niko"

// DeviceInfo is the device sub-object of a discovery payload. It groups
// the entity under one device card in Home Assistant.
type DeviceInfo struct {
	Name         string   `json:"name"`
	Identifiers  []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	SWVersion    string   `json:"sw_version,omitempty"`
}

// DiscoveryPayload carries the fields shared by every category.
// Category-specific payload structs embed it.
type DiscoveryPayload struct {
	Name              string     `json:"name"`
	UniqueID          string     `json:"unique_id"`
	BaseTopic         string     `json:"~"`
	CommandTopic      string     `json:"command_topic,omitempty"`
	StateTopic        string     `json:"state_topic"`
	AvailabilityTopic string     `json:"availability_topic"`
	Device            DeviceInfo `json:"device"`
}

// DiscoveryMeta is the per-sweep context an adapter needs to build a
// discovery payload: the topic scheme and the controller firmware
// version reported as sw_version.
type DiscoveryMeta struct {
	Topics    Topics
	SWVersion string
}

// basePayload fills the shared discovery fields for a device.
// Topics are relative to the "~" base; the availability topic stays per
// entity so sweeps can mark devices individually.
func basePayload(dev device.Device, category Category, meta DiscoveryMeta) DiscoveryPayload {
	return DiscoveryPayload{
		Name:              dev.DisplayName(),
		UniqueID:          dev.UUID,
		BaseTopic:         meta.Topics.Base(category, dev.UUID),
		CommandTopic:      "~/set",
		StateTopic:        "~/state",
		AvailabilityTopic: "~/available",
		Device: DeviceInfo{
			Name:         dev.DisplayName(),
			Identifiers:  []string{dev.UUID},
			Manufacturer: Manufacturer,
			Model:        dev.Model,
			SWVersion:    meta.SWVersion,
		},
	}
}
