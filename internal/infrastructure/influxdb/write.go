package influxdb

import (
	"strconv"
	"strings"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/hobbybridge/internal/device"
)

// WriteDeviceStatus records the numeric view of a status update.
//
// Each touched property becomes one point in the device_status
// measurement, tagged with the device UUID, model and property name.
// Values are normalized to floats: numeric strings verbatim, on/off
// style tokens as 1/0. Properties with no numeric interpretation are
// skipped.
//
// The write is non-blocking; data is batched and sent asynchronously.
func (c *Client) WriteDeviceStatus(dev device.Device, delta device.Properties) {
	if !c.IsConnected() {
		return
	}

	now := time.Now()
	for _, prop := range delta {
		value, ok := numericValue(prop.Value)
		if !ok {
			continue
		}

		point := write.NewPoint(
			"device_status",
			map[string]string{
				"uuid":     dev.UUID,
				"model":    dev.Model,
				"property": prop.Name,
			},
			map[string]interface{}{
				"value": value,
			},
			now,
		)
		c.writeAPI.WritePoint(point)
	}
}

// WriteOnlineTransition records a device going online or offline.
func (c *Client) WriteOnlineTransition(dev device.Device, online bool) {
	if !c.IsConnected() {
		return
	}

	value := 0.0
	if online {
		value = 1.0
	}

	point := write.NewPoint(
		"device_online",
		map[string]string{
			"uuid":  dev.UUID,
			"model": dev.Model,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// RecordStatus satisfies the bridge's StatusSink.
func (c *Client) RecordStatus(dev device.Device, delta device.Properties) {
	c.WriteDeviceStatus(dev, delta)
}

// RecordOnline satisfies the bridge's OnlineSink.
func (c *Client) RecordOnline(dev device.Device, online bool) {
	c.WriteOnlineTransition(dev, online)
}

// numericValue maps a hub property string to a float.
func numericValue(raw string) (float64, bool) {
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v, true
	}

	switch strings.ToLower(raw) {
	case "on", "true", "triggered":
		return 1, true
	case "off", "false":
		return 0, true
	}
	return 0, false
}
