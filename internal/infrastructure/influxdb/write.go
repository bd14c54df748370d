package influxdb

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
)

// Measurement names.
const (
	// measurementCapability records numeric capability values over time.
	measurementCapability = "device_capability"

	// measurementAvailability records device reachability transitions.
	measurementAvailability = "device_availability"
)

// WriteCapabilityValue records a numeric capability value for a device.
//
// Booleans should be converted to 0/1 by the caller so power states chart
// alongside brightness and position. The write is buffered and sent
// asynchronously; errors surface via the SetOnError callback.
//
// Parameters:
//   - deviceID: Gateway device id
//   - deviceType: Device classification (tag)
//   - capability: Capability name (tag)
//   - value: The observed value
//   - observedAt: When the value was observed
func (c *Client) WriteCapabilityValue(deviceID, deviceType, capability string, value float64, observedAt time.Time) {
	if !c.IsConnected() {
		return
	}

	point := influxdb2.NewPoint(
		measurementCapability,
		map[string]string{
			"device_id":  deviceID,
			"type":       deviceType,
			"capability": capability,
		},
		map[string]any{
			"value": value,
		},
		observedAt,
	)

	c.writeAPI.WritePoint(point)
}

// WriteAvailability records a device availability transition.
//
// Parameters:
//   - deviceID: Gateway device id
//   - deviceType: Device classification (tag)
//   - available: The new reachability state
func (c *Client) WriteAvailability(deviceID, deviceType string, available bool) {
	if !c.IsConnected() {
		return
	}

	v := 0
	if available {
		v = 1
	}

	point := influxdb2.NewPoint(
		measurementAvailability,
		map[string]string{
			"device_id": deviceID,
			"type":      deviceType,
		},
		map[string]any{
			"available": v,
		},
		time.Now().UTC(),
	)

	c.writeAPI.WritePoint(point)
}
