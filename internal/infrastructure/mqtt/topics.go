package mqtt

import "fmt"

// Topic prefixes for the bridge's MQTT surface.
//
// The hub-facing scheme is: junghome/{category}/{device_id}[/suffix]
const (
	// TopicPrefix is the base for all bridge topics.
	TopicPrefix = "junghome"

	// TopicPrefixDevice is the base for per-device topics.
	TopicPrefixDevice = "junghome/device"

	// TopicPrefixCommand is the base for inbound command topics.
	TopicPrefixCommand = "junghome/command"

	// TopicPrefixBridge is the base for bridge status topics.
	TopicPrefixBridge = "junghome/bridge"
)

// Topics provides builders for the bridge's MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.DeviceState("a1b2c3")
//	// Returns: "junghome/device/a1b2c3/state"
type Topics struct{}

// DeviceState returns the topic for a device's state snapshot.
//
// Example: junghome/device/a1b2c3/state
func (Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/%s/state", TopicPrefixDevice, deviceID)
}

// DeviceAvailability returns the topic for a device's availability flag.
//
// Example: junghome/device/a1b2c3/availability
func (Topics) DeviceAvailability(deviceID string) string {
	return fmt.Sprintf("%s/%s/availability", TopicPrefixDevice, deviceID)
}

// DeviceDiscovered returns the topic announcing newly discovered devices.
//
// Example: junghome/device/a1b2c3/discovered
func (Topics) DeviceDiscovered(deviceID string) string {
	return fmt.Sprintf("%s/%s/discovered", TopicPrefixDevice, deviceID)
}

// DeviceRemoved returns the topic announcing evicted devices.
//
// Example: junghome/device/a1b2c3/removed
func (Topics) DeviceRemoved(deviceID string) string {
	return fmt.Sprintf("%s/%s/removed", TopicPrefixDevice, deviceID)
}

// Command returns the inbound command topic for a device.
//
// Example: junghome/command/a1b2c3
func (Topics) Command(deviceID string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixCommand, deviceID)
}

// CommandResult returns the topic for command acknowledgements.
//
// Example: junghome/command/a1b2c3/result
func (Topics) CommandResult(deviceID string) string {
	return fmt.Sprintf("%s/%s/result", TopicPrefixCommand, deviceID)
}

// BridgeStatus returns the bridge online/offline status topic.
// This is also the LWT topic.
//
// Example: junghome/bridge/status
func (Topics) BridgeStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixBridge)
}

// BridgeHealth returns the periodic bridge health topic.
//
// Example: junghome/bridge/health
func (Topics) BridgeHealth() string {
	return fmt.Sprintf("%s/health", TopicPrefixBridge)
}

// AllCommands returns a pattern matching inbound commands for any device.
// Result topics carry an extra level and are not matched.
//
// Pattern: junghome/command/+
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/+", TopicPrefixCommand)
}
