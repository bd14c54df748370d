package junghome

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/nerrad567/junghome-bridge/internal/device"
)

// Wire-level device type names used by the gateway.
const (
	wireTypeOnOff            = "OnOff"
	wireTypeDimmerLight      = "DimmerLight"
	wireTypeColorLight       = "ColorLight"
	wireTypeSocket           = "Socket"
	wireTypePosition         = "Position"
	wireTypePositionAndAngle = "PositionAndAngle"
)

// Wire-level datapoint type names used by the gateway.
const (
	dpSwitch     = "switch"
	dpBrightness = "brightness"
	dpColorTemp  = "colortemperature"
	dpLevel      = "level"
)

// GatewayInfo is the response of the gateway config endpoint.
type GatewayInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// FunctionDescriptor is one device in the gateway's enumeration.
type FunctionDescriptor struct {
	ID         string                `json:"id"`
	Label      string                `json:"label"`
	Type       string                `json:"type"`
	Datapoints []DatapointDescriptor `json:"datapoints"`
}

// DatapointDescriptor is one datapoint within a function.
// Values may be absent; the enumeration does not always carry them.
type DatapointDescriptor struct {
	ID     string           `json:"id"`
	Type   string           `json:"type"`
	Values []DatapointValue `json:"values,omitempty"`
}

// DatapointValue is a single key/value entry. The gateway represents all
// values as strings on the wire: "1"/"0" for switches, "0".."100" for
// percentages.
type DatapointValue struct {
	Key   string `json:"key,omitempty"`
	Value string `json:"value"`
}

// datapointPatch is the body of a datapoint PATCH request.
type datapointPatch struct {
	Data []DatapointValue `json:"data"`
}

// mapDeviceType translates a wire type name to the internal device type.
func mapDeviceType(wire string) (device.DeviceType, bool) {
	switch wire {
	case wireTypeOnOff:
		return device.TypeOnOffLight, true
	case wireTypeDimmerLight:
		return device.TypeDimmableLight, true
	case wireTypeColorLight:
		return device.TypeTunableWhiteLight, true
	case wireTypeSocket:
		return device.TypeSocket, true
	case wireTypePosition, wireTypePositionAndAngle:
		return device.TypeWindowCover, true
	default:
		return "", false
	}
}

// capabilityForDatapoint translates a datapoint type to a capability in
// the context of a device type. The level datapoint only means position
// on covers; unknown datapoint types map to nothing and are ignored.
func capabilityForDatapoint(t device.DeviceType, dpType string) (device.Capability, bool) {
	switch dpType {
	case dpSwitch:
		c := device.CapPower
		return c, device.SupportsCapability(t, c)
	case dpBrightness:
		c := device.CapBrightness
		return c, device.SupportsCapability(t, c)
	case dpColorTemp:
		c := device.CapColorTemp
		return c, device.SupportsCapability(t, c)
	case dpLevel:
		c := device.CapPosition
		return c, device.SupportsCapability(t, c)
	default:
		return "", false
	}
}

// invertLevel converts between the gateway's percent-closed cover level
// and the hub-side percent-open position. The mapping is its own inverse.
func invertLevel(v int) int {
	return 100 - v
}

// decodeDevice converts a wire descriptor into an internal device plus
// the capability-to-datapoint-id mapping needed to address commands.
//
// Devices with unknown wire types return ErrUnknownDeviceType. Datapoints
// whose type has no meaning for the device are skipped. Values that fail
// to parse return ErrProtocol.
func decodeDevice(fd FunctionDescriptor, observedAt time.Time) (device.Device, map[device.Capability]string, error) {
	t, ok := mapDeviceType(fd.Type)
	if !ok {
		return device.Device{}, nil, fmt.Errorf("device %s type %q: %w", fd.ID, fd.Type, device.ErrUnknownDeviceType)
	}

	d := device.Device{
		ID:    fd.ID,
		Label: fd.Label,
		Type:  t,
		State: make(device.State),
	}
	refs := make(map[device.Capability]string)

	for _, dp := range fd.Datapoints {
		c, ok := capabilityForDatapoint(t, dp.Type)
		if !ok {
			continue
		}
		refs[c] = dp.ID

		if len(dp.Values) == 0 {
			continue
		}
		value, err := parseWireValue(c, dp.Values[0].Value)
		if err != nil {
			return device.Device{}, nil, fmt.Errorf("device %s datapoint %s: %w", fd.ID, dp.ID, err)
		}
		d.State[c] = device.Value{Value: value, ObservedAt: observedAt}
	}

	return d, refs, nil
}

// parseWireValue converts a wire string into the capability's native type.
// Cover levels are inverted here so everything above the codec speaks
// percent-open.
func parseWireValue(c device.Capability, raw string) (any, error) {
	switch c {
	case device.CapPower:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: switch value %q", ErrProtocol, raw)
		}
		return n != 0, nil

	case device.CapBrightness, device.CapColorTemp:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s value %q", ErrProtocol, c, raw)
		}
		return n, nil

	case device.CapPosition:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: level value %q", ErrProtocol, raw)
		}
		return invertLevel(n), nil

	default:
		return nil, fmt.Errorf("%w: capability %s", ErrProtocol, c)
	}
}

// addressBook maps device ids and capabilities to the gateway datapoint
// ids commands must be addressed to. It is rebuilt from each enumeration.
//
// Thread-safe: the synchroniser writes while the translator reads.
type addressBook struct {
	mu       sync.RWMutex
	byDevice map[string]map[device.Capability]string
}

func newAddressBook() *addressBook {
	return &addressBook{
		byDevice: make(map[string]map[device.Capability]string),
	}
}

// update replaces the datapoint mapping for a device.
func (b *addressBook) update(deviceID string, refs map[device.Capability]string) {
	cpy := make(map[device.Capability]string, len(refs))
	for k, v := range refs {
		cpy[k] = v
	}

	b.mu.Lock()
	b.byDevice[deviceID] = cpy
	b.mu.Unlock()
}

// lookup returns the datapoint id for a device capability.
func (b *addressBook) lookup(deviceID string, c device.Capability) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	refs, ok := b.byDevice[deviceID]
	if !ok {
		return "", false
	}
	id, ok := refs[c]
	return id, ok
}

// remove forgets a device's datapoint mapping.
func (b *addressBook) remove(deviceID string) {
	b.mu.Lock()
	delete(b.byDevice, deviceID)
	b.mu.Unlock()
}
