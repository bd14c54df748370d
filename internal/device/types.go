package device

import "time"

// DeviceType represents the kind of device exposed by the gateway.
type DeviceType string //nolint:revive // device.DeviceType is clearer than device.Type in calling code

// DeviceType constants.
const (
	TypeOnOffLight        DeviceType = "on_off_light"
	TypeDimmableLight     DeviceType = "dimmable_light"
	TypeTunableWhiteLight DeviceType = "tunable_white_light"
	TypeSocket            DeviceType = "socket"
	TypeWindowCover       DeviceType = "window_cover"
)

// AllDeviceTypes returns all valid device type values.
func AllDeviceTypes() []DeviceType {
	return []DeviceType{
		TypeOnOffLight, TypeDimmableLight, TypeTunableWhiteLight,
		TypeSocket, TypeWindowCover,
	}
}

// Capability represents a single controllable aspect of a device.
type Capability string

// Capability constants.
const (
	// CapPower is on/off state (bool).
	CapPower Capability = "power"

	// CapBrightness is dim level, 0-100 percent (int).
	CapBrightness Capability = "brightness"

	// CapColorTemp is colour temperature in mireds (int).
	CapColorTemp Capability = "color_temp" //nolint:misspell // wire format uses American "color"

	// CapPosition is cover position, 0-100 percent open (int).
	CapPosition Capability = "position"
)

// capabilityTable maps each device type to its fixed capability set.
// A device's state holds exactly these keys, never more, never fewer.
var capabilityTable = map[DeviceType][]Capability{
	TypeOnOffLight:        {CapPower},
	TypeDimmableLight:     {CapPower, CapBrightness},
	TypeTunableWhiteLight: {CapPower, CapBrightness, CapColorTemp},
	TypeSocket:            {CapPower},
	TypeWindowCover:       {CapPosition},
}

// CapabilitiesForType returns the capability set for a device type.
// Returns ErrUnknownDeviceType for types not in the table.
func CapabilitiesForType(t DeviceType) ([]Capability, error) {
	caps, ok := capabilityTable[t]
	if !ok {
		return nil, ErrUnknownDeviceType
	}
	// Copy so callers cannot mutate the table
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out, nil
}

// SupportsCapability reports whether a device type has the given capability.
func SupportsCapability(t DeviceType, c Capability) bool {
	for _, cap := range capabilityTable[t] {
		if cap == c {
			return true
		}
	}
	return false
}

// Value is a capability reading with the time it was observed.
// The timestamp resolves races between slow poll sweeps and fresh
// optimistic updates: an older observation never overwrites a newer one.
type Value struct {
	Value      any       `json:"value"`
	ObservedAt time.Time `json:"observed_at"`
}

// State holds the current capability values of a device.
// Keys always match the device type's capability set exactly.
type State map[Capability]Value

// Device represents a single gateway device as seen by the hub.
type Device struct {
	// Identity
	ID string `json:"id"`

	// Label is the human-readable name configured on the gateway.
	Label string `json:"label"`

	// Classification
	Type DeviceType `json:"type"`

	// Current state, keyed by capability.
	State State `json:"state"`

	// Available is false when the gateway is unreachable or the device
	// has not been confirmed since startup. State is retained either way.
	Available bool `json:"available"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Capabilities returns the capability set for this device's type.
func (d *Device) Capabilities() []Capability {
	caps, _ := CapabilitiesForType(d.Type) //nolint:errcheck // Stored devices always have a known type
	return caps
}

// DeepCopy creates a complete independent copy of the Device.
// The state map is cloned so modifications to the copy do not affect
// the original. This is essential for cache isolation.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	cpy := *d // Shallow copy of value fields
	cpy.State = d.State.DeepCopy()
	return &cpy
}

// DeepCopy clones a State map.
func (s State) DeepCopy() State {
	if s == nil {
		return nil
	}
	cpy := make(State, len(s))
	for k, v := range s {
		cpy[k] = v
	}
	return cpy
}

// valuesEqual compares two capability values for semantic equality.
// Numeric values are compared as float64 regardless of the concrete
// type they arrived with (JSON decoding produces float64, optimistic
// updates produce int).
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}

	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}

	return a == b
}

// toFloat converts numeric types to float64 for comparison.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	default:
		return 0, false
	}
}
