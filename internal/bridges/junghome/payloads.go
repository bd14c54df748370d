package junghome

import (
	"fmt"
	"strconv"

	"github.com/nerrad567/junghome-bridge/internal/device"
)

// Colour temperature bounds in mireds (roughly 6500K down to 1700K).
const (
	MinColorTemp = 153
	MaxColorTemp = 588
)

// payloadKey identifies one entry in the payload table.
type payloadKey struct {
	Type device.DeviceType
	Cap  device.Capability
}

// payloadBuilder validates a command value and produces the wire-level
// datapoint key and string value for it.
type payloadBuilder func(value any) (key string, wire string, err error)

// payloadTable holds a builder for every (device type, capability) pair
// the gateway can be commanded on. Lookups happen before any network
// call; a missing entry means the command is rejected locally.
//
// The table is exhaustive over the capability table in the device
// package, which TestPayloadTableComplete verifies.
var payloadTable = map[payloadKey]payloadBuilder{
	{device.TypeOnOffLight, device.CapPower}: buildSwitch,
	{device.TypeSocket, device.CapPower}:     buildSwitch,

	{device.TypeDimmableLight, device.CapPower}:      buildSwitch,
	{device.TypeDimmableLight, device.CapBrightness}: buildBrightness,

	{device.TypeTunableWhiteLight, device.CapPower}:      buildSwitch,
	{device.TypeTunableWhiteLight, device.CapBrightness}: buildBrightness,
	{device.TypeTunableWhiteLight, device.CapColorTemp}:  buildColorTemp,

	{device.TypeWindowCover, device.CapPosition}: buildPosition,
}

// lookupPayload returns the builder for a (type, capability) pair.
func lookupPayload(t device.DeviceType, c device.Capability) (payloadBuilder, bool) {
	b, ok := payloadTable[payloadKey{Type: t, Cap: c}]
	return b, ok
}

// buildSwitch encodes a power command. The gateway expects "1" or "0".
func buildSwitch(value any) (string, string, error) {
	on, ok := value.(bool)
	if !ok {
		return "", "", fmt.Errorf("power expects bool, got %T: %w", value, device.ErrValueRange)
	}
	wire := "0"
	if on {
		wire = "1"
	}
	return dpSwitch, wire, nil
}

// buildBrightness encodes a brightness command, 0-100 percent.
func buildBrightness(value any) (string, string, error) {
	pct, err := intValue(value)
	if err != nil {
		return "", "", err
	}
	if pct < 0 || pct > 100 {
		return "", "", fmt.Errorf("brightness %d outside 0-100: %w", pct, device.ErrValueRange)
	}
	return dpBrightness, strconv.Itoa(pct), nil
}

// buildColorTemp encodes a colour temperature command in mireds.
func buildColorTemp(value any) (string, string, error) {
	mireds, err := intValue(value)
	if err != nil {
		return "", "", err
	}
	if mireds < MinColorTemp || mireds > MaxColorTemp {
		return "", "", fmt.Errorf("color temperature %d outside %d-%d: %w", mireds, MinColorTemp, MaxColorTemp, device.ErrValueRange)
	}
	return dpColorTemp, strconv.Itoa(mireds), nil
}

// buildPosition encodes a cover position command. The hub speaks
// percent-open; the gateway level is percent-closed, so the value is
// inverted on the way out.
func buildPosition(value any) (string, string, error) {
	pct, err := intValue(value)
	if err != nil {
		return "", "", err
	}
	if pct < 0 || pct > 100 {
		return "", "", fmt.Errorf("position %d outside 0-100: %w", pct, device.ErrValueRange)
	}
	return dpLevel, strconv.Itoa(invertLevel(pct)), nil
}

// intValue accepts the numeric types a command value may arrive as.
// JSON decoding produces float64; internal callers pass int.
func intValue(value any) (int, error) {
	switch n := value.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("value %v is not an integer: %w", n, device.ErrValueRange)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("value expects integer, got %T: %w", value, device.ErrValueRange)
	}
}
