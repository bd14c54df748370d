package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrUnknownDeviceType is returned when a device type is not in the
	// capability table. Devices with unknown types are never admitted to
	// the registry.
	ErrUnknownDeviceType = errors.New("device: unknown type")

	// ErrUnsupportedCommand is returned when a command targets a
	// capability the device type does not have.
	ErrUnsupportedCommand = errors.New("device: unsupported command")

	// ErrValueRange is returned when a command value is outside the
	// capability's valid domain.
	ErrValueRange = errors.New("device: value out of range")

	// ErrInvalidState is returned when a state carries keys that do not
	// match the device type's capability set.
	ErrInvalidState = errors.New("device: invalid state")
)
