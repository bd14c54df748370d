package junghome

import (
	"context"
	"fmt"

	"github.com/nerrad567/junghome-bridge/internal/device"
)

// Translator turns capability-level commands into gateway datapoint
// writes.
//
// Validation happens entirely locally before any network call: the
// device must exist, its type must support the capability, and the value
// must be in range. Only then is the PATCH issued. On gateway acceptance
// the registry is updated optimistically so the hub sees the new value
// immediately instead of waiting for the next sweep.
//
// Turning a light off deliberately touches only the power capability;
// brightness and colour temperature keep their last values so turning
// back on restores them.
type Translator struct {
	transport *Transport
	registry  *device.Registry
	book      *addressBook
	logger    Logger
}

// newTranslator creates a command translator.
// The address book is shared with the Synchronizer, which maintains it.
// Constructed via NewBridge.
func newTranslator(transport *Transport, registry *device.Registry, book *addressBook) *Translator {
	return &Translator{
		transport: transport,
		registry:  registry,
		book:      book,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the translator.
func (t *Translator) SetLogger(logger Logger) {
	t.logger = logger
}

// SetPower switches a device on or off.
func (t *Translator) SetPower(ctx context.Context, deviceID string, on bool) error {
	return t.apply(ctx, deviceID, device.CapPower, on)
}

// SetBrightness sets a light's brightness, 0-100 percent.
func (t *Translator) SetBrightness(ctx context.Context, deviceID string, percent int) error {
	return t.apply(ctx, deviceID, device.CapBrightness, percent)
}

// SetColorTemperature sets a light's colour temperature in mireds.
func (t *Translator) SetColorTemperature(ctx context.Context, deviceID string, mireds int) error {
	return t.apply(ctx, deviceID, device.CapColorTemp, mireds)
}

// SetPosition sets a cover position, 0-100 percent open.
func (t *Translator) SetPosition(ctx context.Context, deviceID string, percent int) error {
	return t.apply(ctx, deviceID, device.CapPosition, percent)
}

// Apply validates and executes a command for an arbitrary capability.
// The typed setters above are thin wrappers over this.
func (t *Translator) Apply(ctx context.Context, deviceID string, c device.Capability, value any) error {
	return t.apply(ctx, deviceID, c, value)
}

// apply is the single command path: lookup, validate, PATCH, optimistic
// registry update.
func (t *Translator) apply(ctx context.Context, deviceID string, c device.Capability, value any) error {
	d, err := t.registry.Get(deviceID)
	if err != nil {
		return fmt.Errorf("command for %s: %w", deviceID, err)
	}

	builder, ok := lookupPayload(d.Type, c)
	if !ok {
		return fmt.Errorf("command %s for %s (%s): %w", c, deviceID, d.Type, device.ErrUnsupportedCommand)
	}

	key, wire, err := builder(value)
	if err != nil {
		return fmt.Errorf("command %s for %s: %w", c, deviceID, err)
	}

	datapointID, ok := t.book.lookup(deviceID, c)
	if !ok {
		return fmt.Errorf("command %s for %s: %w", c, deviceID, ErrNoDatapoint)
	}

	if err := t.transport.PatchDatapoint(ctx, deviceID, datapointID, key, wire); err != nil {
		return fmt.Errorf("command %s for %s: %w", c, deviceID, err)
	}

	// Gateway accepted the write. Record it now, stamped fresh, so a
	// slower poll result cannot roll it back.
	if err := t.registry.ApplyOptimistic(ctx, deviceID, c, value); err != nil {
		t.logger.Warn("optimistic update failed", "device", deviceID, "capability", c, "error", err)
	}

	t.logger.Debug("command applied", "device", deviceID, "capability", c, "value", value)
	return nil
}
