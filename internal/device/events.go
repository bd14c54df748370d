package device

// Events is the outbound notification interface. The registry calls it
// whenever the catalogue changes; implementations forward the changes to
// the hub (MQTT), metrics sinks, or anything else that cares.
//
// Implementations must not block: registry locks are not held during
// delivery, but slow sinks still delay the synchroniser. Buffer or drop
// internally if delivery is slow.
type Events interface {
	// DeviceDiscovered is called when a device appears for the first time.
	DeviceDiscovered(d Device)

	// DeviceUpdated is called when one or more capability values change.
	// The changed slice names the capabilities that differ.
	DeviceUpdated(d Device, changed []Capability)

	// DeviceRemoved is called after the disappearance debounce evicts a device.
	DeviceRemoved(id string)

	// DeviceAvailabilityChanged is called when reachability flips.
	DeviceAvailabilityChanged(d Device, available bool)
}

// NoopEvents is an Events implementation that does nothing.
// Useful as a default and in tests.
type NoopEvents struct{}

func (NoopEvents) DeviceDiscovered(Device)                {}
func (NoopEvents) DeviceUpdated(Device, []Capability)     {}
func (NoopEvents) DeviceRemoved(string)                   {}
func (NoopEvents) DeviceAvailabilityChanged(Device, bool) {}

// EventFanout delivers registry events to multiple sinks in order.
// Sinks must be added before the registry starts receiving traffic;
// Add is not safe to call concurrently with delivery.
type EventFanout struct {
	sinks []Events
}

// NewEventFanout creates a fanout over the given sinks.
func NewEventFanout(sinks ...Events) *EventFanout {
	return &EventFanout{sinks: sinks}
}

// Add appends a sink to the fanout.
func (f *EventFanout) Add(sink Events) {
	f.sinks = append(f.sinks, sink)
}

func (f *EventFanout) DeviceDiscovered(d Device) {
	for _, s := range f.sinks {
		s.DeviceDiscovered(d)
	}
}

func (f *EventFanout) DeviceUpdated(d Device, changed []Capability) {
	for _, s := range f.sinks {
		s.DeviceUpdated(d, changed)
	}
}

func (f *EventFanout) DeviceRemoved(id string) {
	for _, s := range f.sinks {
		s.DeviceRemoved(id)
	}
}

func (f *EventFanout) DeviceAvailabilityChanged(d Device, available bool) {
	for _, s := range f.sinks {
		s.DeviceAvailabilityChanged(d, available)
	}
}
