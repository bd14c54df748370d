package hub

import (
	"encoding/json"
	"time"

	"github.com/nerrad567/junghome-bridge/internal/device"
	"github.com/nerrad567/junghome-bridge/internal/infrastructure/mqtt"
)

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Publisher is the outbound MQTT surface the notifier needs.
// Implemented by the infrastructure mqtt.Client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// availabilityPayload is the JSON published on availability topics.
type availabilityPayload struct {
	Available bool      `json:"available"`
	Timestamp time.Time `json:"timestamp"`
}

// removedPayload is the JSON published when a device is evicted.
type removedPayload struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier publishes registry events to the hub over MQTT.
//
// It implements device.Events. Publish failures are logged and dropped;
// retained topics self-heal on the next state change, and the hub can
// always resynchronise via the HTTP snapshot API.
type Notifier struct {
	pub    Publisher
	topics mqtt.Topics
	qos    byte
	logger Logger
}

// NewNotifier creates a notifier publishing with the given QoS.
func NewNotifier(pub Publisher, qos byte) *Notifier {
	return &Notifier{
		pub:    pub,
		qos:    qos,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the notifier.
func (n *Notifier) SetLogger(logger Logger) {
	n.logger = logger
}

// DeviceDiscovered announces a new device and seeds its retained topics.
func (n *Notifier) DeviceDiscovered(d device.Device) {
	n.publishJSON(n.topics.DeviceDiscovered(d.ID), d, false)
	n.publishState(d)
	n.publishAvailability(d.ID, d.Available)
}

// DeviceUpdated refreshes the retained state snapshot.
func (n *Notifier) DeviceUpdated(d device.Device, _ []device.Capability) {
	n.publishState(d)
}

// DeviceRemoved announces an eviction and clears the retained topics.
func (n *Notifier) DeviceRemoved(id string) {
	n.publishJSON(n.topics.DeviceRemoved(id), removedPayload{ID: id, Timestamp: time.Now().UTC()}, false)

	// Empty retained payloads delete the broker's retained messages
	n.publishRaw(n.topics.DeviceState(id), nil, true)
	n.publishRaw(n.topics.DeviceAvailability(id), nil, true)
}

// DeviceAvailabilityChanged refreshes the retained availability flag.
func (n *Notifier) DeviceAvailabilityChanged(d device.Device, available bool) {
	n.publishAvailability(d.ID, available)
}

// publishState publishes the retained state snapshot for a device.
func (n *Notifier) publishState(d device.Device) {
	n.publishJSON(n.topics.DeviceState(d.ID), d, true)
}

// publishAvailability publishes the retained availability flag.
func (n *Notifier) publishAvailability(id string, available bool) {
	n.publishJSON(n.topics.DeviceAvailability(id), availabilityPayload{
		Available: available,
		Timestamp: time.Now().UTC(),
	}, true)
}

// publishJSON marshals and publishes a payload, logging failures.
func (n *Notifier) publishJSON(topic string, payload any, retained bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("marshalling notification", "topic", topic, "error", err)
		return
	}
	n.publishRaw(topic, data, retained)
}

// publishRaw publishes raw bytes, logging failures.
func (n *Notifier) publishRaw(topic string, payload []byte, retained bool) {
	if err := n.pub.Publish(topic, payload, n.qos, retained); err != nil {
		n.logger.Warn("publishing notification failed", "topic", topic, "error", err)
	}
}
