package junghome

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// HealthStatus is the bridge health state published to the hub.
type HealthStatus string

// HealthStatus constants.
const (
	HealthStarting HealthStatus = "starting"
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage is the JSON payload published on the health topic.
type HealthMessage struct {
	BridgeID       string       `json:"bridge_id"`
	Version        string       `json:"version"`
	Status         HealthStatus `json:"status"`
	Reason         string       `json:"reason,omitempty"`
	UptimeSeconds  int64        `json:"uptime_seconds"`
	DeviceCount    int          `json:"device_count"`
	PushConnected  bool         `json:"push_connected"`
	LastSweep      *time.Time   `json:"last_sweep,omitempty"`
	LastSweepError string       `json:"last_sweep_error,omitempty"`
	Timestamp      time.Time    `json:"timestamp"`
}

// HealthPublisher is the interface for publishing health messages.
// This is typically implemented by an MQTT client.
type HealthPublisher interface {
	// Publish sends a message to a topic with the specified QoS and retention.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// IsConnected returns true if the publisher is connected.
	IsConnected() bool
}

// DeviceCounter reports the number of managed devices.
// Implemented by the device registry.
type DeviceCounter interface {
	Count() int
}

// HealthReporterConfig holds configuration for the health reporter.
type HealthReporterConfig struct {
	// BridgeID identifies this bridge in health messages.
	BridgeID string

	// Version is the bridge software version.
	Version string

	// Interval is how often to publish health status.
	// Default: 30 seconds.
	Interval time.Duration

	// Topic is the MQTT topic to publish on.
	Topic string

	// Publisher is the MQTT client for publishing messages.
	Publisher HealthPublisher

	// Synchronizer provides last sweep status.
	Synchronizer *Synchronizer

	// Push provides event stream status (may be nil).
	Push *PushClient

	// Devices provides the managed device count.
	Devices DeviceCounter
}

// HealthReporter publishes periodic bridge health to MQTT.
type HealthReporter struct {
	bridgeID  string
	version   string
	topic     string
	startTime time.Time
	interval  time.Duration
	publisher HealthPublisher
	sync      *Synchronizer
	push      *PushClient
	devices   DeviceCounter

	// Shutdown coordination (stopOnce prevents double-close panics)
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger Logger
}

// NewHealthReporter creates a health reporter.
// Call Start to begin reporting.
func NewHealthReporter(cfg HealthReporterConfig) *HealthReporter {
	interval := cfg.Interval
	if interval == 0 {
		interval = 30 * time.Second
	}

	return &HealthReporter{
		bridgeID:  cfg.BridgeID,
		version:   cfg.Version,
		topic:     cfg.Topic,
		startTime: time.Now(),
		interval:  interval,
		publisher: cfg.Publisher,
		sync:      cfg.Synchronizer,
		push:      cfg.Push,
		devices:   cfg.Devices,
		done:      make(chan struct{}),
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for this reporter.
func (h *HealthReporter) SetLogger(logger Logger) {
	h.logger = logger
}

// Start begins periodic health reporting.
//
// Parameters:
//   - ctx: Context for cancellation (will stop reporting when cancelled)
func (h *HealthReporter) Start(ctx context.Context) {
	h.wg.Add(1)
	go h.reportLoop(ctx)
}

// Stop gracefully stops health reporting.
// Publishes a final "stopping" status before returning.
// Safe to call multiple times.
func (h *HealthReporter) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		// Best-effort during shutdown, nothing to do if it fails
		h.publishStatus(HealthStopping, "") //nolint:errcheck
	})
}

// PublishStarting publishes a "starting" status during initialisation.
func (h *HealthReporter) PublishStarting() error {
	return h.publishStatus(HealthStarting, "bridge starting")
}

// PublishNow publishes the current health status immediately.
func (h *HealthReporter) PublishNow() error {
	status, reason := h.determineStatus()
	return h.publishStatus(status, reason)
}

// reportLoop runs the periodic health reporting.
func (h *HealthReporter) reportLoop(ctx context.Context) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	if err := h.PublishNow(); err != nil {
		h.logger.Error("failed to publish initial health", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			if err := h.PublishNow(); err != nil {
				h.logger.Error("failed to publish health", "error", err)
			}
		}
	}
}

// determineStatus evaluates the current bridge status.
func (h *HealthReporter) determineStatus() (HealthStatus, string) {
	if h.publisher == nil || !h.publisher.IsConnected() {
		return HealthDegraded, "MQTT disconnected"
	}

	if h.sync != nil {
		if _, err := h.sync.LastSweep(); err != nil {
			return HealthDegraded, "last sweep failed: " + err.Error()
		}
	}

	return HealthHealthy, ""
}

// publishStatus publishes a health status message.
func (h *HealthReporter) publishStatus(status HealthStatus, reason string) error {
	if h.publisher == nil {
		return nil
	}

	msg := HealthMessage{
		BridgeID:      h.bridgeID,
		Version:       h.version,
		Status:        status,
		Reason:        reason,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Timestamp:     time.Now().UTC(),
	}

	if h.devices != nil {
		msg.DeviceCount = h.devices.Count()
	}
	if h.push != nil {
		msg.PushConnected = h.push.IsConnected()
	}
	if h.sync != nil {
		last, err := h.sync.LastSweep()
		if !last.IsZero() {
			msg.LastSweep = &last
		}
		if err != nil {
			msg.LastSweepError = err.Error()
		}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	// QoS 1, retained so new subscribers see the latest health
	return h.publisher.Publish(h.topic, payload, 1, true)
}
