package hub

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/junghome-bridge/internal/device"
	"github.com/nerrad567/junghome-bridge/internal/infrastructure/mqtt"
)

// commandTimeout bounds a single command round-trip to the gateway.
const commandTimeout = 10 * time.Second

// Commander executes a capability command against a device.
// Implemented by the bridge's command translator.
type Commander interface {
	Apply(ctx context.Context, deviceID string, c device.Capability, value any) error
}

// Subscriber is the inbound MQTT surface the command server needs.
// Implemented by the infrastructure mqtt.Client.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// CommandMessage is the JSON payload expected on command topics.
type CommandMessage struct {
	Capability    string `json:"capability"`
	Value         any    `json:"value"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// CommandResult is the acknowledgement published for every command.
type CommandResult struct {
	CorrelationID string    `json:"correlation_id"`
	DeviceID      string    `json:"device_id"`
	Capability    string    `json:"capability,omitempty"`
	Status        string    `json:"status"`
	Error         string    `json:"error,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Result status values.
const (
	resultOK    = "ok"
	resultError = "error"
)

// CommandServer dispatches hub commands to the gateway translator.
//
// Every received command is acknowledged on the device's result topic,
// success or failure. Commands that fail local validation (unknown
// device, unsupported capability, out-of-range value) are rejected
// before any gateway traffic.
type CommandServer struct {
	sub        Subscriber
	pub        Publisher
	translator Commander
	topics     mqtt.Topics
	qos        byte
	logger     Logger
}

// NewCommandServer creates a command server.
// Call Start to begin receiving commands.
func NewCommandServer(sub Subscriber, pub Publisher, translator Commander, qos byte) *CommandServer {
	return &CommandServer{
		sub:        sub,
		pub:        pub,
		translator: translator,
		qos:        qos,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the command server.
func (s *CommandServer) SetLogger(logger Logger) {
	s.logger = logger
}

// Start subscribes to the command topic tree.
func (s *CommandServer) Start() error {
	return s.sub.Subscribe(s.topics.AllCommands(), s.qos, s.handleMessage)
}

// Stop unsubscribes from the command topic tree.
func (s *CommandServer) Stop() error {
	return s.sub.Unsubscribe(s.topics.AllCommands())
}

// handleMessage processes one inbound command message.
func (s *CommandServer) handleMessage(topic string, payload []byte) error {
	deviceID, ok := deviceIDFromTopic(topic)
	if !ok {
		s.logger.Warn("command on unexpected topic", "topic", topic)
		return nil
	}

	var msg CommandMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.publishResult(deviceID, CommandResult{
			CorrelationID: uuid.NewString(),
			DeviceID:      deviceID,
			Status:        resultError,
			Error:         "malformed command payload",
		})
		return nil
	}

	if msg.CorrelationID == "" {
		msg.CorrelationID = uuid.NewString()
	}

	result := CommandResult{
		CorrelationID: msg.CorrelationID,
		DeviceID:      deviceID,
		Capability:    msg.Capability,
		Status:        resultOK,
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := s.dispatch(ctx, deviceID, msg); err != nil {
		result.Status = resultError
		result.Error = commandErrorString(err)
		s.logger.Warn("command failed",
			"device_id", deviceID,
			"capability", msg.Capability,
			"correlation_id", msg.CorrelationID,
			"error", err)
	} else {
		s.logger.Debug("command applied",
			"device_id", deviceID,
			"capability", msg.Capability,
			"correlation_id", msg.CorrelationID)
	}

	s.publishResult(deviceID, result)
	return nil
}

// dispatch validates the capability name and hands off to the translator.
func (s *CommandServer) dispatch(ctx context.Context, deviceID string, msg CommandMessage) error {
	c := device.Capability(msg.Capability)
	switch c {
	case device.CapPower, device.CapBrightness, device.CapColorTemp, device.CapPosition:
	default:
		return device.ErrUnsupportedCommand
	}

	return s.translator.Apply(ctx, deviceID, c, msg.Value)
}

// publishResult publishes an acknowledgement, logging failures.
func (s *CommandServer) publishResult(deviceID string, result CommandResult) {
	result.Timestamp = time.Now().UTC()

	data, err := json.Marshal(result)
	if err != nil {
		s.logger.Error("marshalling command result", "device_id", deviceID, "error", err)
		return
	}

	if err := s.pub.Publish(s.topics.CommandResult(deviceID), data, s.qos, false); err != nil {
		s.logger.Warn("publishing command result failed", "device_id", deviceID, "error", err)
	}
}

// deviceIDFromTopic extracts the device id from junghome/command/{id}.
func deviceIDFromTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "junghome" || parts[1] != "command" || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

// commandErrorString maps dispatch errors onto stable, hub-friendly strings.
func commandErrorString(err error) string {
	switch {
	case errors.Is(err, device.ErrDeviceNotFound):
		return "unknown device"
	case errors.Is(err, device.ErrUnsupportedCommand):
		return "unsupported capability"
	case errors.Is(err, device.ErrValueRange):
		return "value out of range"
	default:
		return err.Error()
	}
}
