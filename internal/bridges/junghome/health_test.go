package junghome

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

// stubPublisher records health publications.
type stubPublisher struct {
	mu        sync.Mutex
	connected bool
	topics    []string
	payloads  [][]byte
	retained  []bool
}

func (s *stubPublisher) Publish(topic string, payload []byte, _ byte, retained bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics = append(s.topics, topic)
	s.payloads = append(s.payloads, payload)
	s.retained = append(s.retained, retained)
	return nil
}

func (s *stubPublisher) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// stubCounter reports a fixed device count.
type stubCounter struct{ n int }

func (s stubCounter) Count() int { return s.n }

func TestHealthReporter_PublishNow(t *testing.T) {
	pub := &stubPublisher{connected: true}
	h := NewHealthReporter(HealthReporterConfig{
		BridgeID:  "bridge-1",
		Version:   "1.0.0",
		Topic:     "junghome/bridge/health",
		Publisher: pub,
		Devices:   stubCounter{n: 7},
	})

	if err := h.PublishNow(); err != nil {
		t.Fatalf("PublishNow() error = %v", err)
	}

	if len(pub.payloads) != 1 {
		t.Fatalf("publications = %d, want 1", len(pub.payloads))
	}
	if pub.topics[0] != "junghome/bridge/health" || !pub.retained[0] {
		t.Errorf("published to %q retained=%v", pub.topics[0], pub.retained[0])
	}

	var msg HealthMessage
	if err := json.Unmarshal(pub.payloads[0], &msg); err != nil {
		t.Fatalf("decoding health message: %v", err)
	}
	if msg.Status != HealthHealthy {
		t.Errorf("status = %q, want healthy", msg.Status)
	}
	if msg.BridgeID != "bridge-1" || msg.Version != "1.0.0" {
		t.Errorf("identity = %q/%q", msg.BridgeID, msg.Version)
	}
	if msg.DeviceCount != 7 {
		t.Errorf("device_count = %d, want 7", msg.DeviceCount)
	}
}

func TestHealthReporter_DegradedWhenDisconnected(t *testing.T) {
	pub := &stubPublisher{connected: false}
	h := NewHealthReporter(HealthReporterConfig{
		BridgeID:  "bridge-1",
		Topic:     "junghome/bridge/health",
		Publisher: pub,
	})

	status, reason := h.determineStatus()
	if status != HealthDegraded {
		t.Errorf("status = %q, want degraded", status)
	}
	if reason == "" {
		t.Error("degraded status should carry a reason")
	}
}

func TestHealthReporter_StopPublishesStopping(t *testing.T) {
	pub := &stubPublisher{connected: true}
	h := NewHealthReporter(HealthReporterConfig{
		BridgeID:  "bridge-1",
		Topic:     "junghome/bridge/health",
		Publisher: pub,
		Interval:  time.Hour,
	})

	h.Stop()

	if len(pub.payloads) == 0 {
		t.Fatal("no final publication on Stop")
	}
	var msg HealthMessage
	if err := json.Unmarshal(pub.payloads[len(pub.payloads)-1], &msg); err != nil {
		t.Fatalf("decoding health message: %v", err)
	}
	if msg.Status != HealthStopping {
		t.Errorf("status = %q, want stopping", msg.Status)
	}
}
