package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nerrad567/junghome-bridge/internal/device"
	"github.com/nerrad567/junghome-bridge/internal/infrastructure/config"
	"github.com/nerrad567/junghome-bridge/internal/infrastructure/logging"
)

// nopRepo satisfies device.Repository without persistence.
type nopRepo struct{}

func (nopRepo) Save(context.Context, *device.Device) error { return nil }
func (nopRepo) Delete(context.Context, string) error       { return nil }
func (nopRepo) GetByID(context.Context, string) (*device.Device, error) {
	return nil, device.ErrDeviceNotFound
}
func (nopRepo) List(context.Context) ([]device.Device, error) { return nil, nil }

// stubSync reports a fixed last sweep outcome.
type stubSync struct {
	last time.Time
	err  error
}

func (s stubSync) LastSweep() (time.Time, error) { return s.last, s.err }

// newTestServer builds a server with a seeded registry and returns its
// router for direct request testing.
func newTestServer(t *testing.T, sync SyncStatus) (http.Handler, *device.Registry) {
	t.Helper()

	registry := device.NewRegistry(nopRepo{}, 2)
	seed := []device.Device{
		{
			ID:   "d1",
			Type: device.TypeDimmableLight,
			State: device.State{
				device.CapPower:      {Value: true, ObservedAt: time.Now()},
				device.CapBrightness: {Value: 60, ObservedAt: time.Now()},
			},
		},
		{ID: "s1", Type: device.TypeSocket},
	}
	for _, d := range seed {
		if err := registry.Upsert(context.Background(), d); err != nil {
			t.Fatalf("seeding registry: %v", err)
		}
	}

	srv, err := New(Deps{
		Config:   config.APIConfig{Host: "127.0.0.1", Port: 0},
		Logger:   logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test"),
		Registry: registry,
		Sync:     sync,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return srv.buildRouter(), registry
}

func doRequest(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	router, _ := newTestServer(t, stubSync{last: time.Now()})

	rec := doRequest(t, router, "/api/v1/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["device_count"] != float64(2) {
		t.Errorf("device_count = %v, want 2", body["device_count"])
	}
}

func TestHandleHealth_DegradedOnSweepError(t *testing.T) {
	router, _ := newTestServer(t, stubSync{last: time.Now(), err: errors.New("gateway unreachable")})

	rec := doRequest(t, router, "/api/v1/health")
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", body["status"])
	}
	if _, ok := body["last_sweep_error"]; !ok {
		t.Error("missing last_sweep_error")
	}
}

func TestHandleListDevices(t *testing.T) {
	router, _ := newTestServer(t, nil)

	rec := doRequest(t, router, "/api/v1/devices/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Devices []device.Device `json:"devices"`
		Count   int             `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Count != 2 {
		t.Errorf("count = %d, want 2", body.Count)
	}
}

func TestHandleListDevices_TypeFilter(t *testing.T) {
	router, _ := newTestServer(t, nil)

	rec := doRequest(t, router, "/api/v1/devices/?type=socket")
	var body struct {
		Devices []device.Device `json:"devices"`
		Count   int             `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Count != 1 || body.Devices[0].ID != "s1" {
		t.Errorf("filtered devices = %+v", body.Devices)
	}
}

func TestHandleGetDevice(t *testing.T) {
	router, _ := newTestServer(t, nil)

	rec := doRequest(t, router, "/api/v1/devices/d1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var d device.Device
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if d.ID != "d1" || d.Type != device.TypeDimmableLight {
		t.Errorf("device = %+v", d)
	}
}

func TestHandleGetDevice_NotFound(t *testing.T) {
	router, _ := newTestServer(t, nil)

	rec := doRequest(t, router, "/api/v1/devices/ghost")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	var apiErr Error
	if err := json.Unmarshal(rec.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if apiErr.Code != ErrCodeNotFound {
		t.Errorf("code = %q, want %q", apiErr.Code, ErrCodeNotFound)
	}
}
