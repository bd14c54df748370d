package junghome

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/junghome-bridge/internal/device"
)

// memRepo is a no-op persistence backend for bridge tests.
type memRepo struct{}

func (memRepo) Save(context.Context, *device.Device) error { return nil }
func (memRepo) Delete(context.Context, string) error       { return nil }
func (memRepo) GetByID(context.Context, string) (*device.Device, error) {
	return nil, device.ErrDeviceNotFound
}
func (memRepo) List(context.Context) ([]device.Device, error) { return nil, nil }

// gatewayStub is a fake gateway whose functions response can be swapped
// mid-test.
type gatewayStub struct {
	mu          sync.Mutex
	status      int
	body        string
	patches     int
	failPatches bool
}

func (g *gatewayStub) set(status int, body string) {
	g.mu.Lock()
	g.status = status
	g.body = body
	g.mu.Unlock()
}

func (g *gatewayStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()

		if r.Method == http.MethodPatch {
			if g.failPatches {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			g.patches++
			w.WriteHeader(http.StatusOK)
			return
		}

		status := g.status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		w.Write([]byte(g.body)) //nolint:errcheck
	}
}

func (g *gatewayStub) patchCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.patches
}

// newTestBridge wires a bridge and registry against a stub gateway.
func newTestBridge(t *testing.T, stub *gatewayStub) (*Bridge, *device.Registry) {
	t.Helper()
	srv := httptest.NewTLSServer(stub.handler())
	t.Cleanup(srv.Close)

	registry := device.NewRegistry(memRepo{}, 2)
	bridge := NewBridge(TransportConfig{
		Host:        strings.TrimPrefix(srv.URL, "https://"),
		Token:       "test-token",
		TLSInsecure: true,
	}, registry, time.Minute)

	return bridge, registry
}

const dimmerEnumeration = `[
	{"id":"f1","label":"Lamp","type":"DimmerLight","datapoints":[
		{"id":"dp-sw","type":"switch","values":[{"key":"switch","value":"1"}]},
		{"id":"dp-br","type":"brightness","values":[{"key":"brightness","value":"70"}]}
	]}
]`

func TestSynchronizer_SweepPopulatesRegistry(t *testing.T) {
	stub := &gatewayStub{}
	stub.set(http.StatusOK, dimmerEnumeration)
	bridge, registry := newTestBridge(t, stub)
	s := bridge.Synchronizer

	if halt := s.sweep(context.Background()); halt {
		t.Fatal("sweep requested halt on success")
	}

	d, err := registry.Get("f1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !d.Available {
		t.Error("swept device should be available")
	}
	if d.State[device.CapBrightness].Value != 70 {
		t.Errorf("brightness = %v, want 70", d.State[device.CapBrightness].Value)
	}

	// Address book learned the command refs
	if id, ok := s.book.lookup("f1", device.CapPower); !ok || id != "dp-sw" {
		t.Errorf("power ref = (%q, %v), want (dp-sw, true)", id, ok)
	}

	if last, lastErr := s.LastSweep(); last.IsZero() || lastErr != nil {
		t.Errorf("LastSweep() = (%v, %v)", last, lastErr)
	}
}

func TestSynchronizer_TransportErrorMarksUnavailable(t *testing.T) {
	stub := &gatewayStub{}
	stub.set(http.StatusOK, dimmerEnumeration)
	bridge, registry := newTestBridge(t, stub)
	s := bridge.Synchronizer

	if halt := s.sweep(context.Background()); halt {
		t.Fatal("initial sweep halted")
	}

	stub.set(http.StatusInternalServerError, "")
	if halt := s.sweep(context.Background()); halt {
		t.Fatal("transport failure must not halt")
	}

	d, err := registry.Get("f1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if d.Available {
		t.Error("device still available after gateway went unreachable")
	}
	if d.State[device.CapBrightness].Value != 70 {
		t.Errorf("brightness = %v, want last-known 70 retained", d.State[device.CapBrightness].Value)
	}
	if _, lastErr := s.LastSweep(); !errors.Is(lastErr, ErrTransport) {
		t.Errorf("LastSweep() error = %v, want ErrTransport", lastErr)
	}
}

func TestSynchronizer_ProtocolErrorSkipsCycle(t *testing.T) {
	stub := &gatewayStub{}
	stub.set(http.StatusOK, dimmerEnumeration)
	bridge, registry := newTestBridge(t, stub)
	s := bridge.Synchronizer

	s.sweep(context.Background())

	stub.set(http.StatusOK, `{broken`)
	if halt := s.sweep(context.Background()); halt {
		t.Fatal("protocol failure must not halt")
	}

	// Gateway is reachable, so devices keep their availability
	d, err := registry.Get("f1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !d.Available {
		t.Error("device lost availability over a malformed response")
	}
}

func TestSynchronizer_AuthErrorHalts(t *testing.T) {
	stub := &gatewayStub{}
	stub.set(http.StatusUnauthorized, "")
	bridge, _ := newTestBridge(t, stub)
	s := bridge.Synchronizer

	if halt := s.sweep(context.Background()); !halt {
		t.Fatal("auth failure must halt synchronisation")
	}

	select {
	case err := <-s.Fatal():
		if !errors.Is(err, ErrAuth) {
			t.Errorf("fatal error = %v, want ErrAuth", err)
		}
	default:
		t.Error("no error delivered on the fatal channel")
	}
}

func TestSynchronizer_DisappearanceAcrossSweeps(t *testing.T) {
	stub := &gatewayStub{}
	stub.set(http.StatusOK, dimmerEnumeration)
	bridge, registry := newTestBridge(t, stub)
	s := bridge.Synchronizer

	s.sweep(context.Background())

	// Device vanishes: survives one sweep, evicted on the second
	stub.set(http.StatusOK, `[]`)
	s.sweep(context.Background())
	if _, err := registry.Get("f1"); err != nil {
		t.Fatal("device evicted after a single missed sweep")
	}

	s.sweep(context.Background())
	if _, err := registry.Get("f1"); !errors.Is(err, device.ErrDeviceNotFound) {
		t.Errorf("Get() error = %v, want ErrDeviceNotFound after debounce", err)
	}
}

func TestSynchronizer_MalformedDescriptorGoesUnavailable(t *testing.T) {
	stub := &gatewayStub{}
	stub.set(http.StatusOK, dimmerEnumeration)
	bridge, registry := newTestBridge(t, stub)
	s := bridge.Synchronizer

	s.sweep(context.Background())

	// The descriptor keeps coming back with an unparsable brightness
	// value, for more sweeps than the miss threshold allows
	stub.set(http.StatusOK, `[
		{"id":"f1","label":"Lamp","type":"DimmerLight","datapoints":[
			{"id":"dp-sw","type":"switch","values":[{"key":"switch","value":"1"}]},
			{"id":"dp-br","type":"brightness","values":[{"key":"brightness","value":"broken"}]}
		]}
	]`)
	for i := 0; i < 4; i++ {
		if halt := s.sweep(context.Background()); halt {
			t.Fatal("decode failure must not halt")
		}
	}

	d, err := registry.Get("f1")
	if err != nil {
		t.Fatalf("Get() error = %v, unreadable device must not be evicted", err)
	}
	if d.Available {
		t.Error("device still available while its descriptor is unreadable")
	}
	if d.State[device.CapBrightness].Value != 70 {
		t.Errorf("brightness = %v, want last-known 70 retained", d.State[device.CapBrightness].Value)
	}

	// A readable descriptor restores it
	stub.set(http.StatusOK, dimmerEnumeration)
	s.sweep(context.Background())
	d, err = registry.Get("f1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !d.Available {
		t.Error("device still unavailable after descriptor recovered")
	}
}

func TestSynchronizer_HandleDeviceUpdate(t *testing.T) {
	stub := &gatewayStub{}
	bridge, registry := newTestBridge(t, stub)
	s := bridge.Synchronizer

	s.HandleDeviceUpdate(FunctionDescriptor{
		ID:    "p1",
		Label: "Pushed Socket",
		Type:  "Socket",
		Datapoints: []DatapointDescriptor{
			{ID: "dp-sw", Type: "switch", Values: []DatapointValue{{Value: "1"}}},
		},
	})

	d, err := registry.Get("p1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if d.State[device.CapPower].Value != true {
		t.Errorf("power = %v, want true", d.State[device.CapPower].Value)
	}
}

func TestSynchronizer_DatapointSignalRequestsSweep(t *testing.T) {
	stub := &gatewayStub{}
	bridge, _ := newTestBridge(t, stub)
	s := bridge.Synchronizer

	s.HandleDatapointSignal()
	// Coalesces: a second signal while one is pending is a no-op
	s.HandleDatapointSignal()

	select {
	case <-s.nudge:
	default:
		t.Fatal("no sweep request pending after datapoint signal")
	}
	select {
	case <-s.nudge:
		t.Fatal("datapoint signals did not coalesce")
	default:
	}
}
