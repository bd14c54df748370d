package junghome

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/nerrad567/junghome-bridge/internal/device"
)

// seedBridge runs one sweep so the registry and address book know the
// stub gateway's devices.
func seedBridge(t *testing.T, stub *gatewayStub, enumeration string) (*Bridge, *device.Registry) {
	t.Helper()
	stub.set(http.StatusOK, enumeration)
	bridge, registry := newTestBridge(t, stub)
	if halt := bridge.Synchronizer.sweep(context.Background()); halt {
		t.Fatal("seeding sweep halted")
	}
	return bridge, registry
}

func TestTranslator_SetPowerPatchesAndUpdates(t *testing.T) {
	stub := &gatewayStub{}
	bridge, registry := seedBridge(t, stub, dimmerEnumeration)

	if err := bridge.Translator.SetPower(context.Background(), "f1", false); err != nil {
		t.Fatalf("SetPower() error = %v", err)
	}

	if stub.patchCount() != 1 {
		t.Errorf("patches = %d, want 1", stub.patchCount())
	}

	d, err := registry.Get("f1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if d.State[device.CapPower].Value != false {
		t.Errorf("power = %v, want optimistic false", d.State[device.CapPower].Value)
	}
}

// Turning off must not disturb brightness; turning back on restores it.
func TestTranslator_OffPreservesBrightness(t *testing.T) {
	stub := &gatewayStub{}
	bridge, registry := seedBridge(t, stub, dimmerEnumeration)

	if err := bridge.Translator.SetPower(context.Background(), "f1", false); err != nil {
		t.Fatalf("SetPower(off) error = %v", err)
	}

	d, err := registry.Get("f1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if d.State[device.CapBrightness].Value != 70 {
		t.Errorf("brightness = %v, want untouched 70", d.State[device.CapBrightness].Value)
	}
}

func TestTranslator_LocalRejectionsSkipNetwork(t *testing.T) {
	stub := &gatewayStub{}
	bridge, _ := seedBridge(t, stub, dimmerEnumeration)
	tr := bridge.Translator
	ctx := context.Background()

	tests := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{
			name:    "unknown device",
			run:     func() error { return tr.SetPower(ctx, "ghost", true) },
			wantErr: device.ErrDeviceNotFound,
		},
		{
			name:    "unsupported capability",
			run:     func() error { return tr.SetPosition(ctx, "f1", 50) },
			wantErr: device.ErrUnsupportedCommand,
		},
		{
			name:    "value out of range",
			run:     func() error { return tr.SetBrightness(ctx, "f1", 150) },
			wantErr: device.ErrValueRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if stub.patchCount() != 0 {
		t.Errorf("patches = %d, want 0 for locally rejected commands", stub.patchCount())
	}
}

func TestTranslator_MissingDatapointRef(t *testing.T) {
	// Enumeration lists the brightness datapoint but no switch datapoint,
	// so power commands have nowhere to go.
	const partial = `[
		{"id":"f1","label":"Lamp","type":"DimmerLight","datapoints":[
			{"id":"dp-br","type":"brightness","values":[{"value":"40"}]}
		]}
	]`
	stub := &gatewayStub{}
	bridge, _ := seedBridge(t, stub, partial)

	err := bridge.Translator.SetPower(context.Background(), "f1", true)
	if !errors.Is(err, ErrNoDatapoint) {
		t.Errorf("error = %v, want ErrNoDatapoint", err)
	}
	if stub.patchCount() != 0 {
		t.Errorf("patches = %d, want 0", stub.patchCount())
	}
}

func TestTranslator_GatewayErrorPropagates(t *testing.T) {
	stub := &gatewayStub{}
	bridge, registry := seedBridge(t, stub, dimmerEnumeration)

	// Gateway starts refusing writes
	stub.mu.Lock()
	stub.failPatches = true
	stub.mu.Unlock()

	err := bridge.Translator.SetBrightness(context.Background(), "f1", 20)
	if !errors.Is(err, ErrTransport) {
		t.Errorf("error = %v, want ErrTransport", err)
	}

	// No optimistic update on failure
	d, getErr := registry.Get("f1")
	if getErr != nil {
		t.Fatalf("Get() error = %v", getErr)
	}
	if d.State[device.CapBrightness].Value != 70 {
		t.Errorf("brightness = %v, want unchanged 70", d.State[device.CapBrightness].Value)
	}
}
