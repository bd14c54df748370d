package junghome

import (
	"errors"
	"testing"

	"github.com/nerrad567/junghome-bridge/internal/device"
)

// TestPayloadTableComplete verifies every commandable (type, capability)
// pair has a payload builder, so no command can fall through to the
// gateway unencoded.
func TestPayloadTableComplete(t *testing.T) {
	for _, devType := range device.AllDeviceTypes() {
		caps, err := device.CapabilitiesForType(devType)
		if err != nil {
			t.Fatalf("CapabilitiesForType(%s) error = %v", devType, err)
		}
		for _, c := range caps {
			if _, ok := lookupPayload(devType, c); !ok {
				t.Errorf("no payload builder for (%s, %s)", devType, c)
			}
		}
	}
}

func TestBuildSwitch(t *testing.T) {
	key, wire, err := buildSwitch(true)
	if err != nil {
		t.Fatalf("buildSwitch(true) error = %v", err)
	}
	if key != dpSwitch || wire != "1" {
		t.Errorf("buildSwitch(true) = (%q, %q), want (%q, %q)", key, wire, dpSwitch, "1")
	}

	_, wire, err = buildSwitch(false)
	if err != nil {
		t.Fatalf("buildSwitch(false) error = %v", err)
	}
	if wire != "0" {
		t.Errorf("buildSwitch(false) wire = %q, want %q", wire, "0")
	}

	if _, _, err := buildSwitch(1); !errors.Is(err, device.ErrValueRange) {
		t.Errorf("buildSwitch(1) error = %v, want ErrValueRange", err)
	}
}

func TestBuildBrightness(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		wantWire string
		wantErr  bool
	}{
		{"zero", 0, "0", false},
		{"full", 100, "100", false},
		{"mid from json float", float64(55), "55", false},
		{"negative", -1, "", true},
		{"over range", 101, "", true},
		{"fractional", 50.5, "", true},
		{"wrong type", "bright", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, wire, err := buildBrightness(tt.value)
			if tt.wantErr {
				if !errors.Is(err, device.ErrValueRange) {
					t.Errorf("error = %v, want ErrValueRange", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildBrightness(%v) error = %v", tt.value, err)
			}
			if key != dpBrightness || wire != tt.wantWire {
				t.Errorf("buildBrightness(%v) = (%q, %q), want (%q, %q)", tt.value, key, wire, dpBrightness, tt.wantWire)
			}
		})
	}
}

func TestBuildColorTemp(t *testing.T) {
	if _, wire, err := buildColorTemp(MinColorTemp); err != nil || wire != "153" {
		t.Errorf("buildColorTemp(min) = (%q, %v), want (\"153\", nil)", wire, err)
	}
	if _, wire, err := buildColorTemp(MaxColorTemp); err != nil || wire != "588" {
		t.Errorf("buildColorTemp(max) = (%q, %v), want (\"588\", nil)", wire, err)
	}
	if _, _, err := buildColorTemp(MinColorTemp - 1); !errors.Is(err, device.ErrValueRange) {
		t.Errorf("below-range error = %v, want ErrValueRange", err)
	}
	if _, _, err := buildColorTemp(MaxColorTemp + 1); !errors.Is(err, device.ErrValueRange) {
		t.Errorf("above-range error = %v, want ErrValueRange", err)
	}
}

// The hub speaks percent-open, the gateway percent-closed.
func TestBuildPosition_Inverts(t *testing.T) {
	tests := []struct {
		open     int
		wantWire string
	}{
		{0, "100"},
		{100, "0"},
		{25, "75"},
	}

	for _, tt := range tests {
		key, wire, err := buildPosition(tt.open)
		if err != nil {
			t.Fatalf("buildPosition(%d) error = %v", tt.open, err)
		}
		if key != dpLevel || wire != tt.wantWire {
			t.Errorf("buildPosition(%d) = (%q, %q), want (%q, %q)", tt.open, key, wire, dpLevel, tt.wantWire)
		}
	}

	if _, _, err := buildPosition(150); !errors.Is(err, device.ErrValueRange) {
		t.Errorf("out-of-range error = %v, want ErrValueRange", err)
	}
}
