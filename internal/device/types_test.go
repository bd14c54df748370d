package device

import (
	"testing"
	"time"
)

func TestCapabilitiesForType(t *testing.T) {
	tests := []struct {
		name    string
		devType DeviceType
		want    []Capability
		wantErr bool
	}{
		{
			name:    "on/off light",
			devType: TypeOnOffLight,
			want:    []Capability{CapPower},
		},
		{
			name:    "dimmable light",
			devType: TypeDimmableLight,
			want:    []Capability{CapPower, CapBrightness},
		},
		{
			name:    "tunable white light",
			devType: TypeTunableWhiteLight,
			want:    []Capability{CapPower, CapBrightness, CapColorTemp},
		},
		{
			name:    "socket",
			devType: TypeSocket,
			want:    []Capability{CapPower},
		},
		{
			name:    "window cover",
			devType: TypeWindowCover,
			want:    []Capability{CapPosition},
		},
		{
			name:    "unknown type",
			devType: DeviceType("thermostat"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CapabilitiesForType(tt.devType)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CapabilitiesForType() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("capabilities = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("capabilities = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestCapabilitiesForType_ReturnsCopy(t *testing.T) {
	caps, err := CapabilitiesForType(TypeDimmableLight)
	if err != nil {
		t.Fatalf("CapabilitiesForType() error = %v", err)
	}
	caps[0] = Capability("mutated")

	again, _ := CapabilitiesForType(TypeDimmableLight)
	if again[0] != CapPower {
		t.Error("mutating the returned slice corrupted the capability table")
	}
}

func TestSupportsCapability(t *testing.T) {
	if !SupportsCapability(TypeSocket, CapPower) {
		t.Error("socket should support power")
	}
	if SupportsCapability(TypeSocket, CapBrightness) {
		t.Error("socket should not support brightness")
	}
	if SupportsCapability(TypeWindowCover, CapPower) {
		t.Error("window cover should not support power")
	}
	if SupportsCapability(DeviceType("unknown"), CapPower) {
		t.Error("unknown type should support nothing")
	}
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"equal bools", true, true, true},
		{"different bools", true, false, false},
		{"equal ints", 50, 50, true},
		{"int and float same value", 50, float64(50), true},
		{"int and int64 same value", 50, int64(50), true},
		{"different numbers", 50, 51, false},
		{"bool vs number", true, 1, false},
		{"both nil", nil, nil, true},
		{"nil vs value", nil, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := valuesEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("valuesEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestDevice_DeepCopy(t *testing.T) {
	original := &Device{
		ID:   "d1",
		Type: TypeDimmableLight,
		State: State{
			CapBrightness: {Value: 50, ObservedAt: time.Now()},
		},
		Available: true,
	}

	clone := original.DeepCopy()
	clone.State[CapBrightness] = Value{Value: 99, ObservedAt: time.Now()}
	clone.Available = false

	if original.State[CapBrightness].Value != 50 {
		t.Error("mutating the copy's state affected the original")
	}
	if !original.Available {
		t.Error("mutating the copy's availability affected the original")
	}
}
