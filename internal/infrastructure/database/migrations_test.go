package database

import "testing"

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantUp      bool
		wantOK      bool
	}{
		{
			name:        "up migration",
			filename:    "20260115_100000_create_devices.up.sql",
			wantVersion: "20260115_100000",
			wantUp:      true,
			wantOK:      true,
		},
		{
			name:        "down migration",
			filename:    "20260115_100000_create_devices.down.sql",
			wantVersion: "20260115_100000",
			wantUp:      false,
			wantOK:      true,
		},
		{
			name:     "missing direction",
			filename: "20260115_100000_create_devices.sql",
			wantOK:   false,
		},
		{
			name:     "not sql",
			filename: "20260115_100000_create_devices.up.txt",
			wantOK:   false,
		},
		{
			name:     "no description",
			filename: "20260115.up.sql",
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if version != tt.wantVersion || isUp != tt.wantUp {
				t.Errorf("parseMigrationFilename(%q) = (%q, %v), want (%q, %v)",
					tt.filename, version, isUp, tt.wantVersion, tt.wantUp)
			}
		})
	}
}

func TestExtractMigrationName(t *testing.T) {
	got := extractMigrationName("20260115_100000_create_devices.up.sql")
	if got != "create_devices" {
		t.Errorf("extractMigrationName() = %q, want %q", got, "create_devices")
	}
}
