package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/junghome-bridge/internal/device"
)

// handleListDevices returns all devices, optionally filtered by type.
//
// Query parameters:
//   - type: filter by device type (dimmable_light, socket, etc.)
//   - available: "true" or "false" to filter by availability
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices := s.registry.List()

	if typeStr := r.URL.Query().Get("type"); typeStr != "" {
		devices = filterDevices(devices, func(d device.Device) bool {
			return d.Type == device.DeviceType(typeStr)
		})
	}

	if availStr := r.URL.Query().Get("available"); availStr != "" {
		want := availStr == "true"
		devices = filterDevices(devices, func(d device.Device) bool {
			return d.Available == want
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns a single device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dev, err := s.registry.Get(id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to get device")
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

// filterDevices returns the devices matching the predicate.
func filterDevices(devices []device.Device, keep func(device.Device) bool) []device.Device {
	out := make([]device.Device, 0, len(devices))
	for _, d := range devices {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}
