// Package api provides the read-only HTTP API of the bridge.
//
// It exposes registry snapshots and health status over a small chi
// router for diagnostics and hub resynchronisation:
//
//	GET /api/v1/health        bridge status, sweep and push state
//	GET /api/v1/devices       all devices (filterable by type, available)
//	GET /api/v1/devices/{id}  single device snapshot
//
// Commands never travel over HTTP; all writes go through MQTT.
package api
