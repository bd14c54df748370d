package influxdb

import "errors"

// Errors for the influxdb package, checked with errors.Is().
var (
	// ErrDisabled is returned by Connect when InfluxDB is disabled in config.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrConnectionFailed is returned when the server cannot be reached.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrNotConnected is returned when an operation requires a live connection.
	ErrNotConnected = errors.New("influxdb: not connected")
)
