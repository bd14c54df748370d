// Package influxdb provides an optional time-series sink for device
// capability history.
//
// When enabled, capability changes (brightness, colour temperature,
// position, power as 0/1) and availability transitions are written as
// batched, non-blocking points. The sink is strictly observational: a
// down InfluxDB never affects synchronisation or command handling.
package influxdb
