// Package mqtt wraps eclipse/paho.mqtt.golang for the bridge's hub-facing
// event bus.
//
// The Client handles connection lifecycle (LWT, online/offline status on
// junghome/bridge/status), automatic reconnection with subscription
// restoration, validated publishes, and panic-safe message handlers.
//
// Topic layout (see topics.go for builders):
//
//	junghome/device/{id}/state         retained device state snapshots
//	junghome/device/{id}/availability  retained availability flags
//	junghome/device/{id}/discovered    discovery announcements
//	junghome/device/{id}/removed       eviction announcements
//	junghome/command/{id}              inbound hub commands
//	junghome/command/{id}/result       command acknowledgements
//	junghome/bridge/status             bridge online/offline (LWT)
//	junghome/bridge/health             periodic health reports
package mqtt
