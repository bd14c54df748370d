// Package hub is the MQTT-facing boundary of the bridge.
//
// It has two halves:
//
//   - Notifier implements the registry's Events interface and publishes
//     device lifecycle, state and availability onto junghome/* topics.
//     State and availability are retained so the hub sees the current
//     picture immediately after (re)subscribing.
//
//   - CommandServer subscribes to junghome/command/+ and dispatches
//     validated capability commands to the translator, acknowledging
//     every command on junghome/command/{id}/result with a correlation
//     id (caller-provided or generated).
//
// Neither half touches the registry directly beyond the narrow
// interfaces it is given; all gateway interaction flows through the
// command translator.
package hub
