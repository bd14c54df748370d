// Package device provides the device registry for the Jung Home bridge.
//
// The registry is the in-memory catalogue of every device the gateway
// exposes, keyed by gateway device id. It is the single writer-serialised
// point between the synchroniser (poll sweeps, push events), the command
// translator (optimistic updates) and the hub-facing readers (MQTT
// notifications, HTTP snapshots).
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                        Device Registry                        │
//	│                                                               │
//	│  ┌────────────────┐   ┌──────────────────┐   ┌────────────┐  │
//	│  │    Registry    │   │    Repository    │   │   Events   │  │
//	│  │  (registry.go) │──▶│ (repository.go)  │   │ (events.go)│  │
//	│  │                │   │                  │   │            │  │
//	│  │ • Upsert/diff  │   │ • SQLite upsert  │   │ • Fanout   │  │
//	│  │ • Miss debounce│   │ • JSON state     │   │ • Noop     │  │
//	│  │ • Availability │   │ • Warm-start load│   │            │  │
//	│  └────────────────┘   └──────────────────┘   └────────────┘  │
//	└──────────────────────────────────────────────────────────────┘
//
// # Key Types
//
//   - Device: A gateway device with id, type, label, state and availability
//   - DeviceType: Classification (on_off_light, dimmable_light, ...)
//   - Capability: A controllable aspect (power, brightness, color_temp, position)
//   - State: Capability values with per-value observation timestamps
//   - Events: Outbound notification interface consumed by hub adapters
//
// # Invariants
//
//   - A device's state keys always equal its type's capability set.
//   - Upserting identical values emits no events.
//   - A stored value with a newer observation timestamp is never
//     overwritten by an older one (stale polls lose to fresh commands).
//   - Eviction requires the configured number of consecutive absent
//     sweeps; a single flaky enumeration never removes a device.
//   - Marking devices unavailable retains their last-known state.
//
// # Usage
//
//	repo := device.NewSQLiteRepository(db)
//	registry := device.NewRegistry(repo, 2)
//	registry.SetLogger(log)
//	registry.SetEvents(fanout)
//
//	// Surface persisted devices before the first sweep
//	if err := registry.WarmCache(ctx); err != nil {
//	    return err
//	}
package device
