// Package junghome bridges the local Jung Home gateway onto the device
// registry.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                        junghome bridge                           │
//	│                                                                  │
//	│  ┌────────────┐  ┌────────────┐  ┌─────────────┐  ┌──────────┐  │
//	│  │ Transport  │  │    Wire    │  │ Synchronizer│  │PushClient│  │
//	│  │(transport) │◀─│ (wire.go)  │◀─│  (sync.go)  │◀─│(push.go) │  │
//	│  │            │  │            │  │             │  │          │  │
//	│  │ • token    │  │ • decode   │  │ • poll loop │  │ • wss    │  │
//	│  │ • typed    │  │ • cover    │  │ • error     │  │ • backoff│  │
//	│  │   errors   │  │   invert   │  │   taxonomy  │  │ • pings  │  │
//	│  └────────────┘  └────────────┘  └─────────────┘  └──────────┘  │
//	│        ▲                                                         │
//	│  ┌────────────┐  ┌─────────────┐  ┌──────────────┐              │
//	│  │ Translator │  │  Payloads   │  │HealthReporter│              │
//	│  │(commands)  │─▶│(payloads.go)│  │ (health.go)  │              │
//	│  └────────────┘  └─────────────┘  └──────────────┘              │
//	└─────────────────────────────────────────────────────────────────┘
//
// The Transport speaks the gateway's REST API (token header, JSON,
// string-typed datapoint values) and maps failures onto three sentinels
// with distinct recovery semantics: ErrAuth (halt), ErrTransport (mark
// unavailable, retry), ErrProtocol (skip, warn).
//
// The Synchronizer polls the full enumeration at a fixed interval and
// performs the registry's disappearance accounting each cycle. The
// PushClient, when enabled, shortens latency between sweeps but never
// replaces them.
//
// The Translator validates commands locally against the payload table
// before any network call, PATCHes the right datapoint, and applies the
// accepted value to the registry optimistically.
//
// Cover positions are inverted at the wire codec: the gateway reports
// percent-closed, everything above this package speaks percent-open.
package junghome
