package junghome

import "errors"

// Errors for the junghome package, checked with errors.Is().
//
// The three transport-level sentinels carry distinct recovery semantics:
// ErrAuth means the token is bad and retrying is pointless, ErrTransport
// means the gateway is unreachable and retrying will likely recover, and
// ErrProtocol means the gateway answered with something unparseable.
var (
	// ErrAuth is returned when the gateway rejects the token (401/403).
	// The synchroniser halts on this error; a bad token never fixes itself.
	ErrAuth = errors.New("junghome: authentication rejected")

	// ErrTransport is returned for network failures and server errors.
	// Devices are marked unavailable but retain their last-known state.
	ErrTransport = errors.New("junghome: gateway unreachable")

	// ErrProtocol is returned when a gateway response cannot be decoded.
	ErrProtocol = errors.New("junghome: malformed gateway response")

	// ErrNoDatapoint is returned when a command targets a capability the
	// gateway never reported a datapoint id for.
	ErrNoDatapoint = errors.New("junghome: no datapoint for capability")
)
