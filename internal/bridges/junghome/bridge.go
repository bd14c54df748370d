package junghome

import (
	"time"

	"github.com/nerrad567/junghome-bridge/internal/device"
)

// Bridge bundles the gateway-facing components around one shared
// datapoint address book.
type Bridge struct {
	Transport    *Transport
	Synchronizer *Synchronizer
	Translator   *Translator
}

// NewBridge wires a transport, synchroniser and translator against the
// given registry. The push client, being optional, is created
// separately with NewPushClient and handed the bridge's Synchronizer
// as its handler.
func NewBridge(cfg TransportConfig, registry *device.Registry, pollInterval time.Duration) *Bridge {
	transport := NewTransport(cfg)
	book := newAddressBook()

	return &Bridge{
		Transport:    transport,
		Synchronizer: newSynchronizer(transport, registry, book, pollInterval),
		Translator:   newTranslator(transport, registry, book),
	}
}

// SetLogger sets the logger on all bridge components.
func (b *Bridge) SetLogger(logger Logger) {
	b.Transport.SetLogger(logger)
	b.Synchronizer.SetLogger(logger)
	b.Translator.SetLogger(logger)
}
