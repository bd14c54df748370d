package junghome

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nerrad567/junghome-bridge/internal/device"
)

// Synchronizer keeps the device registry aligned with the gateway.
//
// Polling is the baseline: a full enumeration runs at the configured
// interval and always performs the registry's disappearance accounting.
// Push events, when enabled, arrive through the PushHandler methods and
// tighten latency between sweeps; they never replace polling.
//
// Error handling follows the transport's taxonomy:
//   - ErrAuth halts synchronisation permanently. The error is delivered
//     on the Fatal channel; the bridge cannot operate with a bad token.
//   - ErrTransport marks every device unavailable without clearing
//     state, and polling continues.
//   - ErrProtocol skips the cycle with a warning. The gateway is
//     reachable, so devices stay available with their last-known state.
type Synchronizer struct {
	transport *Transport
	registry  *device.Registry
	book      *addressBook
	interval  time.Duration

	// nudge triggers an immediate sweep (push datapoint signals).
	nudge chan struct{}

	// fatal delivers the halting error, if any. Buffered so the run
	// loop never blocks on an absent listener.
	fatal chan error

	// Shutdown coordination (stopOnce prevents double-close panics)
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	// Last sweep outcome for health reporting.
	lastSweep   time.Time
	lastErr     error
	lastSweepMu sync.RWMutex

	logger Logger
}

// newSynchronizer creates a synchroniser.
// The address book is shared with the Translator; the synchroniser is
// its only writer. Constructed via NewBridge.
func newSynchronizer(transport *Transport, registry *device.Registry, book *addressBook, interval time.Duration) *Synchronizer {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Synchronizer{
		transport: transport,
		registry:  registry,
		book:      book,
		interval:  interval,
		nudge:     make(chan struct{}, 1),
		fatal:     make(chan error, 1),
		done:      make(chan struct{}),
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the synchroniser.
func (s *Synchronizer) SetLogger(logger Logger) {
	s.logger = logger
}

// Start begins the polling loop. An initial sweep runs immediately.
// Call Stop to shut down.
func (s *Synchronizer) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop gracefully stops synchronisation.
// Safe to call multiple times.
func (s *Synchronizer) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}

// Fatal returns a channel that delivers the error that halted
// synchronisation. Only authentication failures halt.
func (s *Synchronizer) Fatal() <-chan error {
	return s.fatal
}

// RequestSweep asks for an immediate sweep without waiting for the next
// tick. Coalesces if one is already pending.
func (s *Synchronizer) RequestSweep() {
	select {
	case s.nudge <- struct{}{}:
	default:
	}
}

// LastSweep returns when the last sweep completed and its error, if any.
func (s *Synchronizer) LastSweep() (time.Time, error) {
	s.lastSweepMu.RLock()
	defer s.lastSweepMu.RUnlock()
	return s.lastSweep, s.lastErr
}

// run is the polling loop.
func (s *Synchronizer) run(ctx context.Context) {
	defer s.wg.Done()

	if halt := s.sweep(ctx); halt {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			if halt := s.sweep(ctx); halt {
				return
			}
		case <-s.nudge:
			if halt := s.sweep(ctx); halt {
				return
			}
		}
	}
}

// sweep performs one full enumeration cycle.
// Returns true if synchronisation must halt.
func (s *Synchronizer) sweep(ctx context.Context) (halt bool) {
	descriptors, err := s.transport.FetchFunctions(ctx)
	if err != nil {
		s.recordSweep(err)

		switch {
		case errors.Is(err, ErrAuth):
			s.logger.Error("gateway rejected credentials, halting synchronisation", "error", err)
			s.fatal <- err
			return true

		case errors.Is(err, ErrTransport):
			s.logger.Warn("gateway unreachable, marking devices unavailable", "error", err)
			s.registry.MarkAllUnavailable(ctx)
			return false

		default:
			s.logger.Warn("sweep skipped", "error", err)
			return false
		}
	}

	s.applyEnumeration(ctx, descriptors)
	s.recordSweep(nil)
	return false
}

// applyEnumeration decodes an enumeration and feeds it to the registry,
// refreshing the command address book on the way.
func (s *Synchronizer) applyEnumeration(ctx context.Context, descriptors []FunctionDescriptor) {
	now := time.Now().UTC()
	devices := make([]device.Device, 0, len(descriptors))
	var unreadable []string

	for _, fd := range descriptors {
		d, refs, err := decodeDevice(fd, now)
		if err != nil {
			// One bad descriptor must not poison the sweep. The device
			// is still on the gateway, so it counts as seen for the
			// disappearance accounting rather than drifting towards
			// eviction.
			s.logger.Warn("skipping device", "id", fd.ID, "error", err)
			if fd.ID != "" {
				unreadable = append(unreadable, fd.ID)
			}
			continue
		}
		s.book.update(d.ID, refs)
		devices = append(devices, d)
	}

	if err := s.registry.Sweep(ctx, devices, unreadable); err != nil {
		s.logger.Error("registry sweep failed", "error", err)
	}

	s.logger.Debug("sweep complete", "devices", len(devices))
}

// recordSweep stores the outcome of the last sweep for health reporting.
func (s *Synchronizer) recordSweep(err error) {
	s.lastSweepMu.Lock()
	s.lastSweep = time.Now().UTC()
	s.lastErr = err
	s.lastSweepMu.Unlock()
}

// HandleEnumeration processes a full device list pushed by the gateway.
// It behaves exactly like a poll sweep, including disappearance
// accounting.
func (s *Synchronizer) HandleEnumeration(descriptors []FunctionDescriptor) {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	s.applyEnumeration(ctx, descriptors)
	s.recordSweep(nil)
}

// HandleDeviceUpdate processes a single-device push message. Only that
// device is touched; no disappearance accounting runs.
func (s *Synchronizer) HandleDeviceUpdate(fd FunctionDescriptor) {
	now := time.Now().UTC()
	d, refs, err := decodeDevice(fd, now)
	if err != nil {
		s.logger.Warn("skipping pushed device", "id", fd.ID, "error", err)
		return
	}
	s.book.update(d.ID, refs)

	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	if err := s.registry.Upsert(ctx, d); err != nil {
		s.logger.Warn("pushed device upsert failed", "id", d.ID, "error", err)
	}
}

// HandleDatapointSignal reacts to a datapoint change notification whose
// payload does not identify the full device state: the next sweep is
// pulled forward instead of guessing.
func (s *Synchronizer) HandleDatapointSignal() {
	s.RequestSweep()
}
