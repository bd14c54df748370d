package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry is the in-memory device catalogue. It is authoritative at
// runtime; the Repository behind it only provides warm-start persistence.
//
// Upserts perform value-level change detection so identical sweeps are
// silent, and per-capability observation timestamps so a stale poll
// result never overwrites a fresher optimistic update.
//
// A device missing from a sweep is not evicted immediately: it must be
// absent from missThreshold consecutive sweeps first. This debounces the
// gateway's habit of briefly dropping devices from its enumeration.
//
// All public methods are thread-safe. Events are delivered outside the
// registry lock, in the order the mutations occurred on the calling
// goroutine.
type Registry struct {
	repo          Repository
	missThreshold int

	cache   map[string]*Device // Cached devices by ID
	miss    map[string]int     // Consecutive sweeps each device was absent
	cacheMu sync.RWMutex       // Protects cache and miss

	events Events
	logger Logger
}

// NewRegistry creates a new device registry.
//
// Parameters:
//   - repo: Persistence backend (may be a no-op in tests)
//   - missThreshold: Consecutive absent sweeps before eviction (minimum 1)
func NewRegistry(repo Repository, missThreshold int) *Registry {
	if missThreshold < 1 {
		missThreshold = 1
	}
	return &Registry{
		repo:          repo,
		missThreshold: missThreshold,
		cache:         make(map[string]*Device),
		miss:          make(map[string]int),
		events:        NoopEvents{},
		logger:        noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetEvents sets the event sink. Must be called before traffic starts.
func (r *Registry) SetEvents(events Events) {
	if events == nil {
		events = NoopEvents{}
	}
	r.events = events
}

// WarmCache loads persisted devices into the cache at startup.
//
// Every loaded device is marked unavailable: the hub sees known entities
// immediately, but none are claimed reachable until the first successful
// sweep confirms them. A DeviceDiscovered event fires for each.
func (r *Registry) WarmCache(ctx context.Context) error {
	devices, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	discovered := make([]Device, 0, len(devices))

	r.cacheMu.Lock()
	r.cache = make(map[string]*Device, len(devices))
	r.miss = make(map[string]int)
	for i := range devices {
		d := devices[i].DeepCopy()
		d.Available = false
		r.cache[d.ID] = d
		discovered = append(discovered, *d.DeepCopy())
	}
	r.cacheMu.Unlock()

	for i := range discovered {
		r.events.DeviceDiscovered(discovered[i])
	}

	r.logger.Info("device cache warmed", "count", len(devices))
	return nil
}

// Upsert merges an observed device into the registry.
//
// New devices are admitted and announced via DeviceDiscovered. For known
// devices, each incoming capability value is compared against the stored
// one: values older than what is stored are ignored, equal values only
// refresh the observation timestamp, and genuinely different values are
// applied and announced via DeviceUpdated. An upsert always marks the
// device available.
//
// Returns ErrUnknownDeviceType if the type has no capability entry and
// ErrInvalidState if the state carries keys outside the capability set.
func (r *Registry) Upsert(ctx context.Context, incoming Device) error {
	caps, err := CapabilitiesForType(incoming.Type)
	if err != nil {
		return fmt.Errorf("upserting device %s: %w", incoming.ID, err)
	}
	for key := range incoming.State {
		if !SupportsCapability(incoming.Type, key) {
			return fmt.Errorf("upserting device %s: capability %s: %w", incoming.ID, key, ErrInvalidState)
		}
	}

	now := time.Now().UTC()

	r.cacheMu.Lock()
	existing, known := r.cache[incoming.ID]

	if !known {
		d := incoming.DeepCopy()
		if d.State == nil {
			d.State = make(State, len(caps))
		}
		d.Available = true
		d.CreatedAt = now
		d.UpdatedAt = now
		r.cache[d.ID] = d
		delete(r.miss, d.ID)
		snapshot := *d.DeepCopy()
		r.cacheMu.Unlock()

		r.persist(ctx, &snapshot)
		r.events.DeviceDiscovered(snapshot)
		r.logger.Info("device discovered", "id", snapshot.ID, "type", snapshot.Type, "label", snapshot.Label)
		return nil
	}

	updated := existing.DeepCopy()
	if updated.State == nil {
		updated.State = make(State, len(caps))
	}

	// Walk capabilities in table order so the changed list is deterministic
	var changed []Capability
	for _, c := range caps {
		val, present := incoming.State[c]
		if !present {
			continue
		}
		cur, has := updated.State[c]
		if has && cur.ObservedAt.After(val.ObservedAt) {
			// Stored value is fresher (e.g. optimistic command update
			// racing a slow poll). Keep it.
			continue
		}
		if has && valuesEqual(cur.Value, val.Value) {
			updated.State[c] = val // refresh timestamp only
			continue
		}
		updated.State[c] = val
		changed = append(changed, c)
	}

	labelChanged := incoming.Label != "" && incoming.Label != updated.Label
	if labelChanged {
		updated.Label = incoming.Label
	}

	becameAvailable := !updated.Available
	updated.Available = true

	dirty := len(changed) > 0 || labelChanged || becameAvailable
	if dirty {
		updated.UpdatedAt = now
	}

	r.cache[updated.ID] = updated
	delete(r.miss, updated.ID)
	snapshot := *updated.DeepCopy()
	r.cacheMu.Unlock()

	if dirty {
		r.persist(ctx, &snapshot)
	}
	if becameAvailable {
		r.events.DeviceAvailabilityChanged(snapshot, true)
	}
	if len(changed) > 0 || labelChanged {
		r.events.DeviceUpdated(snapshot, changed)
		r.logger.Debug("device updated", "id", snapshot.ID, "changed", changed)
	}

	return nil
}

// Sweep processes a full gateway enumeration.
//
// Every enumerated device is upserted first, then disappearance
// accounting runs: devices absent from the enumeration accumulate a miss
// count, are marked unavailable after the first miss (state untouched),
// and are evicted (with a DeviceRemoved event) once they have been
// absent from missThreshold consecutive sweeps. Devices with unknown
// types are skipped with a warning rather than failing the sweep.
//
// The unreadable list names devices the gateway enumerated but whose
// descriptors could not be decoded. They count as seen, so a persistent
// decode failure never evicts a device; it only goes unavailable until
// a readable descriptor comes back.
func (r *Registry) Sweep(ctx context.Context, enumerated []Device, unreadable []string) error {
	seen := make(map[string]struct{}, len(enumerated)+len(unreadable))
	for i := range enumerated {
		if err := r.Upsert(ctx, enumerated[i]); err != nil {
			if errors.Is(err, ErrUnknownDeviceType) || errors.Is(err, ErrInvalidState) {
				r.logger.Warn("skipping device in sweep", "id", enumerated[i].ID, "error", err)
				continue
			}
			return err
		}
		seen[enumerated[i].ID] = struct{}{}
	}

	var removed []string
	var lost []Device

	r.cacheMu.Lock()
	for _, id := range unreadable {
		seen[id] = struct{}{}
		d, ok := r.cache[id]
		if !ok {
			continue
		}
		delete(r.miss, id)
		if d.Available {
			updated := d.DeepCopy()
			updated.Available = false
			r.cache[id] = updated
			lost = append(lost, *updated.DeepCopy())
		}
	}
	for id, d := range r.cache {
		if _, ok := seen[id]; ok {
			continue
		}
		r.miss[id]++
		if r.miss[id] >= r.missThreshold {
			delete(r.cache, id)
			delete(r.miss, id)
			removed = append(removed, id)
			continue
		}
		if d.Available {
			updated := d.DeepCopy()
			updated.Available = false
			r.cache[id] = updated
			lost = append(lost, *updated.DeepCopy())
		}
	}
	r.cacheMu.Unlock()

	for i := range lost {
		r.persist(ctx, &lost[i])
		r.events.DeviceAvailabilityChanged(lost[i], false)
		r.logger.Debug("device unavailable pending confirmation", "id", lost[i].ID)
	}

	for _, id := range removed {
		if err := r.repo.Delete(ctx, id); err != nil && !errors.Is(err, ErrDeviceNotFound) {
			r.logger.Warn("deleting persisted device failed", "id", id, "error", err)
		}
		r.events.DeviceRemoved(id)
		r.logger.Info("device removed", "id", id)
	}

	return nil
}

// ApplyOptimistic records a capability value immediately after a command
// is accepted by the gateway, stamped with the current time so a
// subsequent stale poll cannot roll it back.
//
// Returns ErrDeviceNotFound for unknown ids and ErrUnsupportedCommand if
// the device type lacks the capability.
func (r *Registry) ApplyOptimistic(ctx context.Context, id string, c Capability, value any) error {
	now := time.Now().UTC()

	r.cacheMu.Lock()
	existing, ok := r.cache[id]
	if !ok {
		r.cacheMu.Unlock()
		return fmt.Errorf("optimistic update %s: %w", id, ErrDeviceNotFound)
	}
	if !SupportsCapability(existing.Type, c) {
		r.cacheMu.Unlock()
		return fmt.Errorf("optimistic update %s %s: %w", id, c, ErrUnsupportedCommand)
	}

	updated := existing.DeepCopy()
	cur := updated.State[c]
	changed := !valuesEqual(cur.Value, value)
	updated.State[c] = Value{Value: value, ObservedAt: now}
	updated.UpdatedAt = now
	r.cache[id] = updated
	snapshot := *updated.DeepCopy()
	r.cacheMu.Unlock()

	r.persist(ctx, &snapshot)
	if changed {
		r.events.DeviceUpdated(snapshot, []Capability{c})
	}
	return nil
}

// MarkAllUnavailable flips every device to unavailable without touching
// state. Called when the gateway becomes unreachable: last-known values
// are retained so the hub can keep showing them.
func (r *Registry) MarkAllUnavailable(ctx context.Context) {
	var flipped []Device

	r.cacheMu.Lock()
	for id, d := range r.cache {
		if !d.Available {
			continue
		}
		updated := d.DeepCopy()
		updated.Available = false
		r.cache[id] = updated
		flipped = append(flipped, *updated.DeepCopy())
	}
	r.cacheMu.Unlock()

	for i := range flipped {
		r.persist(ctx, &flipped[i])
		r.events.DeviceAvailabilityChanged(flipped[i], false)
	}

	if len(flipped) > 0 {
		r.logger.Warn("all devices marked unavailable", "count", len(flipped))
	}
}

// Get retrieves a device by ID.
// Returns ErrDeviceNotFound if the device does not exist.
// The returned device is a deep copy; callers can safely modify it.
func (r *Registry) Get(id string) (*Device, error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	d, ok := r.cache[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return d.DeepCopy(), nil
}

// List retrieves all devices.
// The returned devices are deep copies; callers can safely modify them.
func (r *Registry) List() []Device {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	devices := make([]Device, 0, len(r.cache))
	for _, d := range r.cache {
		devices = append(devices, *d.DeepCopy())
	}
	return devices
}

// Count returns the number of cached devices.
func (r *Registry) Count() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}

// persist saves a device snapshot, logging rather than failing on error.
// The cache is authoritative at runtime; persistence only serves warm
// starts, so a write failure must not break synchronisation.
func (r *Registry) persist(ctx context.Context, d *Device) {
	if err := r.repo.Save(ctx, d); err != nil {
		r.logger.Warn("persisting device failed", "id", d.ID, "error", err)
	}
}
