// junghomed bridges a Jung Home gateway onto MQTT.
//
// It discovers the gateway's devices, mirrors their state into a local
// registry backed by SQLite, republishes changes to the hub over MQTT,
// and translates hub commands back into gateway datapoint writes.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/junghome-bridge/migrations"

	"github.com/nerrad567/junghome-bridge/internal/api"
	"github.com/nerrad567/junghome-bridge/internal/bridges/junghome"
	"github.com/nerrad567/junghome-bridge/internal/device"
	"github.com/nerrad567/junghome-bridge/internal/hub"
	"github.com/nerrad567/junghome-bridge/internal/infrastructure/config"
	"github.com/nerrad567/junghome-bridge/internal/infrastructure/database"
	"github.com/nerrad567/junghome-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/junghome-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/junghome-bridge/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting junghome bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise device registry
	deviceRepo := device.NewSQLiteRepository(db)
	registry := device.NewRegistry(deviceRepo, cfg.Sync.MissThreshold)
	registry.SetLogger(log.Component("registry"))

	// Connect to MQTT broker (optional but strongly recommended; the
	// bridge degrades to poll-and-HTTP-API without it)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled, hub integration is off")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Wire registry event sinks before anything can emit events
	sinks := device.NewEventFanout()
	if mqttClient != nil {
		notifier := hub.NewNotifier(mqttClient, byte(cfg.MQTT.QoS))
		notifier.SetLogger(log.Component("notifier"))
		sinks.Add(notifier)
	}
	if influxClient != nil {
		sinks.Add(&influxEventSink{client: influxClient})
	}
	registry.SetEvents(sinks)

	// Warm the registry from the last persisted snapshot; everything is
	// unavailable until the first sweep confirms it
	if warmErr := registry.WarmCache(ctx); warmErr != nil {
		return fmt.Errorf("warming device registry: %w", warmErr)
	}
	log.Info("device registry initialised", "devices", registry.Count())

	// Create the gateway bridge and probe the gateway before starting
	// the sync loop, so credential problems surface immediately
	bridge := junghome.NewBridge(junghome.TransportConfig{
		Host:           cfg.Gateway.Host,
		Token:          cfg.Gateway.Token,
		TLSInsecure:    cfg.Gateway.TLSInsecure,
		RequestTimeout: cfg.GetRequestTimeout(),
	}, registry, cfg.GetPollInterval())
	bridge.SetLogger(log.Component("bridge"))

	info, err := bridge.Transport.FetchConfig(ctx)
	switch {
	case err == nil:
		log.Info("gateway reachable", "name", info.Name, "gateway_version", info.Version)
	case errors.Is(err, junghome.ErrAuth):
		return fmt.Errorf("gateway rejected credentials: %w", err)
	default:
		// Transient failures are the synchroniser's problem; it retries
		// every poll interval
		log.Warn("gateway probe failed, sync loop will retry", "error", err)
	}

	bridge.Synchronizer.Start(ctx)
	defer func() {
		log.Info("stopping synchroniser")
		bridge.Synchronizer.Stop()
	}()
	log.Info("synchroniser started", "poll_interval", cfg.GetPollInterval())

	// Gateway event stream (optional latency optimisation)
	var pushClient *junghome.PushClient
	if cfg.Sync.PushEnabled {
		pushClient = junghome.NewPushClient(junghome.PushConfig{
			Host:        cfg.Gateway.Host,
			Token:       cfg.Gateway.Token,
			TLSInsecure: cfg.Gateway.TLSInsecure,
		}, bridge.Synchronizer)
		pushClient.SetLogger(log.Component("push"))
		pushClient.Start(ctx)
		defer func() {
			log.Info("stopping push client")
			pushClient.Stop()
		}()
		log.Info("push client started")
	} else {
		log.Info("push channel disabled, polling only")
	}

	// Hub command handling and health reporting need MQTT
	if mqttClient != nil {
		commandServer := hub.NewCommandServer(mqttClient, mqttClient, bridge.Translator, byte(cfg.MQTT.QoS))
		commandServer.SetLogger(log.Component("commands"))
		if startErr := commandServer.Start(); startErr != nil {
			return fmt.Errorf("subscribing to command topics: %w", startErr)
		}
		defer func() {
			log.Info("stopping command server")
			if stopErr := commandServer.Stop(); stopErr != nil {
				log.Error("error stopping command server", "error", stopErr)
			}
		}()
		log.Info("command server started")

		healthReporter := junghome.NewHealthReporter(junghome.HealthReporterConfig{
			BridgeID:     cfg.MQTT.Broker.ClientID,
			Version:      version,
			Topic:        mqtt.Topics{}.BridgeHealth(),
			Publisher:    mqttClient,
			Synchronizer: bridge.Synchronizer,
			Push:         pushClient,
			Devices:      registry,
		})
		healthReporter.SetLogger(log.Component("health"))
		if pubErr := healthReporter.PublishStarting(); pubErr != nil {
			log.Warn("failed to publish starting health", "error", pubErr)
		}
		healthReporter.Start(ctx)
		defer func() {
			log.Info("stopping health reporter")
			healthReporter.Stop()
		}()
	}

	// Read-only HTTP API (optional)
	if cfg.API.Enabled {
		apiServer, apiErr := api.New(api.Deps{
			Config:   cfg.API,
			Logger:   log.Component("api"),
			Registry: registry,
			Sync:     bridge.Synchronizer,
			Push:     pushStatus(pushClient),
			Version:  version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("HTTP API disabled")
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, cleaning up")
	case fatalErr := <-bridge.Synchronizer.Fatal():
		log.Error("gateway authentication rejected, shutting down", "error", fatalErr)
		return fmt.Errorf("bridge halted: %w", fatalErr)
	}

	log.Info("junghome bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses JUNGHOME_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("JUNGHOME_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// pushStatus adapts an optional push client into the API's status
// interface, keeping nil handling in one place.
func pushStatus(p *junghome.PushClient) api.PushStatus {
	if p == nil {
		return nil
	}
	return p
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// influxEventSink adapts registry events onto InfluxDB time-series
// writes. Only numeric-representable capability values are recorded.
type influxEventSink struct {
	client *influxdb.Client
}

// DeviceDiscovered records the full initial state.
func (s *influxEventSink) DeviceDiscovered(d device.Device) {
	s.writeState(d, nil)
}

// DeviceUpdated records the capabilities that changed.
func (s *influxEventSink) DeviceUpdated(d device.Device, changed []device.Capability) {
	s.writeState(d, changed)
}

// DeviceRemoved is a no-op; history for vanished devices is retained.
func (s *influxEventSink) DeviceRemoved(string) {}

// DeviceAvailabilityChanged records availability transitions.
func (s *influxEventSink) DeviceAvailabilityChanged(d device.Device, available bool) {
	s.client.WriteAvailability(d.ID, string(d.Type), available)
}

// writeState writes one point per capability. A nil capability list
// means write everything currently in the state map.
func (s *influxEventSink) writeState(d device.Device, caps []device.Capability) {
	if caps == nil {
		for c := range d.State {
			caps = append(caps, c)
		}
	}

	for _, c := range caps {
		val, ok := d.State[c]
		if !ok {
			continue
		}
		num, ok := capabilityValueToFloat(val.Value)
		if !ok {
			continue
		}
		s.client.WriteCapabilityValue(d.ID, string(d.Type), string(c), num, val.ObservedAt)
	}
}

// capabilityValueToFloat converts a capability value to a float64 for
// time-series storage. Booleans map to 0 and 1.
func capabilityValueToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}
