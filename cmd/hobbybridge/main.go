// hobbybridge - Niko Home Control II to Home Assistant bridge
//
// This is the main entry point for the bridge. It connects to the
// controller's hobby MQTT API on one side and a Home Assistant broker
// on the other, publishes MQTT discovery for every supported device,
// and routes state and commands between the two.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/hobbybridge/internal/api"
	"github.com/nerrad567/hobbybridge/internal/bridge"
	"github.com/nerrad567/hobbybridge/internal/device"
	"github.com/nerrad567/hobbybridge/internal/history"
	"github.com/nerrad567/hobbybridge/internal/hobby"
	"github.com/nerrad567/hobbybridge/internal/infrastructure/config"
	"github.com/nerrad567/hobbybridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/hobbybridge/internal/infrastructure/logging"
	"github.com/nerrad567/hobbybridge/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// bridgeStatusTopic carries the bridge's own retained online/offline
// flag on the Home Assistant broker, backed by an LWT.
const bridgeStatusTopic = "hobbybridge/status"

// restartDelay is the pause before restarting after a run() failure.
const restartDelay = 15 * time.Second

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Supervise: a failed run restarts after a fixed delay until the
	// shutdown signal fires.
	for {
		err := run(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			return
		}

		fmt.Fprintf(os.Stderr, "Error: %v (restarting in %s)\n", err, restartDelay)
		select {
		case <-time.After(restartDelay):
		case <-ctx.Done():
			return
		}
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle restarts consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting hobbybridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
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

	// Locate the controller when no hub host is configured
	if cfg.Hub.Broker.Host == "" {
		controller, discoverErr := hobby.Discover(cfg.Gateway.Port, cfg.Gateway.GetTimeout())
		if discoverErr != nil {
			return fmt.Errorf("discovering controller: %w", discoverErr)
		}
		cfg.Hub.Broker.Host = controller.IP
		log.Info("controller discovered",
			"device", controller.Device,
			"ip", controller.IP,
			"mac", controller.MAC,
			"firmware", controller.Firmware,
		)
	}

	// Connect to the controller's hobby broker
	hubMQTT, err := mqtt.Connect(cfg.Hub, nil)
	if err != nil {
		return fmt.Errorf("connecting to hub: %w", err)
	}
	defer func() {
		log.Info("disconnecting from hub")
		if closeErr := hubMQTT.Close(); closeErr != nil {
			log.Error("error closing hub connection", "error", closeErr)
		}
	}()
	log.Info("hub connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Hub.Broker.Host, cfg.Hub.Broker.Port),
		"client_id", cfg.Hub.Broker.ClientID,
	)

	// Connect to the Home Assistant broker with the bridge status LWT
	hassMQTT, err := mqtt.Connect(cfg.HomeAssistant, &mqtt.Will{
		Topic:          bridgeStatusTopic,
		OnlinePayload:  "online",
		OfflinePayload: "offline",
		QoS:            byte(cfg.HomeAssistant.QoS),
	})
	if err != nil {
		return fmt.Errorf("connecting to Home Assistant broker: %w", err)
	}
	defer func() {
		log.Info("disconnecting from Home Assistant broker")
		if closeErr := hassMQTT.Close(); closeErr != nil {
			log.Error("error closing Home Assistant connection", "error", closeErr)
		}
	}()
	log.Info("Home Assistant broker connected",
		"broker", fmt.Sprintf("%s:%d", cfg.HomeAssistant.Broker.Host, cfg.HomeAssistant.Broker.Port),
		"client_id", cfg.HomeAssistant.Broker.ClientID,
	)

	// Initialise device registry
	registry := device.NewRegistry()
	registry.SetLogger(log)

	// Hub control is routed through an indirection because the bridge
	// and the hub client reference each other.
	hubControl := &hubController{}

	b := bridge.New(bridge.Config{
		Namespace:             cfg.Discovery.Namespace,
		QoS:                   byte(cfg.HomeAssistant.QoS),
		SweepDelay:            time.Duration(cfg.Discovery.SweepDelay) * time.Millisecond,
		MarkOfflineOnHassStop: cfg.Discovery.MarkOfflineOnHassStop,
	}, registry, hubControl, &mqttAdapter{client: hassMQTT})
	b.SetLogger(log)

	// Open the state history store (optional)
	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.Path, cfg.History.BusyTimeout*1000)
		if err != nil {
			return fmt.Errorf("opening history store: %w", err)
		}
		defer func() {
			log.Info("closing history store")
			if closeErr := store.Close(); closeErr != nil {
				log.Error("error closing history store", "error", closeErr)
			}
		}()

		recorder := history.NewRecorder(store, log)
		defer recorder.Close()
		b.AddStatusSink(recorder)
		log.Info("state history enabled", "path", cfg.History.Path)
	} else {
		log.Info("state history disabled")
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
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		b.AddStatusSink(influxClient)
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Create the hub protocol client and close the control loop
	hobbyClient := hobby.NewClient(&mqttAdapter{client: hubMQTT}, byte(cfg.Hub.QoS), b.HubHandlers())
	hobbyClient.SetLogger(log)
	hubControl.client = hobbyClient

	// Subscribe the bridge on the Home Assistant side
	if err := b.Start(); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}

	// Track the hub connection; a stalled reconnect is logged loudly so
	// operators notice the bridge running blind.
	tracker := bridge.NewStateTracker(time.Duration(cfg.Hub.ConnectTimeout)*time.Second, func() {
		log.Error("hub reconnect timed out, controller may be unreachable")
	})
	tracker.Connected()

	hubMQTT.SetOnConnect(func() {
		tracker.Connected()
		log.Info("hub reconnected, requesting fresh snapshot")
		if startErr := hobbyClient.Start(); startErr != nil {
			log.Error("hub resync failed", "error", startErr)
		}
	})
	hubMQTT.SetOnDisconnect(func(err error) {
		tracker.Connecting()
		log.Warn("hub disconnected", "error", err)
	})
	hassMQTT.SetOnConnect(func() {
		log.Info("Home Assistant broker reconnected")
	})
	hassMQTT.SetOnDisconnect(func(err error) {
		log.Warn("Home Assistant broker disconnected", "error", err)
	})

	// Subscribe to the hub and request the initial snapshot
	if err := hobbyClient.Start(); err != nil {
		return fmt.Errorf("starting hub client: %w", err)
	}
	log.Info("hub client started, snapshot requested")

	// Start the HTTP status API (optional)
	if cfg.API.Enabled {
		server, apiErr := api.New(api.Deps{
			Config:   cfg.API,
			Logger:   log,
			Registry: registry,
			Bridge:   b,
			Hub:      hobbyClient,
			History:  store,
			Version:  version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if apiErr := server.Start(ctx); apiErr != nil {
			return fmt.Errorf("starting API server: %w", apiErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		log.Info("API server started", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))
	} else {
		log.Info("API server disabled")
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, hubMQTT, hassMQTT, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server (if enabled)
	// 2. InfluxDB (if enabled)
	// 3. History recorder and store (if enabled)
	// 4. Home Assistant broker (publishes the offline status)
	// 5. Hub broker

	log.Info("hobbybridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses HOBBYBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HOBBYBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - hubMQTT: Hub broker connection to check
//   - hassMQTT: Home Assistant broker connection to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, hubMQTT, hassMQTT *mqtt.Client, influxClient *influxdb.Client) error {
	if err := hubMQTT.HealthCheck(ctx); err != nil {
		return fmt.Errorf("hub: %w", err)
	}

	if err := hassMQTT.HealthCheck(ctx); err != nil {
		return fmt.Errorf("home assistant: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// hubController defers to the hobby client once it exists. The bridge
// needs a controller at construction time, but the hub client needs the
// bridge's handlers first.
type hubController struct {
	client *hobby.Client
}

// Control implements bridge.HubController.
func (h *hubController) Control(uuid string, props device.Properties) error {
	if h.client == nil {
		return hobby.ErrNotConnected
	}
	return h.client.Control(uuid, props)
}

// mqttAdapter adapts the infrastructure MQTT client to the plain
// function-typed interfaces the hobby client and the bridge expect.
type mqttAdapter struct {
	client *mqtt.Client
}

// Publish implements hobby.MQTTClient and bridge.MQTTClient.
func (a *mqttAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements hobby.MQTTClient and bridge.MQTTClient.
func (a *mqttAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error {
	return a.client.Subscribe(topic, qos, handler)
}

// IsConnected implements hobby.MQTTClient and bridge.MQTTClient.
func (a *mqttAdapter) IsConnected() bool {
	return a.client.IsConnected()
}
