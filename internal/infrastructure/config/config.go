package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for hobbybridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Hub           MQTTConfig      `yaml:"hub"`
	HomeAssistant MQTTConfig      `yaml:"home_assistant"`
	Discovery     DiscoveryConfig `yaml:"discovery"`
	Gateway       GatewayConfig   `yaml:"gateway"`
	API           APIConfig       `yaml:"api"`
	History       HistoryConfig   `yaml:"history"`
	InfluxDB      InfluxDBConfig  `yaml:"influxdb"`
	Logging       LoggingConfig   `yaml:"logging"`
}

// MQTTConfig contains connection settings for one MQTT broker.
// The bridge holds two of these: the hub side and the Home Assistant side.
type MQTTConfig struct {
	Broker         BrokerConfig    `yaml:"broker"`
	Auth           AuthConfig      `yaml:"auth"`
	QoS            int             `yaml:"qos"`
	ConnectTimeout int             `yaml:"connect_timeout"`
	Reconnect      ReconnectConfig `yaml:"reconnect"`
}

// BrokerConfig contains MQTT broker connection details.
type BrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	CAFile   string `yaml:"ca_file"`
	ClientID string `yaml:"client_id"`
}

// AuthConfig contains MQTT authentication credentials.
// For the hub connection the password is the Hobby API token.
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ReconnectConfig contains MQTT reconnection settings.
type ReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// DiscoveryConfig contains Home Assistant MQTT discovery settings.
type DiscoveryConfig struct {
	// Namespace is the discovery topic prefix, normally "homeassistant".
	Namespace string `yaml:"namespace"`

	// SweepDelay is the pause between per-device publishes during a
	// discovery or removal sweep, in milliseconds.
	SweepDelay int `yaml:"sweep_delay"`

	// MarkOfflineOnHassStop publishes every device unavailable when
	// Home Assistant announces it is stopping.
	MarkOfflineOnHassStop bool `yaml:"mark_offline_on_hass_stop"`
}

// GatewayConfig contains UDP gateway discovery settings.
// Discovery runs only when hub.broker.host is empty.
type GatewayConfig struct {
	Port    int `yaml:"port"`
	Timeout int `yaml:"timeout"`
}

// APIConfig contains HTTP status API settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// HistoryConfig contains the SQLite state-history settings.
type HistoryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB telemetry settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: HOBBYBRIDGE_SECTION_KEY
// For example: HOBBYBRIDGE_HUB_HOST, HOBBYBRIDGE_HUB_TOKEN
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
//
// The hub side defaults to the Hobby API listener (TLS on 8884) with
// username "hobby". The hub host is left empty so UDP gateway discovery
// can locate the controller on the local network.
func defaultConfig() *Config {
	return &Config{
		Hub: MQTTConfig{
			Broker: BrokerConfig{
				Port:     8884,
				TLS:      true,
				ClientID: "hobbybridge-hub",
			},
			Auth: AuthConfig{
				Username: "hobby",
			},
			QoS:            1,
			ConnectTimeout: 60,
			Reconnect: ReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		HomeAssistant: MQTTConfig{
			Broker: BrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "hobbybridge-hass",
			},
			QoS:            1,
			ConnectTimeout: 60,
			Reconnect: ReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Discovery: DiscoveryConfig{
			Namespace:  "homeassistant",
			SweepDelay: 100,
		},
		Gateway: GatewayConfig{
			Port:    10000,
			Timeout: 3,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8321,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		History: HistoryConfig{
			Path:        "./data/hobbybridge.db",
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: HOBBYBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Hub broker
	if v := os.Getenv("HOBBYBRIDGE_HUB_HOST"); v != "" {
		cfg.Hub.Broker.Host = v
	}
	if v := os.Getenv("HOBBYBRIDGE_HUB_USERNAME"); v != "" {
		cfg.Hub.Auth.Username = v
	}
	if v := os.Getenv("HOBBYBRIDGE_HUB_TOKEN"); v != "" {
		cfg.Hub.Auth.Password = v
	}

	// Home Assistant broker
	if v := os.Getenv("HOBBYBRIDGE_HASS_HOST"); v != "" {
		cfg.HomeAssistant.Broker.Host = v
	}
	if v := os.Getenv("HOBBYBRIDGE_HASS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.HomeAssistant.Broker.Port = port
		}
	}
	if v := os.Getenv("HOBBYBRIDGE_HASS_USERNAME"); v != "" {
		cfg.HomeAssistant.Auth.Username = v
	}
	if v := os.Getenv("HOBBYBRIDGE_HASS_PASSWORD"); v != "" {
		cfg.HomeAssistant.Auth.Password = v
	}

	// Discovery
	if v := os.Getenv("HOBBYBRIDGE_DISCOVERY_NAMESPACE"); v != "" {
		cfg.Discovery.Namespace = v
	}

	// History
	if v := os.Getenv("HOBBYBRIDGE_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}

	// API
	if v := os.Getenv("HOBBYBRIDGE_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("HOBBYBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Hub validation. The Hobby API token is mandatory; without it the
	// controller rejects the connection.
	if c.Hub.Auth.Password == "" {
		errs = append(errs, "hub.auth.password is required (set HOBBYBRIDGE_HUB_TOKEN environment variable)")
	}
	if c.Hub.QoS < 0 || c.Hub.QoS > 2 {
		errs = append(errs, "hub.qos must be 0, 1, or 2")
	}
	if c.Hub.ConnectTimeout < 1 {
		errs = append(errs, "hub.connect_timeout must be at least 1 second")
	}

	// Home Assistant validation
	if c.HomeAssistant.Broker.Host == "" {
		errs = append(errs, "home_assistant.broker.host is required")
	}
	if c.HomeAssistant.QoS < 0 || c.HomeAssistant.QoS > 2 {
		errs = append(errs, "home_assistant.qos must be 0, 1, or 2")
	}

	// Discovery validation
	if c.Discovery.Namespace == "" {
		errs = append(errs, "discovery.namespace is required")
	}
	if strings.ContainsAny(c.Discovery.Namespace, "#+/") {
		errs = append(errs, "discovery.namespace must not contain MQTT wildcards or slashes")
	}
	if c.Discovery.SweepDelay < 0 {
		errs = append(errs, "discovery.sweep_delay must not be negative")
	}

	// Gateway validation
	if c.Gateway.Port < 1 || c.Gateway.Port > 65535 {
		errs = append(errs, "gateway.port must be between 1 and 65535")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// History validation
	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, "history.path is required when history is enabled")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set HOBBYBRIDGE_INFLUXDB_TOKEN environment variable)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetConnectTimeout returns the broker connect timeout as a Duration.
func (m *MQTTConfig) GetConnectTimeout() time.Duration {
	return time.Duration(m.ConnectTimeout) * time.Second
}

// GetSweepDelay returns the inter-device sweep pause as a Duration.
func (d *DiscoveryConfig) GetSweepDelay() time.Duration {
	return time.Duration(d.SweepDelay) * time.Millisecond
}

// GetTimeout returns the gateway discovery timeout as a Duration.
func (g *GatewayConfig) GetTimeout() time.Duration {
	return time.Duration(g.Timeout) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
