package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/hobbybridge/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout is used when the config does not specify one.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout is the maximum time to wait for publish acknowledgment.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// Will describes the status topic for one broker connection.
//
// The offline payload doubles as the Last Will and Testament: the broker
// publishes it if the client disconnects unexpectedly. The online payload
// is published (retained) after every successful connect, and the offline
// payload again on graceful shutdown.
type Will struct {
	Topic          string
	OnlinePayload  string
	OfflinePayload string
	QoS            byte
}

// buildClientOptions creates paho MQTT options from broker config.
//
// This configures:
//   - Broker URL (tcp:// or ssl:// based on TLS setting)
//   - Client ID for identification
//   - Authentication credentials (if provided)
//   - Auto-reconnect with exponential backoff
//   - TLS configuration with optional private CA
//   - Clean session mode
func buildClientOptions(cfg config.MQTTConfig) (*pahomqtt.ClientOptions, error) {
	opts := pahomqtt.NewClientOptions()

	// Broker URL
	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	brokerURL := fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port)
	opts.AddBroker(brokerURL)

	// Client identification
	opts.SetClientID(cfg.Broker.ClientID)

	// Authentication (if credentials provided)
	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	// Clean session - start fresh on connect (no persistent session on broker)
	opts.SetCleanSession(true)

	// Auto-reconnect with exponential backoff
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)

	// Connection timeout
	opts.SetConnectTimeout(connectTimeout(cfg))

	// Keepalive - broker sends PINGs to detect dead connections
	opts.SetKeepAlive(defaultKeepAlive)

	// TLS configuration if enabled
	if cfg.Broker.TLS {
		tlsConfig, err := buildTLSConfig(cfg.Broker.CAFile)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsConfig)
	}

	return opts, nil
}

// connectTimeout returns the configured connect timeout, or the default.
func connectTimeout(cfg config.MQTTConfig) time.Duration {
	if cfg.ConnectTimeout > 0 {
		return cfg.GetConnectTimeout()
	}
	return defaultConnectTimeout
}

// buildTLSConfig creates TLS settings for a broker connection.
//
// When a CA file is supplied the peer chain is verified against that CA
// only, without hostname verification. The hub controller presents a
// certificate issued to a name that never matches the address the bridge
// dials, so standard verification cannot pass.
func buildTLSConfig(caFile string) (*tls.Config, error) {
	if caFile == "" {
		return &tls.Config{MinVersion: tlsMinVersion}, nil
	}

	pem, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("%w: reading CA file: %w", ErrConnectionFailed, err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("%w: no certificates found in %s", ErrConnectionFailed, caFile)
	}

	return &tls.Config{
		MinVersion:            tlsMinVersion,
		InsecureSkipVerify:    true, // chain verified below, hostname skipped
		VerifyPeerCertificate: chainVerifier(pool),
	}, nil
}

// chainVerifier returns a VerifyPeerCertificate callback that checks the
// presented chain against the given root pool.
func chainVerifier(roots *x509.CertPool) func([][]byte, [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return fmt.Errorf("%w: no peer certificate presented", ErrConnectionFailed)
		}

		leaf, err := x509.ParseCertificate(rawCerts[0])
		if err != nil {
			return fmt.Errorf("%w: parsing peer certificate: %w", ErrConnectionFailed, err)
		}

		intermediates := x509.NewCertPool()
		for _, raw := range rawCerts[1:] {
			cert, err := x509.ParseCertificate(raw)
			if err != nil {
				return fmt.Errorf("%w: parsing intermediate certificate: %w", ErrConnectionFailed, err)
			}
			intermediates.AddCert(cert)
		}

		_, err = leaf.Verify(x509.VerifyOptions{
			Roots:         roots,
			Intermediates: intermediates,
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
		}

		return nil
	}
}
