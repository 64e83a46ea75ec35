// Package mqtt provides MQTT client connectivity for hobbybridge.
//
// This package manages:
//   - Broker connections with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Optional status topic with Last Will and Testament (LWT)
//   - Connection health monitoring
//
// # Architecture
//
// The bridge holds two independent Client instances, one per broker:
//
//	Hub controller (Hobby API) ↔ Client ↔ bridge ↔ Client ↔ Home Assistant broker
//
// Both sides share the same wrapper; only their config and status topics
// differ. Topic construction lives in the hobby and hass packages.
//
// # Security Considerations
//
//   - The hub connection uses TLS with Niko's private CA (ca_file)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s with jitter
//   - Message throughput: Broker-limited (typically 10K+ msg/sec)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.HomeAssistant, &mqtt.Will{
//	    Topic:          "hobbybridge/status",
//	    OnlinePayload:  "online",
//	    OfflinePayload: "offline",
//	    QoS:            1,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe("homeassistant/+/+/set", 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
package mqtt
