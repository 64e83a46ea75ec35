// Package hobby implements the client side of the Niko Home Control II
// Hobby API.
//
// The Hobby API is MQTT over TLS on the controller itself (port 8884,
// username "hobby", a JWT issued from the controller's web interface as
// password). Requests are published to cmd topics, responses arrive on
// the matching rsp topics, and the controller pushes unsolicited evt
// frames for device, system and notification changes.
//
// The package covers:
//   - Frame types for the devices, locations, system and notification
//     channels (messages.go)
//   - A Client that subscribes to all response and event topics on
//     connect, requests the initial snapshot and dispatches decoded
//     frames to registered callbacks (client.go)
//   - Model classification and control envelope construction for
//     relays, dimmers, motors and moods (models.go, control.go)
//   - UDP discovery of controllers on the local network (discover.go)
//
// # Usage
//
//	client := hobby.NewClient(mqttClient, hobby.Handlers{
//	    OnSnapshot: func(devs []device.Device) { reg.ReplaceAll(devs) },
//	})
//	if err := client.Start(); err != nil {
//	    return err
//	}
package hobby
