package hobby

import (
	"encoding/binary"
	"fmt"
	"net"
	"time"
)

// Discovery wire constants. Controllers answer a single 'D' byte
// broadcast on UDP port 10000 with an info frame.
const (
	discoveryPort = 10000

	frameTypeCoCo     = 0x3B
	frameTypeSmartBox = 0x3C

	// minDiscoveryFrame is the smallest frame that carries an address.
	minDiscoveryFrame = 15

	// fwOffset is where the little-endian firmware quad starts.
	fwOffset = 17
)

// Controller describes a discovered Niko controller.
type Controller struct {
	Device   string // "CoCo" or "SmartBox+"
	Type     byte
	MAC      string
	IP       string
	Netmask  string
	Firmware string
}

// Discover broadcasts a probe on the local network and returns the
// first CoCo controller that answers. If only SmartBox+ units respond
// before the timeout, the last of those is returned instead.
//
// Parameters:
//   - port: UDP port to probe and listen on; <= 0 uses the standard 10000
//   - timeout: How long to wait for responses
//
// Returns:
//   - *Controller: The discovered controller
//   - error: ErrNoControllerFound when nothing answered
func Discover(port int, timeout time.Duration) (*Controller, error) {
	if port <= 0 {
		port = discoveryPort
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("hobby: discovery listen: %w", err)
	}
	defer conn.Close()

	bcast := &net.UDPAddr{IP: net.IPv4bcast, Port: port}
	if _, err := conn.WriteToUDP([]byte{'D'}, bcast); err != nil {
		return nil, fmt.Errorf("hobby: discovery probe: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, fmt.Errorf("hobby: discovery deadline: %w", err)
	}

	var found *Controller
	buf := make([]byte, 30)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			break // deadline reached
		}
		ctrl, decodeErr := decodeDiscoveryFrame(buf[:n])
		if decodeErr != nil {
			continue // our own probe or a short frame
		}
		found = ctrl
		if ctrl.Type == frameTypeCoCo {
			break
		}
	}

	if found == nil {
		return nil, ErrNoControllerFound
	}
	return found, nil
}

// decodeDiscoveryFrame parses a controller's discovery response.
func decodeDiscoveryFrame(data []byte) (*Controller, error) {
	if len(data) < minDiscoveryFrame {
		return nil, ErrMalformedFrame
	}

	ctrl := &Controller{
		Type:    data[1],
		MAC:     fmt.Sprintf("%02x:%02x:%02x:%02x", data[2], data[3], data[4], data[5]),
		IP:      fmt.Sprintf("%d.%d.%d.%d", data[6], data[7], data[8], data[9]),
		Netmask: fmt.Sprintf("%d.%d.%d.%d", data[10], data[11], data[12], data[13]),
	}

	switch ctrl.Type {
	case frameTypeCoCo:
		ctrl.Device = "CoCo"
	case frameTypeSmartBox:
		ctrl.Device = "SmartBox+"
	}

	if len(data) >= fwOffset+8 {
		major := binary.LittleEndian.Uint16(data[fwOffset:])
		minor := binary.LittleEndian.Uint16(data[fwOffset+2:])
		bugfix := binary.LittleEndian.Uint16(data[fwOffset+4:])
		build := binary.LittleEndian.Uint16(data[fwOffset+6:])
		ctrl.Firmware = fmt.Sprintf("%d.%d.%d.%d", major, minor, bugfix, build)
	}

	return ctrl, nil
}
