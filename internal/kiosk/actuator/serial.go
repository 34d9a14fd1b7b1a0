package actuator

import (
	"fmt"

	"go.bug.st/serial"
)

// SerialDialer returns a dial function that opens the given serial device
// (8N1 at the given baud rate).  The port is opened once per Connect and
// reused for every open/close command until a fault forces a Reconnect.
func SerialDialer(device string, baud int) func() (Link, error) {
	return func() (Link, error) {
		port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
		if err != nil {
			return nil, fmt.Errorf("open serial %s: %w", device, err)
		}
		return port, nil
	}
}
