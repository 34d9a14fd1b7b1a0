// Package actuator controls the door lock over a persistent byte link.
// The protocol is two single-byte commands: 'O' opens the lock, 'C'
// closes it.  The controller owns the link state machine:
//
//	disconnected → connected → opening → connected
//
// with error reachable from any write failure and left only by an explicit
// Reconnect.  Actuator faults never feed back into admission decisions.
package actuator

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/fitaccess/kiosk/internal/kiosk/types"
)

const (
	cmdOpen  byte = 'O'
	cmdClose byte = 'C'
)

// DefaultHold is how long the lock stays open before the controller
// re-closes it.
const DefaultHold = 2 * time.Second

var (
	// ErrNotConnected is returned by TriggerOpen when there is no healthy
	// link; the caller logs it, the decision stands.
	ErrNotConnected = errors.New("actuator link not connected")
)

// Link is the byte channel to the lock hardware.  The serial
// implementation opens the device once and reuses it.
type Link interface {
	io.Writer
	io.Closer
}

// Controller drives one door lock.
type Controller struct {
	mu     sync.Mutex
	dial   func() (Link, error)
	link   Link
	state  types.ActuatorState
	hold   time.Duration
	timer  *time.Timer
	gen    uint64
	logger *slog.Logger
}

func New(dial func() (Link, error), hold time.Duration, logger *slog.Logger) *Controller {
	if hold <= 0 {
		hold = DefaultHold
	}
	return &Controller{
		dial:   dial,
		state:  types.ActuatorDisconnected,
		hold:   hold,
		logger: logger,
	}
}

func (c *Controller) State() types.ActuatorState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect performs the link handshake.  disconnected → connected.
func (c *Controller) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == types.ActuatorConnected || c.state == types.ActuatorOpening {
		return nil
	}

	// A faulted link may still be held; release the port before redialing.
	if c.link != nil {
		_ = c.link.Close()
		c.link = nil
	}

	link, err := c.dial()
	if err != nil {
		c.state = types.ActuatorDisconnected
		return err
	}
	c.link = link
	c.state = types.ActuatorConnected
	c.logger.Info("actuator connected")
	return nil
}

// TriggerOpen writes the open command and arms the hold timer that
// re-closes the lock.  A trigger arriving while the lock is already
// opening is a no-op: the granted decision that caused it already implies
// the door is open.
func (c *Controller) TriggerOpen(hold time.Duration) error {
	if hold <= 0 {
		hold = c.hold
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case types.ActuatorOpening:
		return nil
	case types.ActuatorConnected:
		// fall through to the write
	default:
		return ErrNotConnected
	}

	if _, err := c.link.Write([]byte{cmdOpen}); err != nil {
		c.faultLocked("open write failed", err)
		return err
	}

	c.state = types.ActuatorOpening
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(hold, func() { c.closeAfterHold(gen) })
	return nil
}

// Reconnect recovers from error: the faulted link is dropped and a fresh
// handshake is attempted.
func (c *Controller) Reconnect() error {
	c.mu.Lock()

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	if c.link != nil {
		_ = c.link.Close()
		c.link = nil
	}
	c.state = types.ActuatorDisconnected
	c.mu.Unlock()

	return c.Connect()
}

// Close cancels any pending re-close and shuts the link down.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++

	var err error
	if c.link != nil {
		err = c.link.Close()
		c.link = nil
	}
	c.state = types.ActuatorDisconnected
	return err
}

func (c *Controller) closeAfterHold(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.state != types.ActuatorOpening {
		return
	}
	c.timer = nil

	if _, err := c.link.Write([]byte{cmdClose}); err != nil {
		c.faultLocked("close write failed", err)
		return
	}
	c.state = types.ActuatorConnected
}

func (c *Controller) faultLocked(msg string, err error) {
	c.state = types.ActuatorError
	c.logger.Error("actuator fault: "+msg, slog.String("error", err.Error()))
}
