package types

// OverlayState is the kiosk's visual feedback state.  Owned exclusively by
// the overlay scheduler; exactly one instance is live.
type OverlayState string

const (
	OverlayIdle    OverlayState = "idle"
	OverlayGranted OverlayState = "granted"
	OverlayDenied  OverlayState = "denied"
)

// ActuatorState is the door lock link state.  Owned exclusively by the
// actuator controller.
type ActuatorState string

const (
	ActuatorDisconnected ActuatorState = "disconnected"
	ActuatorConnected    ActuatorState = "connected"
	ActuatorOpening      ActuatorState = "opening"
	ActuatorError        ActuatorState = "error"
)
