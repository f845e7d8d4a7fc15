package evdev

import "time"

// KeyState is the edge-triggered state carried by button and key
// notifications: it is emitted only on a 0→1 or 1→0 transition of the
// aggregate press count, never on every raw press/release.
type KeyState uint8

const (
	// Released is emitted only when a key/button's press count
	// transitions 1 → 0.
	Released KeyState = iota

	// Pressed is emitted only when a key/button's press count
	// transitions 0 → 1.
	Pressed
)

// Axis identifies which scroll axis a PointerAxis notification reports.
type Axis uint8

const (
	// Vertical is the REL_WHEEL axis.
	Vertical Axis = iota

	// Horizontal is the REL_HWHEEL axis.
	Horizontal
)

// Header is embedded in every [Notification]: the device that produced
// it and the monotonic millisecond timestamp of the frame that flushed
// it.
type Header struct {
	Device *Device
	Time   time.Duration
}

// Notification is the sum type of every outbound event kind this module
// produces. A [Notifier] receives values of one of the concrete types
// below.
type Notification interface {
	notification()
}

// PointerMotion carries a relative-motion delta in the acceleration
// filter's output units.
type PointerMotion struct {
	Header
	DX, DY float64
}

// PointerMotionAbsolute carries post-calibration device coordinates.
type PointerMotionAbsolute struct {
	Header
	X, Y float64
}

// PointerButton reports an edge-triggered button transition.
type PointerButton struct {
	Header
	Code  uint16
	State KeyState
}

// PointerAxis reports a scroll-wheel tick.
type PointerAxis struct {
	Header
	Axis  Axis
	Value float64
}

// KeyboardKey reports an edge-triggered key transition.
type KeyboardKey struct {
	Header
	Code  uint16
	State KeyState
}

// TouchDown reports a new contact. Slot is -1 for single-touch devices;
// SeatSlot is the seat-scoped identifier consumers should track the
// contact by.
type TouchDown struct {
	Header
	Slot, SeatSlot int32
	X, Y           float64
}

// TouchMotion reports a moved contact.
type TouchMotion struct {
	Header
	Slot, SeatSlot int32
	X, Y           float64
}

// TouchUp reports a released contact.
type TouchUp struct {
	Header
	Slot, SeatSlot int32
}

// TouchFrame closes out exactly one SYN_REPORT that produced at least
// one touch notification.
type TouchFrame struct {
	Header
}

func (PointerMotion) notification()         {}
func (PointerMotionAbsolute) notification() {}
func (PointerButton) notification()         {}
func (PointerAxis) notification()           {}
func (KeyboardKey) notification()           {}
func (TouchDown) notification()             {}
func (TouchMotion) notification()           {}
func (TouchUp) notification()               {}
func (TouchFrame) notification()            {}

// Notifier receives the normalized notification stream. Delivering
// those notifications on to application code — queuing, dispatch to a
// UI thread, and so on — is the caller's concern; Notifier is the
// minimal shape of that handoff.
type Notifier interface {
	Notify(Notification)
}
