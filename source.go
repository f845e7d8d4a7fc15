package evdev

import "errors"

// ErrWouldBlock is returned by [EventSource.ReadEvent] when no event is
// currently available and the caller should stop draining the source
// for this dispatch cycle.
var ErrWouldBlock = errors.New("evdev: read would block")

// RawEvent is the (seconds, microseconds, type, code, value) quadruple
// delivered by a kernel event device. A concrete transport (e.g.
// [github.com/wlinput/evdev/linux/input]) decodes its own wire struct
// into this shape at the [EventSource] boundary.
type RawEvent struct {
	Sec, Usec  uint64
	Type, Code uint16
	Value      int32
}

// AbsInfo mirrors the kernel's struct input_absinfo: the parameters of
// one absolute axis, queried once at device-capability-detection time.
type AbsInfo struct {
	Value, Minimum, Maximum, Fuzz, Flat, Resolution int32
}

// EventSource is the low-level event-decoding collaborator the core
// pipeline in package kernel is driven through: bit-packed capability
// queries and raw event I/O live on one side of this interface, so
// kernel never has to know how a device is actually opened or read.
type EventSource interface {
	// Name returns the device's human-readable name.
	Name() (string, error)

	// HasEventType reports whether the device declares any codes under
	// the given event type (EV_KEY, EV_REL, EV_ABS, ...).
	HasEventType(evType uint16) (bool, error)

	// EventCodes returns every code the device declares under evType.
	EventCodes(evType uint16) ([]uint16, error)

	// HasProperty reports an INPUT_PROP_* bit (e.g. INPUT_PROP_DIRECT).
	HasProperty(prop uint16) (bool, error)

	// AbsInfo returns the axis parameters for code (ABS_X, ABS_MT_SLOT,
	// ...), and false if the device does not declare that axis.
	AbsInfo(code uint16) (AbsInfo, bool, error)

	// ReadEvent reads a single pending event, returning [ErrWouldBlock]
	// once nothing more is available without blocking.
	ReadEvent() (RawEvent, error)

	// StartSync begins a synchronization-recovery sequence: the source
	// rebuilds its view of the device's current state from ioctls and
	// queues it for replay via NextSyncEvent.
	StartSync() error

	// NextSyncEvent pops the next replay event queued by StartSync.
	// more is false once the sequence is exhausted.
	NextSyncEvent() (event RawEvent, more bool, err error)

	// WriteEvents writes raw events (e.g. LED state followed by a
	// SYN_REPORT) to the device. Most callers treat this as best-effort
	// and ignore the error; the method still returns one for callers
	// that want it.
	WriteEvents(events []RawEvent) error

	// Close releases the underlying transport.
	Close() error
}
