package evdev

import "errors"

// ErrUnhandledDevice is returned by device construction when capability
// detection grants no seat capability at all. It is distinct from a
// true error — callers must not treat it as a failure, only as a
// signal to ignore the device.
var ErrUnhandledDevice = errors.New("evdev: unhandled device")

// ErrTouchpadUnsupported is returned when capability detection would
// route a device to the touchpad gesture dispatcher (the
// BTN_TOOL_FINGER/no-BTN_TOOL_PEN heuristic). A touchpad gesture
// dispatcher is out of this module's scope; this error lets a caller
// distinguish "not a device this module drives" from
// [ErrUnhandledDevice]'s "not an input device at all".
var ErrTouchpadUnsupported = errors.New("evdev: device requires a touchpad dispatcher")
