// Package evdev normalizes raw kernel input events into a semantically
// typed stream of pointer, keyboard, and touch notifications.
//
// The root package holds the pieces shared across backends: the device
// descriptor, the capability bits a device can grant to a seat, the
// [EventSource] collaborator interface that decouples the core pipeline
// in [github.com/wlinput/evdev/kernel] from any concrete transport, and
// the outbound notification types delivered to a [Notifier].
package evdev

import "strings"

// Device represents a physical or virtual input device, as reported by
// whatever discovery mechanism found it (udev, a directory scan, a
// hot-plug daemon). Device discovery itself is outside this module's
// scope; Device is just the identity a backend hands to its core
// pipeline and that notifications carry back to the consumer.
type Device struct {
	// Name is the human-readable name (e.g. "Logitech USB Receiver",
	// "SynPS/2 Synaptics TouchPad").
	Name string

	// Path is a platform-specific identifier, e.g.
	// "/dev/input/event5" on Linux.
	Path string

	// Capabilities describes the seat-facing feature set this device
	// was granted after capability detection.
	Capabilities CapabilitySet
}

// CapabilitySet is a bitmask of the seat capabilities a device can
// grant: pointer motion/buttons, keyboard keys, and touch contacts. A
// device may hold more than one bit, but never none after successful
// creation — a device with no granted capability is [ErrUnhandledDevice].
type CapabilitySet uint8

const (
	// CapPointer is granted to devices with (absolute or relative)
	// motion and at least one button.
	CapPointer CapabilitySet = 1 << iota

	// CapKeyboard is granted to devices with at least one KEY-class
	// code, or any LED support.
	CapKeyboard

	// CapTouch is granted to devices that report touch contacts and
	// have no buttons (buttons + touch is a touchpad, handled by a
	// different dispatcher, not a touch device).
	CapTouch
)

// Has reports whether c2 is present in c.
func (c CapabilitySet) Has(c2 CapabilitySet) bool {
	return c&c2 != 0
}

// String renders the set as e.g. "pointer|keyboard".
func (c CapabilitySet) String() string {
	var (
		names = make([]string, 0, 3)
		pair  struct {
			bit  CapabilitySet
			name string
		}
	)

	for _, pair = range []struct {
		bit  CapabilitySet
		name string
	}{
		{CapPointer, "pointer"},
		{CapKeyboard, "keyboard"},
		{CapTouch, "touch"},
	} {
		if c.Has(pair.bit) {
			names = append(names, pair.name)
		}
	}

	if len(names) == 0 {
		return "none"
	}

	return strings.Join(names, "|")
}
