package kernel

import (
	"time"

	"github.com/wlinput/evdev"
	"github.com/wlinput/evdev/linux/input"
)

// Dispatcher is the pluggable event-routing strategy [Device.Dispatch]
// hands every raw event to. Only [fallbackDispatcher] — the core
// pointer/keyboard/touch routing — is implemented in this module, and
// [NewDevice] always installs it; there is no way to install a
// different Dispatcher, such as a touchpad gesture dispatcher.
type Dispatcher interface {
	// Process routes a single raw event from dev's source, driving the
	// pending-event state machine and emitting notifications through
	// dev's notifier.
	Process(dev *Device, event evdev.RawEvent, now time.Duration)

	// Destroy releases any state the dispatcher owns. fallbackDispatcher
	// owns none.
	Destroy()
}

// fallbackDispatcher is the core dispatch strategy: the top-level
// EV_REL/EV_ABS/EV_KEY/EV_SYN/EV_LED switch, plus relative-axis scroll
// handling.
type fallbackDispatcher struct{}

// Process implements [Dispatcher].
func (*fallbackDispatcher) Process(dev *Device, event evdev.RawEvent, now time.Duration) {
	switch event.Type {
	case input.EV_REL:
		processRelativeEvent(dev, event, now)
	case input.EV_ABS:
		processAbsoluteEvent(dev, event, now)
	case input.EV_KEY:
		processKeyEvent(dev, event, now)
	case input.EV_SYN:
		if event.Code == input.SYN_REPORT {
			dev.processSyn(now)
		}
	case input.EV_LED:
		// Recipient only: LED state flows out via Device.SetLEDs,
		// never in as a notification.
	}
}

// Destroy implements [Dispatcher].
func (*fallbackDispatcher) Destroy() {}

// processRelativeEvent routes EV_REL events: REL_X/REL_Y feed the
// pending-motion accumulator, REL_WHEEL/REL_HWHEEL emit scroll
// notifications immediately — wheel ticks never coalesce with motion.
func processRelativeEvent(dev *Device, event evdev.RawEvent, now time.Duration) {
	switch event.Code {
	case input.REL_X, input.REL_Y:
		dev.processRelative(event.Code, event.Value, now)
	case input.REL_WHEEL:
		dev.flush(now)
		dev.notifier.Notify(evdev.PointerAxis{
			Header: dev.header(now),
			Axis:   evdev.Vertical,
			Value:  -float64(event.Value) * AxisStepDistance,
		})
	case input.REL_HWHEEL:
		if event.Value != 1 && event.Value != -1 {
			return
		}

		dev.flush(now)
		dev.notifier.Notify(evdev.PointerAxis{
			Header: dev.header(now),
			Axis:   evdev.Horizontal,
			Value:  float64(event.Value) * AxisStepDistance,
		})
	}
}

// processAbsoluteEvent routes EV_ABS events to the MT or non-MT arm of
// the pending-event state machine depending on code.
func processAbsoluteEvent(dev *Device, event evdev.RawEvent, now time.Duration) {
	switch event.Code {
	case input.ABS_X, input.ABS_Y:
		dev.processAbsoluteMotion(event.Code, event.Value)
	case input.ABS_MT_SLOT:
		dev.processMTSlot(event.Value, now)
	case input.ABS_MT_TRACKING_ID:
		dev.processMTTrackingID(event.Value, now)
	case input.ABS_MT_POSITION_X, input.ABS_MT_POSITION_Y:
		dev.processMTPosition(event.Code, event.Value)
	}
}

// processKeyEvent routes EV_KEY events. BTN_TOUCH on a non-MT device
// drives touch-down/up directly; on an MT device it is always a
// no-op, since type-B multi-touch hardware reports BTN_TOUCH purely
// for legacy single-touch compatibility and the real contact
// lifecycle already comes from ABS_MT_TRACKING_ID. Everything else
// goes through the generic key/button bookkeeping path.
func processKeyEvent(dev *Device, event evdev.RawEvent, now time.Duration) {
	if event.Code == input.BTN_TOUCH {
		if !dev.hasMT {
			dev.processTouchKey(event.Value, now)
		}

		return
	}

	dev.processKey(event.Code, event.Value, now)
}
