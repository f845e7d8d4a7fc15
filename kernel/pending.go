package kernel

import (
	"log"
	"time"

	"github.com/wlinput/evdev"
	"github.com/wlinput/evdev/linux/input"
)

// pendingKind is the single pending-event state machine variable
// coalescing partial raw events until the next flush.
type pendingKind uint8

const (
	pendingNone pendingKind = iota
	pendingRelativeMotion
	pendingAbsoluteMotion
	pendingAbsoluteMTDown
	pendingAbsoluteMTMotion
	pendingAbsoluteMTUp
	pendingAbsoluteTouchDown
	pendingAbsoluteTouchUp
)

// header builds the notification header for an event at time now.
func (dev *Device) header(now time.Duration) evdev.Header {
	return evdev.Header{Device: dev.descriptor, Time: now}
}

// processRelative accumulates a REL_X/REL_Y delta into the pending
// motion, flushing first if a different pending kind was in flight.
func (dev *Device) processRelative(code uint16, value int32, now time.Duration) {
	if dev.pending != pendingRelativeMotion {
		dev.flush(now)
		dev.pending = pendingRelativeMotion
	}

	switch code {
	case input.REL_X:
		dev.dx += value
	case input.REL_Y:
		dev.dy += value
	}
}

// processAbsoluteMotion implements the ABS_X/ABS_Y (non-MT device)
// row.
func (dev *Device) processAbsoluteMotion(code uint16, value int32) {
	switch code {
	case input.ABS_X:
		dev.absX = value
	case input.ABS_Y:
		dev.absY = value
	}

	if dev.pending == pendingNone {
		dev.pending = pendingAbsoluteMotion
	}
}

// processMTSlot implements the ABS_MT_SLOT row.
func (dev *Device) processMTSlot(value int32, now time.Duration) {
	dev.flush(now)
	dev.slots.setCurrent(value)
}

// processMTTrackingID implements the ABS_MT_TRACKING_ID rows.
func (dev *Device) processMTTrackingID(value int32, now time.Duration) {
	var coalescing = dev.pending == pendingNone || dev.pending == pendingAbsoluteMTMotion

	if !coalescing {
		dev.flush(now)
	}

	if value >= 0 {
		dev.pending = pendingAbsoluteMTDown
	} else {
		dev.pending = pendingAbsoluteMTUp
	}
}

// processMTPosition implements the ABS_MT_POSITION_X/Y row.
func (dev *Device) processMTPosition(code uint16, value int32) {
	var s = dev.slots.at()

	switch code {
	case input.ABS_MT_POSITION_X:
		s.x = value
	case input.ABS_MT_POSITION_Y:
		s.y = value
	}

	if dev.pending == pendingNone {
		dev.pending = pendingAbsoluteMTMotion
	}
}

// processTouchKey implements the EV_KEY code=BTN_TOUCH (non-MT
// device) row.
func (dev *Device) processTouchKey(value int32, now time.Duration) {
	if dev.pending != pendingNone && dev.pending != pendingAbsoluteMotion {
		dev.flush(now)
	}

	if value != 0 {
		dev.pending = pendingAbsoluteTouchDown
	} else {
		dev.pending = pendingAbsoluteTouchUp
	}
}

// processKey handles a generic EV_KEY event: flush, key bookkeeping,
// classification, and edge-triggered notification. Auto-repeat
// (value=2) is ignored entirely; a release of a key never recorded as
// down is dropped without touching the count.
func (dev *Device) processKey(code uint16, value int32, now time.Duration) {
	if value == 2 {
		return
	}

	dev.flush(now)

	var pressed = value != 0

	if !pressed && !dev.keys.isDown(code) {
		return
	}

	dev.keys.setDown(code, pressed)

	var count = dev.keys.update(code, pressed)

	switch {
	case pressed && count == 1:
		dev.emitKeyState(code, evdev.Pressed)
	case !pressed && count == 0:
		dev.emitKeyState(code, evdev.Released)
	}
}

// processSyn handles a SYN_REPORT: flush pending, then emit a
// touch-frame if this device is touch-capable and a touch
// notification was flushed this frame.
func (dev *Device) processSyn(now time.Duration) {
	dev.flush(now)

	if dev.descriptor.Capabilities.Has(evdev.CapTouch) && dev.touchedFrame {
		dev.notifier.Notify(evdev.TouchFrame{Header: dev.header(now)})
	}

	dev.touchedFrame = false
}

// flush emits the notification implied by pending (if any), then
// resets pending to NONE unconditionally.
func (dev *Device) flush(now time.Duration) {
	switch dev.pending {
	case pendingRelativeMotion:
		dev.flushRelative(now)
	case pendingAbsoluteMotion:
		dev.flushAbsoluteMotion(now)
	case pendingAbsoluteTouchDown:
		dev.flushTouchDown(now)
	case pendingAbsoluteTouchUp:
		dev.flushTouchUp(now)
	case pendingAbsoluteMTDown:
		dev.flushMTDown(now)
	case pendingAbsoluteMTMotion:
		dev.flushMTMotion(now)
	case pendingAbsoluteMTUp:
		dev.flushMTUp(now)
	}

	dev.pending = pendingNone
}

// applyCalibrationXY transforms (x, y) through the effective
// calibration matrix, or returns it unchanged when no non-identity
// calibration has been set.
func (dev *Device) applyCalibrationXY(x, y int32) (float64, float64) {
	if !dev.applyCalibration {
		return float64(x), float64(y)
	}

	return dev.effectiveMatrix.Apply(x, y)
}

// flushRelative runs the accumulated (dx, dy) pair through the
// acceleration filter and emits a pointer-motion notification if the
// filtered result is nonzero in either axis.
func (dev *Device) flushRelative(now time.Duration) {
	var fx, fy = dev.filter.Filter(float64(dev.dx), float64(dev.dy), now)

	if fx != 0 || fy != 0 {
		dev.notifier.Notify(evdev.PointerMotion{Header: dev.header(now), DX: fx, DY: fy})
	}

	dev.dx, dev.dy = 0, 0
}

// flushAbsoluteMotion transforms the accumulated (x, y) and emits
// either an absolute-pointer-motion (pointer-only devices) or a
// touch-motion on the held single-contact seat-slot (touch-capable
// devices reporting only ABS_X/Y).
func (dev *Device) flushAbsoluteMotion(now time.Duration) {
	var x, y = dev.applyCalibrationXY(dev.absX, dev.absY)

	if dev.descriptor.Capabilities.Has(evdev.CapTouch) {
		if dev.singleSeatSlot == -1 {
			return
		}

		dev.notifier.Notify(evdev.TouchMotion{
			Header:   dev.header(now),
			Slot:     -1,
			SeatSlot: dev.singleSeatSlot,
			X:        x,
			Y:        y,
		})
		dev.touchedFrame = true

		return
	}

	dev.notifier.Notify(evdev.PointerMotionAbsolute{Header: dev.header(now), X: x, Y: y})
}

// flushTouchDown acquires a seat-slot for the single-contact
// touchscreen unless one is already held (a kernel-protocol
// violation, logged and dropped) or the seat has none free (silently
// suppressed).
func (dev *Device) flushTouchDown(now time.Duration) {
	if dev.singleSeatSlot != -1 {
		log.Printf("evdev: kernel bug: touch-down on an already-down contact")

		return
	}

	var seatSlot = dev.seat.AcquireSlot()
	if seatSlot == -1 {
		return
	}

	dev.singleSeatSlot = seatSlot

	var x, y = dev.applyCalibrationXY(dev.absX, dev.absY)

	dev.notifier.Notify(evdev.TouchDown{Header: dev.header(now), Slot: -1, SeatSlot: seatSlot, X: x, Y: y})
	dev.touchedFrame = true
}

// flushTouchUp implements ABSOLUTE_TOUCH_UP, releasing the
// single-contact seat-slot if one was held.
func (dev *Device) flushTouchUp(now time.Duration) {
	if dev.singleSeatSlot == -1 {
		return
	}

	var seatSlot = dev.singleSeatSlot

	dev.seat.ReleaseSlot(seatSlot)
	dev.singleSeatSlot = -1

	dev.notifier.Notify(evdev.TouchUp{Header: dev.header(now), Slot: -1, SeatSlot: seatSlot})
	dev.touchedFrame = true
}

// flushMTDown is ABSOLUTE_MT_DOWN: symmetric to flushTouchDown but
// storage is per-slot and the low-level slot index is passed through.
func (dev *Device) flushMTDown(now time.Duration) {
	var s = dev.slots.at()

	if s.seatSlot != -1 {
		log.Printf("evdev: kernel bug: touch-down on an already-down slot %d", dev.slots.current)

		return
	}

	var seatSlot = dev.slots.down(dev.seat)
	if seatSlot == -1 {
		return
	}

	var x, y = dev.applyCalibrationXY(s.x, s.y)

	dev.notifier.Notify(evdev.TouchDown{
		Header:   dev.header(now),
		Slot:     dev.slots.current,
		SeatSlot: seatSlot,
		X:        x,
		Y:        y,
	})
	dev.touchedFrame = true
}

// flushMTMotion is ABSOLUTE_MT_MOTION: emits touch-motion only if the
// current slot holds a valid seat-slot.
func (dev *Device) flushMTMotion(now time.Duration) {
	var s = dev.slots.at()

	if s.seatSlot == -1 {
		return
	}

	var x, y = dev.applyCalibrationXY(s.x, s.y)

	dev.notifier.Notify(evdev.TouchMotion{
		Header:   dev.header(now),
		Slot:     dev.slots.current,
		SeatSlot: s.seatSlot,
		X:        x,
		Y:        y,
	})
	dev.touchedFrame = true
}

// flushMTUp is ABSOLUTE_MT_UP: releases the current slot's seat-slot
// and emits touch-up, unless the slot held none.
func (dev *Device) flushMTUp(now time.Duration) {
	var s = dev.slots.at()

	if s.seatSlot == -1 {
		return
	}

	var seatSlot = dev.slots.up(dev.seat)

	dev.notifier.Notify(evdev.TouchUp{Header: dev.header(now), Slot: dev.slots.current, SeatSlot: seatSlot})
	dev.touchedFrame = true
}
