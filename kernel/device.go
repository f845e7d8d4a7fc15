// Package kernel implements the per-device event-processing core: the
// pending-event state machine, multi-touch slot tracking, calibration,
// and capability detection. It has no knowledge of file descriptors —
// it is driven entirely through the [github.com/wlinput/evdev.EventSource]
// interface its caller supplies.
package kernel

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/wlinput/evdev"
	"github.com/wlinput/evdev/linux/input"
)

// AxisStepDistance is the library's canonical scroll-wheel step
// distance in axis units, applied uniformly to every REL_WHEEL/
// REL_HWHEEL tick regardless of the device's own reported resolution.
const AxisStepDistance = 10

// Device is the per-device adapter: it owns the event source, the
// capability set, the slot table, calibration, the pending-event
// accumulator, and a pluggable [Dispatcher].
type Device struct {
	descriptor *evdev.Device
	source     evdev.EventSource
	notifier   evdev.Notifier
	seat       *evdev.Seat
	dispatcher Dispatcher
	filter     Filter

	keys keyState

	hasAbs, hasRel, hasMT, hasTouch, hasButton, hasKeyboard, hasLED bool
	fakeResolution                                                 bool

	minX, maxX, resolutionX int32
	minY, maxY, resolutionY int32

	slots *slotTable

	// singleSeatSlot is the seat-slot held by a single-contact
	// touchscreen (no ABS_MT_SLOT); -1 when none is held.
	singleSeatSlot int32
	absX, absY     int32

	dx, dy int32

	userMatrix, defaultMatrix, effectiveMatrix Matrix
	applyCalibration                           bool

	pending      pendingKind
	touchedFrame bool

	now time.Duration
}

// Options configures [NewDevice] beyond the event source itself. All
// fields are optional; the zero Options value yields a passthrough
// filter and an identity default calibration.
type Options struct {
	// Filter is the acceleration-filter collaborator for relative
	// motion. Defaults to [PassthroughFilter].
	Filter Filter

	// DefaultMatrix is the default calibration supplied by an
	// external rules collaborator (e.g. a device-property database
	// keyed by bus/vendor/product). Applying it sets both the
	// default and effective matrix.
	DefaultMatrix *[6]float64
}

// NewDevice probes source's declared capabilities, derives the seat
// capabilities it grants, and builds a Device ready to dispatch
// events. descriptor carries the identity this Device's notifications
// report; its Capabilities field is filled in by capability detection
// before NewDevice returns.
//
// It returns [evdev.ErrUnhandledDevice] if capability detection grants
// no seat capability at all, and [evdev.ErrTouchpadUnsupported] if the
// device would require the (out-of-scope) touchpad gesture dispatcher.
func NewDevice(descriptor *evdev.Device, source evdev.EventSource, seat *evdev.Seat, notifier evdev.Notifier, opts Options) (*Device, error) {
	var (
		dev *Device
		err error
	)

	dev = &Device{
		descriptor:     descriptor,
		source:         source,
		seat:           seat,
		notifier:       notifier,
		filter:         opts.Filter,
		singleSeatSlot: -1,
		userMatrix:     identityMatrix,
		defaultMatrix:  identityMatrix,
		effectiveMatrix: identityMatrix,
	}

	if dev.filter == nil {
		dev.filter = PassthroughFilter{}
	}

	err = dev.detectCapabilities()
	if err != nil {
		return nil, err
	}

	if opts.DefaultMatrix != nil {
		dev.defaultMatrix = FromFloats(*opts.DefaultMatrix)
		dev.applyCalibration = !dev.defaultMatrix.IsIdentity()
		dev.effectiveMatrix = composeCalibration(
			dev.defaultMatrix,
			float64(dev.minX), float64(dev.maxX-dev.minX+1),
			float64(dev.minY), float64(dev.maxY-dev.minY+1),
		)
	}

	dev.dispatcher = &fallbackDispatcher{}

	descriptor.Capabilities = dev.capabilities()

	return dev, nil
}

// detectCapabilities probes source's declared event types, codes, and
// absolute-axis info to determine which of pointer/keyboard/touch
// bookkeeping this device needs, and populates the slot table for
// multi-touch devices.
func (dev *Device) detectCapabilities() error {
	var (
		infoX, infoY         evdev.AbsInfo
		okX, okY, okMX, okMY bool
		hasKeyType           bool
		codes                []uint16
		err                  error
	)

	infoX, okX, err = dev.source.AbsInfo(input.ABS_X)
	if err != nil {
		return fmt.Errorf("kernel.NewDevice: %w", err)
	}

	infoY, okY, err = dev.source.AbsInfo(input.ABS_Y)
	if err != nil {
		return fmt.Errorf("kernel.NewDevice: %w", err)
	}

	if okX && okY {
		dev.hasAbs = true
		dev.recordAbsInfo(infoX, infoY)
	}

	dev.hasRel, err = dev.source.HasEventType(input.EV_REL)
	if err != nil {
		return fmt.Errorf("kernel.NewDevice: %w", err)
	}

	dev.hasLED, err = dev.source.HasEventType(input.EV_LED)
	if err != nil {
		return fmt.Errorf("kernel.NewDevice: %w", err)
	}

	_, okMX, err = dev.source.AbsInfo(input.ABS_MT_POSITION_X)
	if err != nil {
		return fmt.Errorf("kernel.NewDevice: %w", err)
	}

	_, okMY, err = dev.source.AbsInfo(input.ABS_MT_POSITION_Y)
	if err != nil {
		return fmt.Errorf("kernel.NewDevice: %w", err)
	}

	if okMX && okMY {
		dev.hasMT = true
		dev.hasTouch = true

		err = dev.allocateSlotTable()
		if err != nil {
			return fmt.Errorf("kernel.NewDevice: %w", err)
		}
	}

	hasKeyType, err = dev.source.HasEventType(input.EV_KEY)
	if err != nil {
		return fmt.Errorf("kernel.NewDevice: %w", err)
	}

	if hasKeyType {
		codes, err = dev.source.EventCodes(input.EV_KEY)
		if err != nil {
			return fmt.Errorf("kernel.NewDevice: %w", err)
		}

		err = dev.classifyKeys(codes)
		if err != nil {
			return fmt.Errorf("kernel.NewDevice: %w", err)
		}

		if dev.hasAbs && !dev.hasMT && hasCode(codes, input.BTN_TOUCH) {
			dev.hasTouch = true
		}
	}

	if dev.capabilities() == 0 {
		return evdev.ErrUnhandledDevice
	}

	return nil
}

// recordAbsInfo stores the X/Y absolute axis parameters, synthesizing
// resolution=1 (and setting the fake-resolution flag) when the kernel
// reports 0.
func (dev *Device) recordAbsInfo(infoX, infoY evdev.AbsInfo) {
	dev.minX, dev.maxX, dev.resolutionX = infoX.Minimum, infoX.Maximum, infoX.Resolution
	dev.minY, dev.maxY, dev.resolutionY = infoY.Minimum, infoY.Maximum, infoY.Resolution

	if dev.resolutionX == 0 || dev.resolutionY == 0 {
		dev.fakeResolution = true
		dev.resolutionX, dev.resolutionY = 1, 1
	}
}

// allocateSlotTable builds the multi-touch slot table from the
// ABS_MT_SLOT axis's reported maximum and current value. A device
// declaring MT position axes but no ABS_MT_SLOT axis gets a
// single-slot table; synthesizing a full slot protocol for such a
// device is left to an external adapter, not implemented here.
func (dev *Device) allocateSlotTable() error {
	var (
		info evdev.AbsInfo
		ok   bool
		err  error
	)

	info, ok, err = dev.source.AbsInfo(input.ABS_MT_SLOT)
	if err != nil {
		return err
	}

	if !ok {
		dev.slots = newSlotTable(0, 0)

		return nil
	}

	dev.slots = newSlotTable(info.Maximum, info.Value)

	return nil
}

// keyClass is the bucket a key code is sorted into for notification
// purposes: a keyboard key, a pointer/gamepad button, or neither.
type keyClass uint8

const (
	keyClassNone keyClass = iota
	keyClassKey
	keyClassButton
)

// classifyKey classifies code by its EV_KEY range: BTN_TOUCH is
// always unclassified (it drives touch bookkeeping directly, never a
// key/button notification), KEY_ESC..KEY_MICMUTE and KEY_OK..
// KEY_LIGHTS_TOGGLE are keyboard keys, and BTN_MISC..BTN_GEAR_UP and
// BTN_DPAD_UP..BTN_TRIGGER_HAPPY40 are buttons.
func classifyKey(code uint16) keyClass {
	switch {
	case code == input.BTN_TOUCH:
		return keyClassNone
	case code >= input.KEY_ESC && code <= input.KEY_MICMUTE,
		code >= input.KEY_OK && code <= input.KEY_LIGHTS_TOGGLE:
		return keyClassKey
	case code >= input.BTN_MISC && code <= input.BTN_GEAR_UP,
		code >= input.BTN_DPAD_UP && code <= input.BTN_TRIGGER_HAPPY40:
		return keyClassButton
	default:
		return keyClassNone
	}
}

// classifyKeys scans codes, setting hasKeyboard/hasButton, and the
// touchpad heuristic's required lookups.
func (dev *Device) classifyKeys(codes []uint16) error {
	var (
		hasFinger, hasPen, direct bool
		err                       error
	)

	for _, code := range codes {
		switch classifyKey(code) {
		case keyClassKey:
			dev.hasKeyboard = true
		case keyClassButton:
			dev.hasButton = true
		}

		if code == input.BTN_TOOL_FINGER {
			hasFinger = true
		}

		if code == input.BTN_TOOL_PEN {
			hasPen = true
		}
	}

	direct, err = dev.source.HasProperty(input.INPUT_PROP_DIRECT)
	if err != nil {
		return err
	}

	if hasFinger && !hasPen && !direct {
		return evdev.ErrTouchpadUnsupported
	}

	return nil
}

// hasCode reports whether code appears in codes.
func hasCode(codes []uint16, code uint16) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}

	return false
}

// capabilities derives the seat-capability bitmask from the detected
// flags: pointer requires a motion axis plus a button, keyboard
// requires a keyboard key or LEDs, and touch requires touch capability
// without also being a button device (a touchpad).
func (dev *Device) capabilities() evdev.CapabilitySet {
	var caps evdev.CapabilitySet

	if (dev.hasAbs || dev.hasRel) && dev.hasButton {
		caps |= evdev.CapPointer
	}

	if dev.hasKeyboard || dev.hasLED {
		caps |= evdev.CapKeyboard
	}

	if dev.hasTouch && !dev.hasButton {
		caps |= evdev.CapTouch
	}

	return caps
}

// Descriptor returns the device identity this Device reports in
// notifications.
func (dev *Device) Descriptor() *evdev.Device {
	return dev.descriptor
}

// Name returns the device's human-readable name, as carried by its
// descriptor.
func (dev *Device) Name() string {
	return dev.descriptor.Name
}

// ID reports the device's USB/Bluetooth bus, vendor, product, and
// version identity, if the underlying event source can report it.
func (dev *Device) ID() (bus, vendor, product, version uint16, err error) {
	type identifier interface {
		RawID() (bus, vendor, product, version uint16, err error)
	}

	id, ok := dev.source.(identifier)
	if !ok {
		return 0, 0, 0, 0, fmt.Errorf("kernel.Device.ID: %w", errNoIDSupport)
	}

	return id.RawID()
}

// Dispatch drains every event currently available from the event
// source, feeding each to the dispatcher, until the source reports
// [evdev.ErrWouldBlock]. It never returns mid-frame: a caller observing
// Dispatch return sees a consistent, fully-flushed notification
// stream. Any other read error is returned to the caller, which is
// expected to deregister the device's file descriptor; the Device
// itself is left intact.
func (dev *Device) Dispatch() error {
	for {
		var (
			raw evdev.RawEvent
			err error
		)

		raw, err = dev.source.ReadEvent()
		if err == evdev.ErrWouldBlock {
			return nil
		}

		if err != nil {
			return fmt.Errorf("kernel.Device.Dispatch: %w", err)
		}

		dev.now = time.Duration(raw.Sec)*time.Second + time.Duration(raw.Usec)*time.Microsecond
		dev.now = dev.now.Truncate(time.Millisecond)

		if raw.Type == input.EV_SYN && raw.Code == input.SYN_DROPPED {
			err = dev.Resync()
			if err != nil {
				return fmt.Errorf("kernel.Device.Dispatch: %w", err)
			}

			continue
		}

		dev.dispatcher.Process(dev, raw, dev.now)
	}
}

// Resync recovers from a SYN_DROPPED event: it flushes any mid-frame
// accumulator with a synthetic SYN_REPORT, then drains the event
// source's synchronization replay to completion, feeding every
// replayed event to the dispatcher normally.
func (dev *Device) Resync() error {
	var err error

	dev.dispatcher.Process(dev, evdev.RawEvent{Type: input.EV_SYN, Code: input.SYN_REPORT}, dev.now)

	err = dev.source.StartSync()
	if err != nil {
		return fmt.Errorf("kernel.Device.Resync: %w", err)
	}

	for {
		var (
			raw  evdev.RawEvent
			more bool
		)

		raw, more, err = dev.source.NextSyncEvent()
		if err != nil {
			return fmt.Errorf("kernel.Device.Resync: %w", err)
		}

		dev.dispatcher.Process(dev, raw, dev.now)

		if !more {
			return nil
		}
	}
}

// SetLEDs writes the NUM_LOCK/CAPS_LOCK/SCROLL_LOCK LED state
// requested by leds to the device, terminated with a SYN_REPORT. The
// write error is deliberately discarded — LED hardware state is
// best-effort.
func (dev *Device) SetLEDs(leds LEDSet) {
	var events = []evdev.RawEvent{
		{Type: input.EV_LED, Code: input.LED_NUML, Value: boolInt32(leds.Has(LEDNumLock))},
		{Type: input.EV_LED, Code: input.LED_CAPSL, Value: boolInt32(leds.Has(LEDCapsLock))},
		{Type: input.EV_LED, Code: input.LED_SCROLLL, Value: boolInt32(leds.Has(LEDScrollLock))},
		{Type: input.EV_SYN, Code: input.SYN_REPORT},
	}

	_ = dev.source.WriteEvents(events)
}

// LEDSet is a bitmask of the LEDs [Device.SetLEDs] accepts.
type LEDSet uint8

const (
	LEDNumLock LEDSet = 1 << iota
	LEDCapsLock
	LEDScrollLock
)

// Has reports whether l2 is present in l.
func (l LEDSet) Has(l2 LEDSet) bool {
	return l&l2 != 0
}

func boolInt32(b bool) int32 {
	if b {
		return 1
	}

	return 0
}

// Grab puts the device into (or out of) exclusive-grab mode via
// EVIOCGRAB, stopping other readers (e.g. a VT/getty) from also
// seeing its events.
func (dev *Device) Grab(grab bool) error {
	type grabber interface {
		Grab(bool) error
	}

	g, ok := dev.source.(grabber)
	if !ok {
		return fmt.Errorf("kernel.Device.Grab: %w", errNoGrabSupport)
	}

	return g.Grab(grab)
}

// Revoke permanently revokes this device's file descriptor via
// EVIOCREVOKE, used when the underlying device has been removed.
func (dev *Device) Revoke() error {
	type revoker interface {
		Revoke() error
	}

	r, ok := dev.source.(revoker)
	if !ok {
		return fmt.Errorf("kernel.Device.Revoke: %w", errNoRevokeSupport)
	}

	return r.Revoke()
}

// SizeMM returns the device's physical size in millimeters, derived
// from the absolute axes' resolution (units/mm). It fails when the
// kernel did not report a resolution and one was synthesized (the
// fake-resolution flag).
func (dev *Device) SizeMM() (widthMM, heightMM float64, err error) {
	if !dev.hasAbs {
		return 0, 0, fmt.Errorf("kernel.Device.SizeMM: %w", errNoAbsAxes)
	}

	if dev.fakeResolution {
		return 0, 0, fmt.Errorf("kernel.Device.SizeMM: %w", errFakeResolution)
	}

	widthMM = float64(dev.maxX-dev.minX) / float64(dev.resolutionX)
	heightMM = float64(dev.maxY-dev.minY) / float64(dev.resolutionY)

	return widthMM, heightMM, nil
}

// CalibrationConfig exposes a device's calibration state as a single
// capability object — get/set the user matrix, read the default, and
// check whether calibration applies at all — rather than raw
// function-pointer hooks.
type CalibrationConfig interface {
	// Get returns the currently configured user matrix.
	Get() [6]float64

	// Set installs a new user matrix, recomputing the effective
	// matrix.
	Set(matrix [6]float64)

	// Default returns the default matrix supplied at construction.
	Default() [6]float64

	// Supported reports whether this device has both X and Y
	// absolute axes, the precondition for calibration.
	Supported() bool
}

// Calibration returns dev's [CalibrationConfig].
func (dev *Device) Calibration() CalibrationConfig {
	return calibrationConfig{dev: dev}
}

type calibrationConfig struct {
	dev *Device
}

func (c calibrationConfig) Get() [6]float64 {
	return c.dev.userMatrix.ToFloats()
}

func (c calibrationConfig) Set(matrix [6]float64) {
	c.dev.setUserMatrix(FromFloats(matrix))
}

func (c calibrationConfig) Default() [6]float64 {
	return c.dev.defaultMatrix.ToFloats()
}

func (c calibrationConfig) Supported() bool {
	return c.dev.hasAbs
}

// setUserMatrix installs a new user calibration matrix and recomputes
// the effective matrix by composing it between the device's
// axis-range normalize/unnormalize transforms.
func (dev *Device) setUserMatrix(user Matrix) {
	dev.userMatrix = user
	dev.applyCalibration = !user.IsIdentity()

	dev.effectiveMatrix = composeCalibration(
		user,
		float64(dev.minX), float64(dev.maxX-dev.minX+1),
		float64(dev.minY), float64(dev.maxY-dev.minY+1),
	)
}

// Remove synthesizes release notifications (ordered by keycode
// ascending) for every key/button still counted as down, at the
// monotonic "now" of the last dispatched event, then closes the event
// source. Mid-dispatch removal is not supported: the caller must not
// call Dispatch concurrently with Remove.
func (dev *Device) Remove() error {
	var held []uint16

	for code := uint16(0); code < keyCount; code++ {
		if dev.keys.count(code) > 0 {
			held = append(held, code)
		}
	}

	sort.Slice(held, func(i, j int) bool { return held[i] < held[j] })

	for _, code := range held {
		dev.emitKeyState(code, evdev.Released)
	}

	return dev.source.Close()
}

// emitKeyState emits a keyboard-key or pointer-button notification
// for code depending on its classification.
func (dev *Device) emitKeyState(code uint16, state evdev.KeyState) {
	var header = evdev.Header{Device: dev.descriptor, Time: dev.now}

	switch classifyKey(code) {
	case keyClassKey:
		dev.notifier.Notify(evdev.KeyboardKey{Header: header, Code: code, State: state})
	case keyClassButton:
		dev.notifier.Notify(evdev.PointerButton{Header: header, Code: code, State: state})
	default:
		log.Printf("evdev: library bug: emitting key state for unclassified code %d", code)
	}
}
