package kernel

import (
	"testing"

	"github.com/wlinput/evdev"
	"github.com/wlinput/evdev/linux/input"
)

func multiTouchSource() *fakeSource {
	return &fakeSource{
		eventTypes: map[uint16]bool{input.EV_ABS: true, input.EV_KEY: true},
		codes:      map[uint16][]uint16{input.EV_KEY: {input.BTN_TOUCH}},
		absInfo: map[uint16]evdev.AbsInfo{
			input.ABS_MT_POSITION_X: {Minimum: 0, Maximum: 1023, Resolution: 10},
			input.ABS_MT_POSITION_Y: {Minimum: 0, Maximum: 767, Resolution: 10},
			input.ABS_MT_SLOT:       {Minimum: 0, Maximum: 9, Value: 0},
		},
	}
}

// TestDeviceMultiTouchContactWithLegacyBTNTouch drives a full MT
// contact down/move/up through Dispatch on a device that also reports
// the legacy BTN_TOUCH compatibility signal alongside ABS_MT_*, as
// ordinary type-B touchscreens do. BTN_TOUCH must be a complete no-op
// on such a device: it must not flush the in-flight MT pending event,
// bookkeep a key, or log an unclassified-code warning.
func TestDeviceMultiTouchContactWithLegacyBTNTouch(t *testing.T) {
	var (
		source   = multiTouchSource()
		notifier = &fakeNotifier{}
		dev      *Device
		err      error
	)

	dev, err = NewDevice(&evdev.Device{Name: "touchscreen-mt"}, source, evdev.NewSeat(), notifier, Options{})
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}

	if !dev.hasMT {
		t.Fatalf("hasMT = false, want true")
	}

	if !dev.Descriptor().Capabilities.Has(evdev.CapTouch) {
		t.Fatalf("capabilities = %v, want CapTouch granted", dev.Descriptor().Capabilities)
	}

	source.queue = []evdev.RawEvent{
		{Type: input.EV_KEY, Code: input.BTN_TOUCH, Value: 1},
		{Type: input.EV_ABS, Code: input.ABS_MT_SLOT, Value: 0},
		{Type: input.EV_ABS, Code: input.ABS_MT_TRACKING_ID, Value: 1},
		{Type: input.EV_ABS, Code: input.ABS_MT_POSITION_X, Value: 100},
		{Type: input.EV_ABS, Code: input.ABS_MT_POSITION_Y, Value: 200},
		{Type: input.EV_SYN, Code: input.SYN_REPORT},
	}

	err = dev.Dispatch()
	if err != nil {
		t.Fatalf("Dispatch (down): %v", err)
	}

	if len(notifier.notifications) != 2 {
		t.Fatalf("after MT down, got %d notifications, want 2 (down, frame); BTN_TOUCH must not have flushed or emitted anything", len(notifier.notifications))
	}

	var down, ok = notifier.notifications[0].(evdev.TouchDown)
	if !ok {
		t.Fatalf("notification[0] type = %T, want evdev.TouchDown", notifier.notifications[0])
	}

	if down.Slot != 0 || down.SeatSlot != 0 || down.X != 100 || down.Y != 200 {
		t.Errorf("TouchDown = %+v, want {Slot:0 SeatSlot:0 X:100 Y:200}", down)
	}

	if _, ok = notifier.notifications[1].(evdev.TouchFrame); !ok {
		t.Fatalf("notification[1] type = %T, want evdev.TouchFrame", notifier.notifications[1])
	}

	notifier.notifications = nil
	source.queue = []evdev.RawEvent{
		{Type: input.EV_ABS, Code: input.ABS_MT_POSITION_X, Value: 150},
		{Type: input.EV_SYN, Code: input.SYN_REPORT},
	}

	err = dev.Dispatch()
	if err != nil {
		t.Fatalf("Dispatch (motion): %v", err)
	}

	if len(notifier.notifications) != 2 {
		t.Fatalf("after MT motion, got %d notifications, want 2 (motion, frame)", len(notifier.notifications))
	}

	var motion evdev.TouchMotion

	motion, ok = notifier.notifications[0].(evdev.TouchMotion)
	if !ok {
		t.Fatalf("notification[0] type = %T, want evdev.TouchMotion", notifier.notifications[0])
	}

	if motion.X != 150 || motion.Y != 200 {
		t.Errorf("TouchMotion = %+v, want {X:150 Y:200}", motion)
	}

	notifier.notifications = nil
	source.queue = []evdev.RawEvent{
		{Type: input.EV_ABS, Code: input.ABS_MT_TRACKING_ID, Value: -1},
		{Type: input.EV_KEY, Code: input.BTN_TOUCH, Value: 0},
		{Type: input.EV_SYN, Code: input.SYN_REPORT},
	}

	err = dev.Dispatch()
	if err != nil {
		t.Fatalf("Dispatch (up): %v", err)
	}

	if len(notifier.notifications) != 2 {
		t.Fatalf("after MT up, got %d notifications, want 2 (up, frame); trailing BTN_TOUCH must not have added a third", len(notifier.notifications))
	}

	var up evdev.TouchUp

	up, ok = notifier.notifications[0].(evdev.TouchUp)
	if !ok {
		t.Fatalf("notification[0] type = %T, want evdev.TouchUp", notifier.notifications[0])
	}

	if up.Slot != 0 || up.SeatSlot != 0 {
		t.Errorf("TouchUp = %+v, want {Slot:0 SeatSlot:0}", up)
	}
}

// TestDeviceResyncReplaysSyncEvents exercises SYN_DROPPED recovery:
// Dispatch must flush whatever was mid-frame, then replay the event
// source's resync snapshot in full before resuming normal dispatch.
func TestDeviceResyncReplaysSyncEvents(t *testing.T) {
	var (
		source   = relativeMouseSource()
		notifier = &fakeNotifier{}
		dev      *Device
		err      error
	)

	dev, err = NewDevice(&evdev.Device{Name: "mouse"}, source, evdev.NewSeat(), notifier, Options{})
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}

	source.queue = []evdev.RawEvent{
		{Type: input.EV_REL, Code: input.REL_X, Value: 5},
	}

	source.syncQueue = []evdev.RawEvent{
		{Type: input.EV_KEY, Code: input.BTN_LEFT, Value: 1},
		{Type: input.EV_SYN, Code: input.SYN_REPORT},
	}

	source.queue = append(source.queue, evdev.RawEvent{Type: input.EV_SYN, Code: input.SYN_DROPPED})

	err = dev.Dispatch()
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if len(notifier.notifications) != 2 {
		t.Fatalf("got %d notifications, want 2 (pre-drop motion flushed by Resync's synthetic SYN_REPORT, then the replayed button press)", len(notifier.notifications))
	}

	var motion, ok = notifier.notifications[0].(evdev.PointerMotion)
	if !ok {
		t.Fatalf("notification[0] type = %T, want evdev.PointerMotion", notifier.notifications[0])
	}

	if motion.DX != 5 || motion.DY != 0 {
		t.Errorf("PointerMotion = %+v, want {DX:5 DY:0}", motion)
	}

	var button evdev.PointerButton

	button, ok = notifier.notifications[1].(evdev.PointerButton)
	if !ok {
		t.Fatalf("notification[1] type = %T, want evdev.PointerButton", notifier.notifications[1])
	}

	if button.State != evdev.Pressed || button.Code != input.BTN_LEFT {
		t.Errorf("PointerButton = %+v, want {Code:BTN_LEFT State:Pressed}", button)
	}

	if len(source.syncQueue) != 0 {
		t.Errorf("syncQueue not drained, %d events left", len(source.syncQueue))
	}
}

// TestDeviceRemoveSynthesizesReleasesForHeldKeys ensures Remove emits
// a release notification, in ascending keycode order, for every key
// still counted as down, then closes the underlying event source.
func TestDeviceRemoveSynthesizesReleasesForHeldKeys(t *testing.T) {
	var (
		source = &fakeSource{
			eventTypes: map[uint16]bool{input.EV_KEY: true},
			codes:      map[uint16][]uint16{input.EV_KEY: {input.KEY_A, input.KEY_B}},
		}
		notifier = &fakeNotifier{}
		dev      *Device
		err      error
	)

	dev, err = NewDevice(&evdev.Device{Name: "keyboard"}, source, evdev.NewSeat(), notifier, Options{})
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}

	source.queue = []evdev.RawEvent{
		{Type: input.EV_KEY, Code: input.KEY_B, Value: 1},
		{Type: input.EV_KEY, Code: input.KEY_A, Value: 1},
		{Type: input.EV_SYN, Code: input.SYN_REPORT},
	}

	err = dev.Dispatch()
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	notifier.notifications = nil

	err = dev.Remove()
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if !source.closed {
		t.Errorf("event source not closed by Remove")
	}

	if len(notifier.notifications) != 2 {
		t.Fatalf("got %d release notifications, want 2", len(notifier.notifications))
	}

	var first, ok = notifier.notifications[0].(evdev.KeyboardKey)
	if !ok {
		t.Fatalf("notification[0] type = %T, want evdev.KeyboardKey", notifier.notifications[0])
	}

	if first.Code != input.KEY_A || first.State != evdev.Released {
		t.Errorf("notification[0] = %+v, want {Code:KEY_A State:Released} (ascending keycode order)", first)
	}

	var second evdev.KeyboardKey

	second, ok = notifier.notifications[1].(evdev.KeyboardKey)
	if !ok {
		t.Fatalf("notification[1] type = %T, want evdev.KeyboardKey", notifier.notifications[1])
	}

	if second.Code != input.KEY_B || second.State != evdev.Released {
		t.Errorf("notification[1] = %+v, want {Code:KEY_B State:Released}", second)
	}
}
