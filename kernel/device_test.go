package kernel

import (
	"testing"

	"github.com/wlinput/evdev"
	"github.com/wlinput/evdev/linux/input"
)

// fakeSource is a minimal in-memory [evdev.EventSource] for driving a
// [Device] end to end without a real kernel device.
type fakeSource struct {
	eventTypes map[uint16]bool
	codes      map[uint16][]uint16
	props      map[uint16]bool
	absInfo    map[uint16]evdev.AbsInfo
	queue      []evdev.RawEvent
	syncQueue  []evdev.RawEvent
	closed     bool
}

func (s *fakeSource) Name() (string, error) { return "fake", nil }

func (s *fakeSource) HasEventType(evType uint16) (bool, error) {
	return s.eventTypes[evType], nil
}

func (s *fakeSource) EventCodes(evType uint16) ([]uint16, error) {
	return s.codes[evType], nil
}

func (s *fakeSource) HasProperty(prop uint16) (bool, error) {
	return s.props[prop], nil
}

func (s *fakeSource) AbsInfo(code uint16) (evdev.AbsInfo, bool, error) {
	var (
		info evdev.AbsInfo
		ok   bool
	)

	info, ok = s.absInfo[code]

	return info, ok, nil
}

func (s *fakeSource) ReadEvent() (evdev.RawEvent, error) {
	var event evdev.RawEvent

	if len(s.queue) == 0 {
		return evdev.RawEvent{}, evdev.ErrWouldBlock
	}

	event, s.queue = s.queue[0], s.queue[1:]

	return event, nil
}

func (s *fakeSource) StartSync() error { return nil }

func (s *fakeSource) NextSyncEvent() (evdev.RawEvent, bool, error) {
	var event evdev.RawEvent

	if len(s.syncQueue) == 0 {
		return evdev.RawEvent{}, false, nil
	}

	event, s.syncQueue = s.syncQueue[0], s.syncQueue[1:]

	return event, len(s.syncQueue) > 0, nil
}

func (s *fakeSource) WriteEvents(events []evdev.RawEvent) error { return nil }

func (s *fakeSource) Close() error {
	s.closed = true

	return nil
}

// fakeNotifier collects every notification it receives, in order.
type fakeNotifier struct {
	notifications []evdev.Notification
}

func (n *fakeNotifier) Notify(notification evdev.Notification) {
	n.notifications = append(n.notifications, notification)
}

func relativeMouseSource() *fakeSource {
	return &fakeSource{
		eventTypes: map[uint16]bool{input.EV_REL: true, input.EV_KEY: true},
		codes:      map[uint16][]uint16{input.EV_KEY: {input.BTN_LEFT}},
	}
}

func TestDeviceRelativeMotionCoalesces(t *testing.T) {
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

	if !dev.Descriptor().Capabilities.Has(evdev.CapPointer) {
		t.Fatalf("capabilities = %v, want CapPointer granted", dev.Descriptor().Capabilities)
	}

	source.queue = []evdev.RawEvent{
		{Type: input.EV_REL, Code: input.REL_X, Value: 5},
		{Type: input.EV_REL, Code: input.REL_X, Value: 3},
		{Type: input.EV_SYN, Code: input.SYN_REPORT},
	}

	err = dev.Dispatch()
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if len(notifier.notifications) != 1 {
		t.Fatalf("got %d notifications, want 1 (motion coalesced into one flush)", len(notifier.notifications))
	}

	var motion, ok = notifier.notifications[0].(evdev.PointerMotion)
	if !ok {
		t.Fatalf("notification type = %T, want evdev.PointerMotion", notifier.notifications[0])
	}

	if motion.DX != 8 || motion.DY != 0 {
		t.Errorf("PointerMotion = {DX:%v DY:%v}, want {DX:8 DY:0}", motion.DX, motion.DY)
	}
}

func touchscreenSource() *fakeSource {
	return &fakeSource{
		eventTypes: map[uint16]bool{input.EV_ABS: true, input.EV_KEY: true},
		codes:      map[uint16][]uint16{input.EV_KEY: {input.BTN_TOUCH}},
		absInfo: map[uint16]evdev.AbsInfo{
			input.ABS_X: {Minimum: 0, Maximum: 1023, Resolution: 10},
			input.ABS_Y: {Minimum: 0, Maximum: 767, Resolution: 10},
		},
	}
}

func TestDeviceSingleContactTouchLifecycle(t *testing.T) {
	var (
		source   = touchscreenSource()
		notifier = &fakeNotifier{}
		dev      *Device
		err      error
	)

	dev, err = NewDevice(&evdev.Device{Name: "touchscreen"}, source, evdev.NewSeat(), notifier, Options{})
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}

	if !dev.Descriptor().Capabilities.Has(evdev.CapTouch) {
		t.Fatalf("capabilities = %v, want CapTouch granted", dev.Descriptor().Capabilities)
	}

	source.queue = []evdev.RawEvent{
		{Type: input.EV_ABS, Code: input.ABS_X, Value: 100},
		{Type: input.EV_ABS, Code: input.ABS_Y, Value: 200},
		{Type: input.EV_KEY, Code: input.BTN_TOUCH, Value: 1},
		{Type: input.EV_SYN, Code: input.SYN_REPORT},
	}

	err = dev.Dispatch()
	if err != nil {
		t.Fatalf("Dispatch (down): %v", err)
	}

	if len(notifier.notifications) != 2 {
		t.Fatalf("after touch-down, got %d notifications, want 2 (down, frame)", len(notifier.notifications))
	}

	var down, ok = notifier.notifications[0].(evdev.TouchDown)
	if !ok {
		t.Fatalf("notification[0] type = %T, want evdev.TouchDown", notifier.notifications[0])
	}

	if down.Slot != -1 || down.SeatSlot != 0 || down.X != 100 || down.Y != 200 {
		t.Errorf("TouchDown = %+v, want {Slot:-1 SeatSlot:0 X:100 Y:200}", down)
	}

	if _, ok = notifier.notifications[1].(evdev.TouchFrame); !ok {
		t.Fatalf("notification[1] type = %T, want evdev.TouchFrame", notifier.notifications[1])
	}

	notifier.notifications = nil
	source.queue = []evdev.RawEvent{
		{Type: input.EV_ABS, Code: input.ABS_X, Value: 150},
		{Type: input.EV_SYN, Code: input.SYN_REPORT},
	}

	err = dev.Dispatch()
	if err != nil {
		t.Fatalf("Dispatch (motion): %v", err)
	}

	if len(notifier.notifications) != 2 {
		t.Fatalf("after motion, got %d notifications, want 2 (motion, frame)", len(notifier.notifications))
	}

	var motion evdev.TouchMotion

	motion, ok = notifier.notifications[0].(evdev.TouchMotion)
	if !ok {
		t.Fatalf("notification[0] type = %T, want evdev.TouchMotion", notifier.notifications[0])
	}

	if motion.SeatSlot != 0 || motion.X != 150 || motion.Y != 200 {
		t.Errorf("TouchMotion = %+v, want {SeatSlot:0 X:150 Y:200}", motion)
	}

	notifier.notifications = nil
	source.queue = []evdev.RawEvent{
		{Type: input.EV_KEY, Code: input.BTN_TOUCH, Value: 0},
		{Type: input.EV_SYN, Code: input.SYN_REPORT},
	}

	err = dev.Dispatch()
	if err != nil {
		t.Fatalf("Dispatch (up): %v", err)
	}

	if len(notifier.notifications) != 2 {
		t.Fatalf("after touch-up, got %d notifications, want 2 (up, frame)", len(notifier.notifications))
	}

	var up evdev.TouchUp

	up, ok = notifier.notifications[0].(evdev.TouchUp)
	if !ok {
		t.Fatalf("notification[0] type = %T, want evdev.TouchUp", notifier.notifications[0])
	}

	if up.SeatSlot != 0 {
		t.Errorf("TouchUp.SeatSlot = %d, want 0", up.SeatSlot)
	}
}

func TestDeviceKeyPressReleaseEdges(t *testing.T) {
	var (
		source = &fakeSource{
			eventTypes: map[uint16]bool{input.EV_KEY: true},
			codes:      map[uint16][]uint16{input.EV_KEY: {input.KEY_A}},
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
		{Type: input.EV_KEY, Code: input.KEY_A, Value: 1},
		{Type: input.EV_KEY, Code: input.KEY_A, Value: 2},
		{Type: input.EV_KEY, Code: input.KEY_A, Value: 0},
		{Type: input.EV_SYN, Code: input.SYN_REPORT},
	}

	err = dev.Dispatch()
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if len(notifier.notifications) != 2 {
		t.Fatalf("got %d notifications, want 2 (press, release; autorepeat ignored)", len(notifier.notifications))
	}

	var key evdev.KeyboardKey

	key, _ = notifier.notifications[0].(evdev.KeyboardKey)
	if key.State != evdev.Pressed {
		t.Errorf("notification[0].State = %v, want Pressed", key.State)
	}

	key, _ = notifier.notifications[1].(evdev.KeyboardKey)
	if key.State != evdev.Released {
		t.Errorf("notification[1].State = %v, want Released", key.State)
	}
}

func TestDeviceReleaseOfNeverPressedSuppressed(t *testing.T) {
	var (
		source = &fakeSource{
			eventTypes: map[uint16]bool{input.EV_KEY: true},
			codes:      map[uint16][]uint16{input.EV_KEY: {input.KEY_A}},
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
		{Type: input.EV_KEY, Code: input.KEY_A, Value: 0},
		{Type: input.EV_SYN, Code: input.SYN_REPORT},
	}

	err = dev.Dispatch()
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if len(notifier.notifications) != 0 {
		t.Fatalf("got %d notifications, want 0 (phantom release suppressed)", len(notifier.notifications))
	}
}
