package kernel

import (
	"testing"

	"github.com/wlinput/evdev"
	"github.com/wlinput/evdev/linux/input"
)

func TestDispatcherWheelScroll(t *testing.T) {
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
		{Type: input.EV_REL, Code: input.REL_WHEEL, Value: 1},
		{Type: input.EV_SYN, Code: input.SYN_REPORT},
	}

	err = dev.Dispatch()
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if len(notifier.notifications) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notifier.notifications))
	}

	var axis, ok = notifier.notifications[0].(evdev.PointerAxis)
	if !ok {
		t.Fatalf("notification type = %T, want evdev.PointerAxis", notifier.notifications[0])
	}

	if axis.Axis != evdev.Vertical || axis.Value != -AxisStepDistance {
		t.Errorf("PointerAxis = %+v, want {Axis:Vertical Value:%v}", axis, -float64(AxisStepDistance))
	}
}

func TestDispatcherHorizontalWheelRejectsNonUnitValues(t *testing.T) {
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
		{Type: input.EV_REL, Code: input.REL_HWHEEL, Value: 2},
		{Type: input.EV_SYN, Code: input.SYN_REPORT},
	}

	err = dev.Dispatch()
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if len(notifier.notifications) != 0 {
		t.Fatalf("got %d notifications for REL_HWHEEL value=2, want 0 (only ±1 reported)", len(notifier.notifications))
	}

	notifier.notifications = nil
	source.queue = []evdev.RawEvent{
		{Type: input.EV_REL, Code: input.REL_HWHEEL, Value: -1},
		{Type: input.EV_SYN, Code: input.SYN_REPORT},
	}

	err = dev.Dispatch()
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if len(notifier.notifications) != 1 {
		t.Fatalf("got %d notifications for REL_HWHEEL value=-1, want 1", len(notifier.notifications))
	}

	var axis, ok = notifier.notifications[0].(evdev.PointerAxis)
	if !ok {
		t.Fatalf("notification type = %T, want evdev.PointerAxis", notifier.notifications[0])
	}

	if axis.Axis != evdev.Horizontal || axis.Value != -AxisStepDistance {
		t.Errorf("PointerAxis = %+v, want {Axis:Horizontal Value:%v}", axis, -float64(AxisStepDistance))
	}
}

func TestDispatcherWheelFlushesPendingMotionFirst(t *testing.T) {
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
		{Type: input.EV_REL, Code: input.REL_X, Value: 4},
		{Type: input.EV_REL, Code: input.REL_WHEEL, Value: 1},
		{Type: input.EV_SYN, Code: input.SYN_REPORT},
	}

	err = dev.Dispatch()
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if len(notifier.notifications) != 2 {
		t.Fatalf("got %d notifications, want 2 (flushed motion, then scroll)", len(notifier.notifications))
	}

	var motion, ok = notifier.notifications[0].(evdev.PointerMotion)
	if !ok {
		t.Fatalf("notification[0] type = %T, want evdev.PointerMotion", notifier.notifications[0])
	}

	if motion.DX != 4 {
		t.Errorf("flushed PointerMotion.DX = %v, want 4", motion.DX)
	}

	if _, ok = notifier.notifications[1].(evdev.PointerAxis); !ok {
		t.Fatalf("notification[1] type = %T, want evdev.PointerAxis", notifier.notifications[1])
	}
}
