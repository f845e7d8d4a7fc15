package evdev

import "testing"

func TestSeatAcquireLowestFreeBit(t *testing.T) {
	var (
		seat    = NewSeat()
		a, b, c int32
	)

	a = seat.AcquireSlot()
	b = seat.AcquireSlot()

	if a != 0 || b != 1 {
		t.Fatalf("first two acquires = (%d, %d), want (0, 1)", a, b)
	}

	seat.ReleaseSlot(a)

	c = seat.AcquireSlot()
	if c != 0 {
		t.Errorf("acquire after releasing slot 0 = %d, want 0 (lowest free bit)", c)
	}
}

func TestSeatExhaustion(t *testing.T) {
	var (
		seat = NewSeat()
		i    int
	)

	for i = range 64 {
		if seat.AcquireSlot() != int32(i) {
			t.Fatalf("acquire #%d did not return %d", i, i)
		}
	}

	if seat.AcquireSlot() != -1 {
		t.Error("acquire past the 64-slot capacity did not return -1")
	}
}

func TestSeatReleaseNegativeIsNoop(t *testing.T) {
	var seat = NewSeat()

	seat.ReleaseSlot(-1)

	if seat.AcquireSlot() != 0 {
		t.Error("releasing -1 disturbed slot state")
	}
}
