package evdev

import "math/bits"

// Seat is the shared bitmap allocator for seat-slot identifiers — the
// consumer-visible contact numbers handed out across every touch
// device on one logical seat. It is shared because two devices must
// never be handed the same seat-slot at once.
//
// A Seat is not safe for concurrent use; only a single-threaded
// dispatch model makes sharing it across devices safe at all.
type Seat struct {
	slots uint64
}

// NewSeat returns an empty Seat with no slots allocated.
func NewSeat() *Seat {
	return &Seat{}
}

// AcquireSlot finds the lowest-numbered unallocated seat-slot, marks
// it allocated, and returns it. It returns −1 if all 64 slots are in
// use — the caller must then suppress notifications for that contact
// until a slot frees up.
func (seat *Seat) AcquireSlot() int32 {
	var (
		inverted uint64
		slot     int
	)

	inverted = ^seat.slots
	if inverted == 0 {
		return -1
	}

	slot = bits.TrailingZeros64(inverted)
	seat.slots |= 1 << uint(slot)

	return int32(slot)
}

// ReleaseSlot clears slot's bit in the allocation bitmap. Releasing a
// slot that was never acquired (or a negative slot) is a no-op.
func (seat *Seat) ReleaseSlot(slot int32) {
	if slot < 0 {
		return
	}

	seat.slots &^= 1 << uint(slot)
}
