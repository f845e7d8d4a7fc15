package kernel

import "github.com/wlinput/evdev"

// slot holds one multi-touch contact's last-reported coordinate and
// the seat-slot it currently owns, or -1 if it owns none.
type slot struct {
	x, y     int32
	seatSlot int32
}

// slotTable is the per-device array of multi-touch slot records. It
// is fixed-size for the device's lifetime: slot count comes from the
// device's ABS_MT_SLOT maximum at construction.
type slotTable struct {
	slots   []slot
	current int32
}

// newSlotTable allocates N = max+1 slot records, each starting with
// seat-slot -1 and coordinates (0, 0), and sets the current-slot
// cursor to active.
func newSlotTable(max, active int32) *slotTable {
	var table = &slotTable{
		slots:   make([]slot, max+1),
		current: active,
	}

	for i := range table.slots {
		table.slots[i].seatSlot = -1
	}

	return table
}

// at returns a pointer to the slot table's current slot.
func (t *slotTable) at() *slot {
	return &t.slots[t.current]
}

// setCurrent moves the cursor to the given low-level slot index.
func (t *slotTable) setCurrent(index int32) {
	t.current = index
}

// down acquires a seat-slot for the current slot via seat and records
// it. It does not check whether the slot already holds one; the
// caller detects and logs a duplicate down before calling it. It
// returns the acquired seat-slot, or -1 if the seat had none free.
func (t *slotTable) down(seat *evdev.Seat) int32 {
	var s = t.at()

	s.seatSlot = seat.AcquireSlot()

	return s.seatSlot
}

// up releases the current slot's seat-slot via seat and clears it,
// returning the seat-slot that was released (-1 if none was held).
func (t *slotTable) up(seat *evdev.Seat) int32 {
	var (
		s        = t.at()
		seatSlot = s.seatSlot
	)

	seat.ReleaseSlot(seatSlot)
	s.seatSlot = -1

	return seatSlot
}
