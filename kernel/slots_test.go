package kernel

import (
	"testing"

	"github.com/wlinput/evdev"
)

func TestSlotTableDownUp(t *testing.T) {
	var (
		seat  = evdev.NewSeat()
		table = newSlotTable(4, 0)
		got   int32
	)

	got = table.down(seat)
	if got != 0 {
		t.Fatalf("down() = %d, want 0 (first free seat-slot)", got)
	}

	if table.at().seatSlot != 0 {
		t.Errorf("at().seatSlot = %d, want 0", table.at().seatSlot)
	}

	got = table.up(seat)
	if got != 0 {
		t.Fatalf("up() = %d, want 0", got)
	}

	if table.at().seatSlot != -1 {
		t.Errorf("at().seatSlot after up() = %d, want -1", table.at().seatSlot)
	}
}

func TestSlotTableSetCurrent(t *testing.T) {
	var table = newSlotTable(4, 2)

	if table.current != 2 {
		t.Fatalf("newSlotTable active cursor = %d, want 2", table.current)
	}

	table.setCurrent(3)

	if table.current != 3 {
		t.Errorf("setCurrent(3) did not move cursor, got %d", table.current)
	}
}

func TestSlotTableIndependentSlots(t *testing.T) {
	var (
		seat  = evdev.NewSeat()
		table = newSlotTable(4, 0)
	)

	table.setCurrent(0)
	table.down(seat)

	table.setCurrent(1)
	table.down(seat)

	if table.slots[0].seatSlot == table.slots[1].seatSlot {
		t.Error("two distinct MT slots were assigned the same seat-slot")
	}
}
