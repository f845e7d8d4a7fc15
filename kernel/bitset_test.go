package kernel

import "testing"

func TestKeyStateDownTracking(t *testing.T) {
	var ks keyState

	if ks.isDown(30) {
		t.Fatal("fresh keyState reports code 30 as down")
	}

	ks.setDown(30, true)

	if !ks.isDown(30) {
		t.Error("setDown(30, true) did not register")
	}

	ks.setDown(30, false)

	if ks.isDown(30) {
		t.Error("setDown(30, false) did not clear")
	}
}

func TestKeyStateUpdateCounting(t *testing.T) {
	var (
		ks    keyState
		count int
	)

	count = ks.update(42, true)
	if count != 1 {
		t.Fatalf("first press count = %d, want 1", count)
	}

	count = ks.update(42, true)
	if count != 2 {
		t.Fatalf("second press (e.g. two physical keys sharing a code) count = %d, want 2", count)
	}

	count = ks.update(42, false)
	if count != 1 {
		t.Fatalf("first release count = %d, want 1", count)
	}

	count = ks.update(42, false)
	if count != 0 {
		t.Fatalf("second release count = %d, want 0", count)
	}
}

func TestKeyStateUpdateClampsAtZero(t *testing.T) {
	var count = (&keyState{}).update(7, false)

	if count != 0 {
		t.Errorf("decrementing an already-zero count = %d, want clamped to 0", count)
	}
}
