package kernel

import (
	"log"

	"github.com/wlinput/evdev/linux/input"
)

// keyCount is the fixed upper bound on key codes this module tracks,
// matching input.KEY_CNT on current kernel headers (≈768). Both the
// bitmap and the counter array are sized to this bound once and never
// resized.
const keyCount = input.KEY_MAX + 1

// countSanityCeiling is the diagnostic threshold past which a key
// count is logged as suspicious. It is not a hard limit, just a value
// past which a count almost certainly means a bookkeeping bug rather
// than genuinely that many logical sources sharing one keycode.
const countSanityCeiling = 32

// keyState is the bit-set and parallel press-count bookkeeping for one
// device's key/button codes. The bitmap records last-observed
// down/up state; the counters let update gate edge notifications
// even when several logical sources share one keycode.
type keyState struct {
	mask   [(keyCount + 63) / 64]uint64
	counts [keyCount]int
}

// isDown reports the last-observed bitmap state for code.
func (ks *keyState) isDown(code uint16) bool {
	return ks.mask[code/64]&(1<<(code%64)) != 0
}

// setDown records the bitmap state for code.
func (ks *keyState) setDown(code uint16, down bool) {
	if down {
		ks.mask[code/64] |= 1 << (code % 64)
	} else {
		ks.mask[code/64] &^= 1 << (code % 64)
	}
}

// count returns the current press count for code.
func (ks *keyState) count(code uint16) int {
	return ks.counts[code]
}

// update increments count(code) when pressed is true, else decrements
// it, and returns the new count. Decrementing a count already at zero
// is a library-logic bug: it is logged and clamped at zero rather
// than going negative, so a stray release can never make isDown/count
// report a phantom press later. A count that exceeds the sanity
// ceiling is logged as a diagnostic, not an error.
func (ks *keyState) update(code uint16, pressed bool) int {
	if pressed {
		ks.counts[code]++
	} else {
		if ks.counts[code] == 0 {
			log.Printf("evdev: library bug: decrementing zero key count for code %d", code)

			return 0
		}

		ks.counts[code]--
	}

	if ks.counts[code] > countSanityCeiling {
		log.Printf("evdev: library bug: key count for code %d reached abnormal value %d", code, ks.counts[code])
	}

	return ks.counts[code]
}
