package timeouts

import "testing"

// The tiers form a ladder: each covers strictly more work than the one
// below it. A reordering would silently give bulk operations a probe's
// deadline.
func TestTiersIncrease(t *testing.T) {
	if !(Ping() < Short() && Short() < Medium() && Medium() < Long() && Long() < Sweep()) {
		t.Errorf("tiers out of order: ping=%v short=%v medium=%v long=%v sweep=%v",
			Ping(), Short(), Medium(), Long(), Sweep())
	}
}
