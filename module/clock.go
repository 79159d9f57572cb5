package module

import (
	"time"

	"github.com/ReamLabs/ream-sub002/model/lean"
)

// SlotClock maps wall-clock time onto slots and intervals.
type SlotClock interface {
	// CurrentSlot returns the slot of the current time, zero before genesis.
	CurrentSlot() lean.Slot

	// CurrentInterval returns the interval within the current slot.
	CurrentInterval() uint64

	// SlotStart returns the wall-clock start of a slot.
	SlotStart(slot lean.Slot) time.Time

	// IntervalDuration is the length of one interval.
	IntervalDuration() time.Duration
}
