package lean

import "fmt"

// Checkpoint identifies a candidate point of agreement: a block root and its slot.
type Checkpoint struct {
	Root Root
	Slot Slot
}

func NewCheckpoint(root Root, slot Slot) Checkpoint {
	return Checkpoint{Root: root, Slot: slot}
}

func (c Checkpoint) String() string {
	return fmt.Sprintf("%d/%s", c.Slot, c.Root.TerminalString())
}

func (c Checkpoint) IsZero() bool {
	return c.Slot == 0 && c.Root.IsZero()
}
