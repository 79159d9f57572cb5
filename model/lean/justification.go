package lean

// JustificationRecord is the durable form of justification progress: every
// justified root plus, per target still short of the threshold, the voters
// already counted for it.
type JustificationRecord struct {
	Justified []Root
	Pending   []PendingJustification
}

// PendingJustification lists the validators counted towards Target.
type PendingJustification struct {
	Target     Checkpoint
	Validators []uint64
}
