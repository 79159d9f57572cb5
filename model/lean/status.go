package lean

import "fmt"

// Status is the handshake exchanged between peers.
type Status struct {
	Finalized Checkpoint
	Head      Checkpoint
}

func (s Status) String() string {
	return fmt.Sprintf("finalized=%s head=%s", s.Finalized, s.Head)
}
