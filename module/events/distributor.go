package events

import (
	"sync"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module"
)

// Distributor fans out ingestion and network notifications to subscribers.
// It breaks the construction cycle between the ingestion engine, which
// reports gaps, and the sync engine, which submits blocks to ingestion.
//
// Subscribers must be added before the notifying components start.
type Distributor struct {
	mu           sync.RWMutex
	gaps         []module.GapConsumer
	disconnects  []module.PeerDisconnectConsumer
	finalization []module.FinalizationConsumer
}

var (
	_ module.GapConsumer            = (*Distributor)(nil)
	_ module.PeerDisconnectConsumer = (*Distributor)(nil)
	_ module.FinalizationConsumer   = (*Distributor)(nil)
)

func NewDistributor() *Distributor {
	return &Distributor{}
}

func (d *Distributor) AddGapConsumer(c module.GapConsumer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gaps = append(d.gaps, c)
}

func (d *Distributor) AddPeerDisconnectConsumer(c module.PeerDisconnectConsumer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disconnects = append(d.disconnects, c)
}

func (d *Distributor) AddFinalizationConsumer(c module.FinalizationConsumer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finalization = append(d.finalization, c)
}

func (d *Distributor) HandleGap(block *lean.SignedBlock) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.gaps {
		c.HandleGap(block)
	}
}

func (d *Distributor) HandleBacklogPressure(missing []lean.Root) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.gaps {
		c.HandleBacklogPressure(missing)
	}
}

func (d *Distributor) OnPeerDisconnected(id peer.ID) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.disconnects {
		c.OnPeerDisconnected(id)
	}
}

func (d *Distributor) OnFinalized(cp lean.Checkpoint) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.finalization {
		c.OnFinalized(cp)
	}
}
