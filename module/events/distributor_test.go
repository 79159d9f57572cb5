package events

import (
	"testing"

	"github.com/ReamLabs/ream-sub002/module/mock"
	"github.com/ReamLabs/ream-sub002/utils/unittest"
)

func TestDistributor_FansOut(t *testing.T) {
	validators := unittest.ValidatorsFixture(t, 4)
	block := validators.BlockWithParent(t, unittest.GenesisFixture(), 1)
	p := unittest.PeerIDFixture(t)
	cp := unittest.CheckpointFixture(2)
	missing := unittest.RootListFixture(2)

	d := NewDistributor()
	for i := 0; i < 2; i++ {
		gaps := mock.NewGapConsumer(t)
		gaps.On("HandleGap", block).Once()
		gaps.On("HandleBacklogPressure", missing).Once()
		d.AddGapConsumer(gaps)

		disconnects := mock.NewPeerDisconnectConsumer(t)
		disconnects.On("OnPeerDisconnected", p).Once()
		d.AddPeerDisconnectConsumer(disconnects)

		finalization := mock.NewFinalizationConsumer(t)
		finalization.On("OnFinalized", cp).Once()
		d.AddFinalizationConsumer(finalization)
	}

	d.HandleGap(block)
	d.HandleBacklogPressure(missing)
	d.OnPeerDisconnected(p)
	d.OnFinalized(cp)
}
