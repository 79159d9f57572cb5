package lean

import (
	"github.com/libp2p/go-libp2p/core/peer"
)

// QueueItem is the unit of work flowing through the ingestion queue. It is a
// closed sum type: the only variants are *BlockItem and *VoteItem.
type QueueItem interface {
	// OriginID is the peer that delivered the item. Empty for local items.
	OriginID() peer.ID
	// Key identifies the item for de-duplication.
	Key() Root
	isQueueItem()
}

// BlockItem carries a shared reference to a signed block.
type BlockItem struct {
	Origin peer.ID
	Block  *SignedBlock
}

var _ QueueItem = (*BlockItem)(nil)

func NewBlockItem(origin peer.ID, block *SignedBlock) *BlockItem {
	return &BlockItem{Origin: origin, Block: block}
}

func (i *BlockItem) OriginID() peer.ID { return i.Origin }
func (i *BlockItem) Key() Root         { return i.Block.Root() }
func (*BlockItem) isQueueItem()        {}

// VoteItem carries a shared reference to a signed vote.
type VoteItem struct {
	Origin peer.ID
	Vote   *SignedVote
}

var _ QueueItem = (*VoteItem)(nil)

func NewVoteItem(origin peer.ID, vote *SignedVote) *VoteItem {
	return &VoteItem{Origin: origin, Vote: vote}
}

func (i *VoteItem) OriginID() peer.ID { return i.Origin }
func (i *VoteItem) Key() Root         { return i.Vote.ID() }
func (*VoteItem) isQueueItem()        {}
