package lean

// Block is the unsigned block content. It is immutable once accepted and is
// shared by pointer between the queue, the backlog and the chain state.
type Block struct {
	Slot          Slot
	ProposerIndex uint64
	ParentRoot    Root
	StateRoot     Root
	Body          []byte
}

// Root returns the content hash of the block. The signature is not part of it,
// so a tampered signature never changes the identity of a block.
func (b *Block) Root() Root {
	h := newHasher()
	h.uint64(b.Slot)
	h.uint64(b.ProposerIndex)
	h.root(b.ParentRoot)
	h.root(b.StateRoot)
	h.bytes(b.Body)
	return h.sum()
}

// SignedBlock is a block together with the proposer's signature over its root.
type SignedBlock struct {
	Block     Block
	Signature []byte
}

func (b *SignedBlock) Root() Root {
	return b.Block.Root()
}

// SigningMessage returns the bytes the proposer signs.
func (b *SignedBlock) SigningMessage() []byte {
	root := b.Block.Root()
	return root[:]
}

// Checkpoint returns the block as a checkpoint.
func (b *SignedBlock) Checkpoint() Checkpoint {
	return Checkpoint{Root: b.Root(), Slot: b.Block.Slot}
}

// GenesisBlock builds the unsigned slot zero block every node agrees on.
func GenesisBlock(stateRoot Root) *SignedBlock {
	return &SignedBlock{
		Block: Block{
			Slot:       0,
			ParentRoot: ZeroRoot,
			StateRoot:  stateRoot,
		},
	}
}
