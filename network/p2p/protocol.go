package p2p

import (
	"github.com/libp2p/go-libp2p/core/protocol"

	"github.com/ReamLabs/ream-sub002/model/lean"
)

const (
	StatusProtocol        protocol.ID = "/lean/req/status/1"
	BlocksByRangeProtocol protocol.ID = "/lean/req/blocks_by_range/1"
	BlocksByRootProtocol  protocol.ID = "/lean/req/blocks_by_root/1"

	// MaxRequestBlocks bounds the number of blocks a single request may ask for.
	MaxRequestBlocks = 1024
)

// BlocksByRangeRequest asks for the block at StartRoot followed by its
// ancestors, newest first.
type BlocksByRangeRequest struct {
	StartRoot lean.Root
	Count     uint64
}

// BlocksByRootRequest asks for individual blocks. Unknown roots are skipped
// in the response.
type BlocksByRootRequest struct {
	Roots []lean.Root
}

type BlocksResponse struct {
	Blocks []*lean.SignedBlock
}
