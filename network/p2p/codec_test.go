package p2p

import (
	"bytes"
	"testing"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/utils/unittest"
)

func TestCodec_FramesRoundTrip(t *testing.T) {
	validators := unittest.ValidatorsFixture(t, 4)
	blocks := validators.ChainFixture(t, unittest.GenesisFixture(), 3)
	status := lean.Status{Finalized: unittest.CheckpointFixture(1), Head: blocks[2].Checkpoint()}

	// two frames on the same stream are read back one at a time
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, &BlocksResponse{Blocks: blocks}))
	require.NoError(t, WriteMessage(&buf, status))

	var resp BlocksResponse
	require.NoError(t, ReadMessage(&buf, 1<<20, &resp))
	require.Len(t, resp.Blocks, len(blocks))
	for i, block := range blocks {
		assert.Equal(t, block.Root(), resp.Blocks[i].Root())
		assert.Equal(t, block.Signature, resp.Blocks[i].Signature)
	}

	var gotStatus lean.Status
	require.NoError(t, ReadMessage(&buf, 1<<20, &gotStatus))
	assert.Equal(t, status, gotStatus)
	assert.Zero(t, buf.Len())
}

func TestCodec_EncodingIsDeterministic(t *testing.T) {
	req := &BlocksByRootRequest{Roots: unittest.RootListFixture(4)}
	first, err := Encode(req)
	require.NoError(t, err)
	second, err := Encode(req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCodec_RejectsOversizedMessages(t *testing.T) {
	block := unittest.GenesisFixture()
	block.Block.Body = bytes.Repeat([]byte{0xab}, 4096)

	t.Run("frame", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteMessage(&buf, block))

		var got lean.SignedBlock
		err := ReadMessage(&buf, 512, &got)
		require.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("uncompressed payload", func(t *testing.T) {
		// compresses well below the limit but expands above it
		data, err := Encode(block)
		require.NoError(t, err)
		require.Less(t, len(data), 1024)

		var got lean.SignedBlock
		err = Decode(data, 1024, &got)
		require.ErrorIs(t, err, ErrInvalidEncoding)
	})
}

func TestCodec_RejectsInvalidData(t *testing.T) {
	var status lean.Status

	err := Decode([]byte{0xff, 0xff, 0xff}, 1024, &status)
	require.ErrorIs(t, err, ErrInvalidEncoding)

	// valid snappy, invalid cbor
	err = Decode(snappy.Encode(nil, []byte{0xff, 0x00}), 1024, &status)
	require.ErrorIs(t, err, ErrInvalidEncoding)
}
