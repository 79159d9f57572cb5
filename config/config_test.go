package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/utils/unittest"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	InitFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newFlags(t))
	require.NoError(t, err)

	expected, err := Default(DefaultProfile)
	require.NoError(t, err)
	// unset slices may come back empty instead of nil
	if diff := cmp.Diff(expected, cfg, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("loaded defaults differ (-want +got):\n%s", diff)
	}
	assert.Equal(t, lean.Devnet2Params(), cfg.Params)
	assert.Equal(t, BackendBadger, cfg.DBBackend)
}

func TestLoad_ProfileSelectsParams(t *testing.T) {
	cfg, err := Load(newFlags(t, "--profile", lean.ProfileDevnet3))
	require.NoError(t, err)
	assert.Equal(t, lean.Devnet3Params(), cfg.Params)
	assert.Equal(t, uint64(5), cfg.Params.IntervalsPerSlot)

	_, err = Load(newFlags(t, "--profile", "mainnet"))
	require.Error(t, err)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	unittest.RunWithTempDir(t, func(dir string) {
		file := filepath.Join(dir, "node.yaml")
		content := `
db-backend: pebble
params:
  slot-duration: 6s
  sync-tolerance-floor: 12
network:
  bootstrap:
    - /ip4/127.0.0.1/tcp/9001/p2p/12D3KooWQYhTNQdmr3ArTeUHRYzFg94BKyTkoWBDWez9kSCVe2Xo
  breaker-timeout: 1m
  max-message-size: 4MiB
chainsync:
  range-size: 32
genesis:
  validators:
    - index: 0
      public-key: 8f2b6fb3f8fa16bb3fe3ec3f4e8c0a3e1d8f0c3ab4a6c5e2a1f0e9d8c7b6a594
      weight: 1
`
		require.NoError(t, os.WriteFile(file, []byte(content), 0600))
		t.Setenv("LEAN_CHAINSYNC_MAX_ATTEMPTS", "9")
		t.Setenv("LEAN_SYNC_POLL_INTERVAL", "3s")

		cfg, err := Load(newFlags(t, "--config", file, "--datadir", dir, "--genesis-time", "1700000000"))
		require.NoError(t, err)

		assert.Equal(t, dir, cfg.DataDir)
		assert.Equal(t, BackendPebble, cfg.DBBackend)
		assert.Equal(t, 6*time.Second, cfg.Params.SlotDuration)
		assert.Equal(t, uint64(12), cfg.Params.SyncToleranceFloor)
		assert.Equal(t, uint64(1700000000), cfg.Params.GenesisTime)
		// untouched fields keep the profile defaults
		assert.Equal(t, lean.Devnet2Params().IntervalsPerSlot, cfg.Params.IntervalsPerSlot)
		assert.Len(t, cfg.Network.Bootstrap, 1)
		assert.Equal(t, time.Minute, cfg.Network.BreakerTimeout)
		assert.Equal(t, 4<<20, cfg.Network.MaxMessageSize)
		assert.Equal(t, uint64(32), cfg.ChainSync.RangeSize)
		assert.Equal(t, uint(9), cfg.ChainSync.MaxAttempts)
		assert.Equal(t, 3*time.Second, cfg.Sync.PollInterval)

		set, err := cfg.Genesis.ValidatorSet()
		require.NoError(t, err)
		assert.Equal(t, uint64(1), set.TotalWeight())
	})
}

func TestLoad_GenesisFile(t *testing.T) {
	unittest.RunWithTempDir(t, func(dir string) {
		file := filepath.Join(dir, "genesis.yaml")
		content := `
validators:
  - index: 0
    public-key: 8f2b6fb3f8fa16bb3fe3ec3f4e8c0a3e1d8f0c3ab4a6c5e2a1f0e9d8c7b6a594
    weight: 3
`
		require.NoError(t, os.WriteFile(file, []byte(content), 0600))

		cfg, err := Load(newFlags(t, "--genesis-file", file))
		require.NoError(t, err)
		set, err := cfg.Genesis.ValidatorSet()
		require.NoError(t, err)
		assert.Equal(t, uint64(3), set.TotalWeight())

		require.NoError(t, os.WriteFile(file, []byte("validators: []\nunknown: 1\n"), 0600))
		_, err = Load(newFlags(t, "--genesis-file", file))
		require.ErrorContains(t, err, "could not parse genesis file")
	})
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(newFlags(t, "--db-backend", "rocksdb"))
	require.ErrorContains(t, err, "DBBackend")

	t.Setenv("LEAN_INGESTION_BACKLOG_CAPACITY", "lots")
	_, err = Load(newFlags(t))
	require.ErrorContains(t, err, "invalid size")
	t.Setenv("LEAN_INGESTION_BACKLOG_CAPACITY", "")

	t.Setenv("LEAN_PARAMS_JUSTIFICATION_NUM", "4")
	_, err = Load(newFlags(t))
	require.ErrorContains(t, err, "JustificationDen")
}

func TestGenesis(t *testing.T) {
	g := Genesis{StateRoot: "0101010101010101010101010101010101010101010101010101010101010101"}
	block, err := g.GenesisBlock()
	require.NoError(t, err)
	assert.Equal(t, lean.Slot(0), block.Block.Slot)
	assert.Equal(t, byte(1), block.Block.StateRoot[31])

	_, err = g.ValidatorSet()
	require.Error(t, err, "a network needs at least one validator")
}
