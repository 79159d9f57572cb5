package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/ReamLabs/ream-sub002/engine/common/synchronization"
	"github.com/ReamLabs/ream-sub002/engine/ingestion"
	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module/chainsync"
	"github.com/ReamLabs/ream-sub002/module/validation"
	"github.com/ReamLabs/ream-sub002/network/p2p"
)

const (
	BackendBadger = "badger"
	BackendPebble = "pebble"
)

// Config is the complete node configuration.
type Config struct {
	DataDir     string `mapstructure:"datadir" validate:"required"`
	DBBackend   string `mapstructure:"db-backend" validate:"oneof=badger pebble"`
	LogLevel    string `mapstructure:"loglevel" validate:"oneof=trace debug info warn error"`
	MetricsAddr string `mapstructure:"metrics-addr"`
	// Profile selects the defaults of Params. Every field of Params can still be overridden.
	Profile string      `mapstructure:"profile" validate:"required"`
	Params  lean.Params `mapstructure:"params"`
	Genesis Genesis     `mapstructure:"genesis"`
	// GenesisFile replaces Genesis with the content of a yaml file if set.
	GenesisFile string `mapstructure:"genesis-file"`

	Network    p2p.Config             `mapstructure:"network"`
	Sync       synchronization.Config `mapstructure:"sync"`
	ChainSync  chainsync.Config       `mapstructure:"chainsync"`
	Ingestion  ingestion.Config       `mapstructure:"ingestion"`
	Validation validation.Config      `mapstructure:"validation"`
}

// Genesis describes the genesis block and the validator set every node of a
// network starts from.
type Genesis struct {
	// StateRoot is the hex encoded state root of the genesis block.
	StateRoot  string             `mapstructure:"state-root" yaml:"state-root" validate:"omitempty,len=64,hexadecimal"`
	Validators []GenesisValidator `mapstructure:"validators" yaml:"validators" validate:"dive"`
}

type GenesisValidator struct {
	Index uint64 `mapstructure:"index" yaml:"index"`
	// PublicKey is the hex encoded raw ed25519 public key.
	PublicKey string `mapstructure:"public-key" yaml:"public-key" validate:"len=64,hexadecimal"`
	Weight    uint64 `mapstructure:"weight" yaml:"weight" validate:"gt=0"`
}

// LoadGenesisFile reads a genesis description from a yaml file. Unknown keys
// are rejected.
func LoadGenesisFile(path string) (Genesis, error) {
	raw, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return Genesis{}, fmt.Errorf("could not read genesis file: %w", err)
	}
	var g Genesis
	if err := yaml.UnmarshalStrict(raw, &g); err != nil {
		return Genesis{}, fmt.Errorf("could not parse genesis file %s: %w", path, err)
	}
	return g, nil
}

// Default returns the configuration of the given profile.
func Default(profile string) (Config, error) {
	params, err := lean.ParamsForProfile(profile)
	if err != nil {
		return Config{}, err
	}
	return Config{
		DataDir:    "./data",
		DBBackend:  BackendBadger,
		LogLevel:   "info",
		Profile:    profile,
		Params:     params,
		Network:    p2p.DefaultConfig(),
		Sync:       synchronization.DefaultConfig(),
		ChainSync:  chainsync.DefaultConfig(),
		Ingestion:  ingestion.DefaultConfig(),
		Validation: validation.DefaultConfig(),
	}, nil
}

// GenesisBlock returns the unsigned slot zero block.
func (g Genesis) GenesisBlock() (*lean.SignedBlock, error) {
	var root lean.Root
	if g.StateRoot != "" {
		raw, err := hex.DecodeString(g.StateRoot)
		if err != nil {
			return nil, fmt.Errorf("invalid genesis state root: %w", err)
		}
		copy(root[:], raw)
	}
	return lean.GenesisBlock(root), nil
}

// ValidatorSet decodes the genesis validators.
func (g Genesis) ValidatorSet() (*lean.ValidatorSet, error) {
	validators := make([]lean.Validator, 0, len(g.Validators))
	for _, v := range g.Validators {
		key, err := hex.DecodeString(v.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("invalid public key of validator %d: %w", v.Index, err)
		}
		validators = append(validators, lean.Validator{Index: v.Index, PublicKey: key, Weight: v.Weight})
	}
	set, err := lean.NewValidatorSet(validators)
	if err != nil {
		return nil, fmt.Errorf("invalid genesis validators: %w", err)
	}
	return set, nil
}
