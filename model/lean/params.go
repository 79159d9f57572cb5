package lean

import (
	"fmt"
	"time"
)

const (
	ProfileDevnet2 = "devnet2"
	ProfileDevnet3 = "devnet3"
)

// Params are the network profile thresholds. They are configuration: the two
// shipped profiles are defaults, not an exhaustive list.
type Params struct {
	Name string `mapstructure:"name" validate:"required"`

	GenesisTime      uint64        `mapstructure:"genesis-time"`
	SlotDuration     time.Duration `mapstructure:"slot-duration" validate:"gt=0"`
	IntervalsPerSlot uint64        `mapstructure:"intervals-per-slot" validate:"gt=0"`

	// a checkpoint is justified once Num/Den of the total weight voted for it
	JustificationNum uint64 `mapstructure:"justification-num" validate:"gt=0"`
	JustificationDen uint64 `mapstructure:"justification-den" validate:"gt=0,gtefield=JustificationNum"`
	// minimum share of the total weight a branch needs to become the safe target
	SafeTargetNum uint64 `mapstructure:"safe-target-num" validate:"gt=0"`
	SafeTargetDen uint64 `mapstructure:"safe-target-den" validate:"gt=0,gtefield=SafeTargetNum"`

	JustificationLookbackSlots uint64 `mapstructure:"justification-lookback-slots"`
	MaxFutureSlots             uint64 `mapstructure:"max-future-slots"`
	SyncToleranceFloor         uint64 `mapstructure:"sync-tolerance-floor"`
	BehindPeersSlots           uint64 `mapstructure:"behind-peers-slots"`
	PruneRetentionSlots        uint64 `mapstructure:"prune-retention-slots"`
}

func Devnet2Params() Params {
	return Params{
		Name:                       ProfileDevnet2,
		SlotDuration:               4 * time.Second,
		IntervalsPerSlot:           4,
		JustificationNum:           2,
		JustificationDen:           3,
		SafeTargetNum:              2,
		SafeTargetDen:              3,
		JustificationLookbackSlots: 3,
		MaxFutureSlots:             1,
		SyncToleranceFloor:         8,
		BehindPeersSlots:           2,
		PruneRetentionSlots:        128,
	}
}

func Devnet3Params() Params {
	p := Devnet2Params()
	p.Name = ProfileDevnet3
	p.IntervalsPerSlot = 5
	return p
}

// ParamsForProfile returns the defaults of a named profile.
func ParamsForProfile(name string) (Params, error) {
	switch name {
	case ProfileDevnet2:
		return Devnet2Params(), nil
	case ProfileDevnet3:
		return Devnet3Params(), nil
	default:
		return Params{}, fmt.Errorf("unknown network profile %q", name)
	}
}

// JustificationReached reports whether weight out of total crosses the justification threshold.
func (p Params) JustificationReached(weight, total uint64) bool {
	return weight*p.JustificationDen >= total*p.JustificationNum
}

// SafeTargetMinScore is ceil(total * SafeTargetNum / SafeTargetDen).
func (p Params) SafeTargetMinScore(total uint64) uint64 {
	return (total*p.SafeTargetNum + p.SafeTargetDen - 1) / p.SafeTargetDen
}

// SyncTolerance is max(SyncToleranceFloor, 2n/3) for n validators.
func (p Params) SyncTolerance(validators int) uint64 {
	return max(p.SyncToleranceFloor, uint64(validators)*2/3)
}
