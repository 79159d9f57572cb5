package clock

import (
	"time"

	"github.com/ReamLabs/ream-sub002/model/lean"
	"github.com/ReamLabs/ream-sub002/module"
)

// SlotClock derives slots and intervals from the genesis time of a network
// profile.
type SlotClock struct {
	genesis   time.Time
	slot      time.Duration
	intervals uint64
	now       func() time.Time
}

var _ module.SlotClock = (*SlotClock)(nil)

type Option func(*SlotClock)

// WithNow replaces the wall clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(c *SlotClock) {
		c.now = now
	}
}

func New(params lean.Params, opts ...Option) *SlotClock {
	c := &SlotClock{
		genesis:   time.Unix(int64(params.GenesisTime), 0),
		slot:      params.SlotDuration,
		intervals: params.IntervalsPerSlot,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *SlotClock) sinceGenesis() time.Duration {
	elapsed := c.now().Sub(c.genesis)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

func (c *SlotClock) CurrentSlot() lean.Slot {
	return lean.Slot(c.sinceGenesis() / c.slot)
}

func (c *SlotClock) CurrentInterval() uint64 {
	return uint64(c.sinceGenesis()%c.slot) / uint64(c.IntervalDuration())
}

func (c *SlotClock) SlotStart(slot lean.Slot) time.Time {
	return c.genesis.Add(time.Duration(slot) * c.slot)
}

func (c *SlotClock) IntervalDuration() time.Duration {
	return c.slot / time.Duration(c.intervals)
}

// UntilNextInterval returns how long to wait for the next interval boundary.
// Before genesis that is the time left until genesis.
func (c *SlotClock) UntilNextInterval() time.Duration {
	elapsed := c.now().Sub(c.genesis)
	if elapsed < 0 {
		return -elapsed
	}
	interval := c.IntervalDuration()
	return interval - elapsed%interval
}
