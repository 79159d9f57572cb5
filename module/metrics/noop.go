package metrics

import (
	"time"

	"github.com/ReamLabs/ream-sub002/module"
)

type NoopCollector struct{}

func NewNoopCollector() *NoopCollector {
	nc := &NoopCollector{}
	return nc
}

var _ module.CacheMetrics = (*NoopCollector)(nil)
var _ module.ValidationMetrics = (*NoopCollector)(nil)
var _ module.IngestionMetrics = (*NoopCollector)(nil)
var _ module.ChainMetrics = (*NoopCollector)(nil)
var _ module.SyncMetrics = (*NoopCollector)(nil)
var _ module.NetworkMetrics = (*NoopCollector)(nil)

func (nc *NoopCollector) CacheEntries(resource string, entries uint)                  {}
func (nc *NoopCollector) CacheHit(resource string)                                    {}
func (nc *NoopCollector) CacheNotFound(resource string)                               {}
func (nc *NoopCollector) CacheMiss(resource string)                                   {}
func (nc *NoopCollector) ItemValidated(kind string, result string)                    {}
func (nc *NoopCollector) InboundQueueLength(length uint)                              {}
func (nc *NoopCollector) BacklogSize(size uint)                                       {}
func (nc *NoopCollector) ItemApplied(kind string)                                     {}
func (nc *NoopCollector) ItemHeld(kind string)                                        {}
func (nc *NoopCollector) ItemEvicted(kind string)                                     {}
func (nc *NoopCollector) ItemEscalated(kind string)                                   {}
func (nc *NoopCollector) ItemDropped(kind string, reason string)                      {}
func (nc *NoopCollector) HeadSlot(slot uint64)                                        {}
func (nc *NoopCollector) JustifiedSlot(slot uint64)                                   {}
func (nc *NoopCollector) FinalizedSlot(slot uint64)                                   {}
func (nc *NoopCollector) SafeTargetSlot(slot uint64)                                  {}
func (nc *NoopCollector) BlockApplied()                                               {}
func (nc *NoopCollector) VoteApplied()                                                {}
func (nc *NoopCollector) EquivocationDetected()                                       {}
func (nc *NoopCollector) Pruned(blocks int, votes int)                                {}
func (nc *NoopCollector) ForkChoiceDuration(duration time.Duration)                   {}
func (nc *NoopCollector) SyncStatus(syncing bool)                                     {}
func (nc *NoopCollector) JobQueues(count int)                                         {}
func (nc *NoopCollector) RangeRequestSent()                                           {}
func (nc *NoopCollector) RangeRequestFinished(outcome string, duration time.Duration) {}
func (nc *NoopCollector) BlocksFetched(count int)                                     {}
func (nc *NoopCollector) QueueStalled()                                               {}
func (nc *NoopCollector) QueueCompleted(blocks int)                                   {}
func (nc *NoopCollector) ConnectedPeers(count int)                                    {}
func (nc *NoopCollector) InboundRequest(protocol string)                              {}
func (nc *NoopCollector) InboundRequestRateLimited(protocol string)                   {}
func (nc *NoopCollector) GossipReceived(topic string)                                 {}
