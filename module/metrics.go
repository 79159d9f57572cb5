package module

import (
	"time"
)

// CacheMetrics tracks the read caches in front of the durable store.
type CacheMetrics interface {
	// CacheEntries report the total number of cached items
	CacheEntries(resource string, entries uint)
	// CacheHit report the number of times the queried item is found in the cache
	CacheHit(resource string)
	// CacheNotFound records the number of times the queried item was not found in either cache or database.
	CacheNotFound(resource string)
	// CacheMiss report the number of times the queried item is not found in the cache, but found in the database.
	CacheMiss(resource string)
}

// ValidationMetrics counts gate decisions per item kind.
type ValidationMetrics interface {
	// ItemValidated records one decision of the validation gate. kind is
	// "block" or "vote", result is "accept", "ignore" or "reject".
	ItemValidated(kind string, result string)
}

// IngestionMetrics tracks the inbound queue and the causal backlog.
type IngestionMetrics interface {
	// InboundQueueLength reports the number of items waiting to be applied.
	InboundQueueLength(length uint)

	// BacklogSize reports the number of items held for a missing dependency.
	BacklogSize(size uint)

	// ItemApplied is called once an item has been applied to the chain state.
	ItemApplied(kind string)

	// ItemHeld is called when an item is parked in the backlog.
	ItemHeld(kind string)

	// ItemEvicted is called when the backlog drops its oldest item because it is full.
	ItemEvicted(kind string)

	// ItemEscalated is called when an item held for too long is reported as a gap.
	ItemEscalated(kind string)

	// ItemDropped is called when an item is discarded, e.g. because the inbound queue is full.
	ItemDropped(kind string, reason string)
}

// ChainMetrics tracks the chain state and the fork choice.
type ChainMetrics interface {
	HeadSlot(slot uint64)
	JustifiedSlot(slot uint64)
	FinalizedSlot(slot uint64)
	SafeTargetSlot(slot uint64)

	// BlockApplied is called for every block added to the chain state.
	BlockApplied()

	// VoteApplied is called for every vote added to the chain state.
	VoteApplied()

	// EquivocationDetected is called when a validator votes twice for the same slot.
	EquivocationDetected()

	// Pruned reports how many blocks and votes were dropped after finalization advanced.
	Pruned(blocks int, votes int)

	// ForkChoiceDuration measures one head recomputation.
	ForkChoiceDuration(duration time.Duration)
}

// SyncMetrics tracks the sync job manager.
type SyncMetrics interface {
	// SyncStatus reports whether the node considers itself syncing.
	SyncStatus(syncing bool)

	// JobQueues reports the number of open job queues.
	JobQueues(count int)

	// RangeRequestSent is called for every range request issued to a peer.
	RangeRequestSent()

	// RangeRequestFinished records the outcome ("success", "timeout", "failure",
	// "malformed", "cancelled") and duration of a range request.
	RangeRequestFinished(outcome string, duration time.Duration)

	// BlocksFetched counts blocks staged from range responses.
	BlocksFetched(count int)

	// QueueStalled is called when a job exhausts its attempts.
	QueueStalled()

	// QueueCompleted is called when the forward syncer hands a queue to ingestion.
	QueueCompleted(blocks int)
}

// NetworkMetrics tracks the peer protocol adapter.
type NetworkMetrics interface {
	// ConnectedPeers reports the number of peers the adapter knows about.
	ConnectedPeers(count int)

	// InboundRequest is called when a request is served on the given protocol.
	InboundRequest(protocol string)

	// InboundRequestRateLimited is called when a peer exceeds its request budget.
	InboundRequestRateLimited(protocol string)

	// GossipReceived is called for every gossip message handed to the topic validator.
	GossipReceived(topic string)
}
