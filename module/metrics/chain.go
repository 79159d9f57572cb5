package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ReamLabs/ream-sub002/module"
)

type ChainCollector struct {
	headSlot           prometheus.Gauge
	justifiedSlot      prometheus.Gauge
	finalizedSlot      prometheus.Gauge
	safeTargetSlot     prometheus.Gauge
	blocksApplied      prometheus.Counter
	votesApplied       prometheus.Counter
	equivocations      prometheus.Counter
	prunedBlocks       prometheus.Counter
	prunedVotes        prometheus.Counter
	forkChoiceDuration prometheus.Histogram
}

var _ module.ChainMetrics = (*ChainCollector)(nil)

func NewChainCollector(reg prometheus.Registerer) *ChainCollector {
	factory := promauto.With(reg)
	return &ChainCollector{
		headSlot: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemChain,
			Name:      "head_slot",
			Help:      "the slot of the current head",
		}),
		justifiedSlot: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemChain,
			Name:      "justified_slot",
			Help:      "the slot of the latest justified checkpoint",
		}),
		finalizedSlot: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemChain,
			Name:      "finalized_slot",
			Help:      "the slot of the latest finalized checkpoint",
		}),
		safeTargetSlot: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemChain,
			Name:      "safe_target_slot",
			Help:      "the slot of the current safe target",
		}),
		blocksApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemChain,
			Name:      "blocks_applied_total",
			Help:      "the number of blocks added to the chain state",
		}),
		votesApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemChain,
			Name:      "votes_applied_total",
			Help:      "the number of votes added to the chain state",
		}),
		equivocations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemChain,
			Name:      "equivocations_total",
			Help:      "the number of conflicting vote pairs detected",
		}),
		prunedBlocks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemChain,
			Name:      "pruned_blocks_total",
			Help:      "the number of blocks pruned after finalization",
		}),
		prunedVotes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemChain,
			Name:      "pruned_votes_total",
			Help:      "the number of votes pruned after finalization",
		}),
		forkChoiceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemChain,
			Name:      "fork_choice_duration_seconds",
			Help:      "the time spent recomputing the head",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}),
	}
}

func (cc *ChainCollector) HeadSlot(slot uint64) {
	cc.headSlot.Set(float64(slot))
}

func (cc *ChainCollector) JustifiedSlot(slot uint64) {
	cc.justifiedSlot.Set(float64(slot))
}

func (cc *ChainCollector) FinalizedSlot(slot uint64) {
	cc.finalizedSlot.Set(float64(slot))
}

func (cc *ChainCollector) SafeTargetSlot(slot uint64) {
	cc.safeTargetSlot.Set(float64(slot))
}

func (cc *ChainCollector) BlockApplied() {
	cc.blocksApplied.Inc()
}

func (cc *ChainCollector) VoteApplied() {
	cc.votesApplied.Inc()
}

func (cc *ChainCollector) EquivocationDetected() {
	cc.equivocations.Inc()
}

func (cc *ChainCollector) Pruned(blocks int, votes int) {
	cc.prunedBlocks.Add(float64(blocks))
	cc.prunedVotes.Add(float64(votes))
}

func (cc *ChainCollector) ForkChoiceDuration(duration time.Duration) {
	cc.forkChoiceDuration.Observe(duration.Seconds())
}
