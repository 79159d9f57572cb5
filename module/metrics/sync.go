package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ReamLabs/ream-sub002/module"
)

type SyncCollector struct {
	syncing         prometheus.Gauge
	jobQueues       prometheus.Gauge
	requestsSent    prometheus.Counter
	requestDuration *prometheus.HistogramVec
	blocksFetched   prometheus.Counter
	stalled         prometheus.Counter
	completed       prometheus.Counter
	completedBlocks prometheus.Counter
}

var _ module.SyncMetrics = (*SyncCollector)(nil)

func NewSyncCollector(reg prometheus.Registerer) *SyncCollector {
	factory := promauto.With(reg)
	return &SyncCollector{
		syncing: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemSync,
			Name:      "syncing",
			Help:      "1 while the node is syncing, 0 once synced",
		}),
		jobQueues: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemSync,
			Name:      "job_queues",
			Help:      "the number of open job queues",
		}),
		requestsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemSync,
			Name:      "range_requests_sent_total",
			Help:      "the number of range requests sent to peers",
		}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemSync,
			Name:      "range_request_duration_seconds",
			Help:      "the duration of range requests by outcome",
			Buckets:   prometheus.DefBuckets,
		}, []string{LabelOutcome}),
		blocksFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemSync,
			Name:      "blocks_fetched_total",
			Help:      "the number of blocks staged from range responses",
		}),
		stalled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemSync,
			Name:      "queues_stalled_total",
			Help:      "the number of jobs that exhausted their attempts",
		}),
		completed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemSync,
			Name:      "queues_completed_total",
			Help:      "the number of job queues handed to ingestion",
		}),
		completedBlocks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemSync,
			Name:      "blocks_forwarded_total",
			Help:      "the number of synced blocks handed to ingestion",
		}),
	}
}

func (sc *SyncCollector) SyncStatus(syncing bool) {
	if syncing {
		sc.syncing.Set(1)
		return
	}
	sc.syncing.Set(0)
}

func (sc *SyncCollector) JobQueues(count int) {
	sc.jobQueues.Set(float64(count))
}

func (sc *SyncCollector) RangeRequestSent() {
	sc.requestsSent.Inc()
}

func (sc *SyncCollector) RangeRequestFinished(outcome string, duration time.Duration) {
	sc.requestDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (sc *SyncCollector) BlocksFetched(count int) {
	sc.blocksFetched.Add(float64(count))
}

func (sc *SyncCollector) QueueStalled() {
	sc.stalled.Inc()
}

func (sc *SyncCollector) QueueCompleted(blocks int) {
	sc.completed.Inc()
	sc.completedBlocks.Add(float64(blocks))
}
