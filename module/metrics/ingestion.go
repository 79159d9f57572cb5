package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ReamLabs/ream-sub002/module"
)

type IngestionCollector struct {
	queueLength prometheus.Gauge
	backlogSize prometheus.Gauge
	applied     *prometheus.CounterVec
	held        *prometheus.CounterVec
	evicted     *prometheus.CounterVec
	escalated   *prometheus.CounterVec
	dropped     *prometheus.CounterVec
}

var _ module.IngestionMetrics = (*IngestionCollector)(nil)

func NewIngestionCollector(reg prometheus.Registerer) *IngestionCollector {
	factory := promauto.With(reg)
	return &IngestionCollector{
		queueLength: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemIngestion,
			Name:      "inbound_queue_length",
			Help:      "the number of items waiting to be applied",
		}),
		backlogSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemIngestion,
			Name:      "backlog_size",
			Help:      "the number of items held for a missing dependency",
		}),
		applied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemIngestion,
			Name:      "applied_total",
			Help:      "the number of items applied to the chain state",
		}, []string{LabelKind}),
		held: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemIngestion,
			Name:      "held_total",
			Help:      "the number of items parked in the backlog",
		}, []string{LabelKind}),
		evicted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemIngestion,
			Name:      "evicted_total",
			Help:      "the number of items evicted from a full backlog",
		}, []string{LabelKind}),
		escalated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemIngestion,
			Name:      "escalated_total",
			Help:      "the number of held items reported as gaps after waiting too long",
		}, []string{LabelKind}),
		dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemIngestion,
			Name:      "dropped_total",
			Help:      "the number of items discarded before being applied",
		}, []string{LabelKind, LabelReason}),
	}
}

func (ic *IngestionCollector) InboundQueueLength(length uint) {
	ic.queueLength.Set(float64(length))
}

func (ic *IngestionCollector) BacklogSize(size uint) {
	ic.backlogSize.Set(float64(size))
}

func (ic *IngestionCollector) ItemApplied(kind string) {
	ic.applied.WithLabelValues(kind).Inc()
}

func (ic *IngestionCollector) ItemHeld(kind string) {
	ic.held.WithLabelValues(kind).Inc()
}

func (ic *IngestionCollector) ItemEvicted(kind string) {
	ic.evicted.WithLabelValues(kind).Inc()
}

func (ic *IngestionCollector) ItemEscalated(kind string) {
	ic.escalated.WithLabelValues(kind).Inc()
}

func (ic *IngestionCollector) ItemDropped(kind string, reason string) {
	ic.dropped.WithLabelValues(kind, reason).Inc()
}
