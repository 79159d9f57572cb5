package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ReamLabs/ream-sub002/module"
)

type NetworkCollector struct {
	peers       prometheus.Gauge
	inbound     *prometheus.CounterVec
	rateLimited *prometheus.CounterVec
	gossip      *prometheus.CounterVec
}

var _ module.NetworkMetrics = (*NetworkCollector)(nil)

func NewNetworkCollector(reg prometheus.Registerer) *NetworkCollector {
	factory := promauto.With(reg)
	return &NetworkCollector{
		peers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemNetwork,
			Name:      "connected_peers",
			Help:      "the number of connected peers",
		}),
		inbound: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemNetwork,
			Name:      "inbound_requests_total",
			Help:      "the number of requests served per protocol",
		}, []string{LabelProtocol}),
		rateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemNetwork,
			Name:      "inbound_requests_rate_limited_total",
			Help:      "the number of requests refused because the peer exceeded its budget",
		}, []string{LabelProtocol}),
		gossip: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemNetwork,
			Name:      "gossip_received_total",
			Help:      "the number of gossip messages received per topic",
		}, []string{LabelTopic}),
	}
}

func (nc *NetworkCollector) ConnectedPeers(count int) {
	nc.peers.Set(float64(count))
}

func (nc *NetworkCollector) InboundRequest(protocol string) {
	nc.inbound.WithLabelValues(protocol).Inc()
}

func (nc *NetworkCollector) InboundRequestRateLimited(protocol string) {
	nc.rateLimited.WithLabelValues(protocol).Inc()
}

func (nc *NetworkCollector) GossipReceived(topic string) {
	nc.gossip.WithLabelValues(topic).Inc()
}
