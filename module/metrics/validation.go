package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ReamLabs/ream-sub002/module"
)

type ValidationCollector struct {
	results *prometheus.CounterVec
}

var _ module.ValidationMetrics = (*ValidationCollector)(nil)

func NewValidationCollector(reg prometheus.Registerer) *ValidationCollector {
	return &ValidationCollector{
		results: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceLean,
			Subsystem: subsystemValidation,
			Name:      "results_total",
			Help:      "the number of validation gate decisions",
		}, []string{LabelKind, LabelResult}),
	}
}

func (vc *ValidationCollector) ItemValidated(kind string, result string) {
	vc.results.WithLabelValues(kind, result).Inc()
}
