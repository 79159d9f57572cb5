package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpmetrics "github.com/slok/go-http-metrics/metrics/prometheus"
	"github.com/slok/go-http-metrics/middleware"
	"github.com/slok/go-http-metrics/middleware/std"
)

const MetricsPath = "/metrics"

// NewHTTPHandler serves the metrics gathered from reg on MetricsPath. The
// scrapes themselves are measured and exported under the lean namespace.
func NewHTTPHandler(reg prometheus.Registerer) http.Handler {
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	mdlw := middleware.New(middleware.Config{
		Recorder: httpmetrics.NewRecorder(httpmetrics.Config{
			Prefix:   namespaceLean,
			Registry: reg,
		}),
		Service: "metrics",
	})

	mux := http.NewServeMux()
	mux.Handle(MetricsPath, std.Handler(MetricsPath, mdlw, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	return mux
}
