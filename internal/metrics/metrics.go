package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"authwatch/internal/logger"
)

var (
	LinesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authwatch_lines_total",
			Help: "Total number of raw log lines read",
		},
	)

	ParseFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authwatch_parse_failures_total",
			Help: "Total number of lines that did not match the auth log grammar",
		},
	)

	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authwatch_events_total",
			Help: "Total number of parsed auth events",
		},
		[]string{"outcome"},
	)

	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authwatch_alerts_total",
			Help: "Total number of detector alerts emitted",
		},
		[]string{"kind", "severity"},
	)

	TaggedEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authwatch_rule_tagged_events_total",
			Help: "Total number of events tagged by Sigma rules",
		},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authwatch_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)
)

// Serve exposes /metrics on the given address. It blocks, so callers
// run it in a goroutine; errors are logged, not fatal, since metrics
// are best-effort.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Infof("Metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Errorf("Metrics server stopped: %v", err)
	}
}
