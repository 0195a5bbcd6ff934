// Copyright © 2024 The Quill authors

package service

import (
	"time"

	"github.com/luthersystems/quill/lint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors updated by a Service.
type Metrics struct {
	Analyses         *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	Diagnostics      *prometheus.CounterVec
	Queries          *prometheus.CounterVec
	Snapshots        prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.  A nil
// registerer creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Analyses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quill_analyses_total",
			Help: "Total number of document analyses by result.",
		}, []string{"result"}),
		AnalysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "quill_analysis_seconds",
			Help:    "Time spent running the analysis pipeline over one document.",
			Buckets: prometheus.DefBuckets,
		}),
		Diagnostics: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quill_diagnostics_total",
			Help: "Total number of diagnostics produced by rule.",
		}, []string{"rule"}),
		Queries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quill_queries_total",
			Help: "Total number of snapshot queries by operation and result.",
		}, []string{"op", "result"}),
		Snapshots: factory.NewGauge(prometheus.GaugeOpts{
			Name: "quill_snapshots",
			Help: "Number of snapshots currently retained.",
		}),
	}
}

func (m *Metrics) observeAnalysis(elapsed time.Duration, diags []lint.Diagnostic, err error) {
	if err != nil {
		m.Analyses.WithLabelValues("error").Inc()
		return
	}
	m.Analyses.WithLabelValues("ok").Inc()
	m.AnalysisDuration.Observe(elapsed.Seconds())
	for _, d := range diags {
		m.Diagnostics.WithLabelValues(d.Analyzer).Inc()
	}
}

func (m *Metrics) observeQuery(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Queries.WithLabelValues(op, result).Inc()
}
