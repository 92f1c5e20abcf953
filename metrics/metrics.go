// Package metrics
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "governance_tracker"

// Provider owns the service metrics and their registry.
type Provider struct {
	registry *prometheus.Registry

	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	partialFaults   *prometheus.CounterVec
	outcomes        *prometheus.CounterVec
	proposals       prometheus.Gauge
}

func New() *Provider {
	p := &Provider{
		registry: prometheus.NewRegistry(),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Proposal set refreshes by result.",
		}, []string{"result"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of proposal set refreshes.",
			Buckets:   prometheus.DefBuckets,
		}),
		partialFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partial_fetch_faults_total",
			Help:      "Sub-queries skipped during aggregation or reconciliation.",
		}, []string{"component"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_outcomes_total",
			Help:      "Terminal outcomes of tracked operations.",
		}, []string{"operation", "outcome"}),
		proposals: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "proposals",
			Help:      "Proposals currently projected.",
		}),
	}
	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.refreshes,
		p.refreshDuration,
		p.partialFaults,
		p.outcomes,
		p.proposals,
	)
	return p
}

func (p *Provider) ObserveRefresh(err error, d time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.refreshes.WithLabelValues(result).Inc()
	p.refreshDuration.Observe(d.Seconds())
}

func (p *Provider) AddPartialFaults(component string, n int) {
	if n <= 0 {
		return
	}
	p.partialFaults.WithLabelValues(component).Add(float64(n))
}

func (p *Provider) ObserveOutcome(operation, outcome string) {
	p.outcomes.WithLabelValues(operation, outcome).Inc()
}

func (p *Provider) SetProposals(n int) {
	p.proposals.Set(float64(n))
}

func (p *Provider) Registry() *prometheus.Registry {
	return p.registry
}

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
