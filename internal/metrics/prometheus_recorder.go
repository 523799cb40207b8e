package metrics

import (
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "updatesnap"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	runDuration    prom.Histogram
	runOutcomes    *prom.CounterVec
	partOutcomes   *prom.CounterVec
	pendingUpdates *prom.GaugeVec
	forgeDuration  *prom.HistogramVec
	forgeRetries   *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a full check run",
			Buckets:   prom.DefBuckets,
		})
		pr.runOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Check runs by outcome",
		}, []string{"outcome"})
		pr.partOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "part_outcomes_total",
			Help:      "Checked parts by outcome",
		}, []string{"outcome"})
		pr.pendingUpdates = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_updates",
			Help:      "Number of newer upstream references per part in the last run",
		}, []string{"part"})
		pr.forgeDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "forge_request_duration_seconds",
			Help:      "Duration of forge API requests",
			Buckets:   prom.DefBuckets,
		}, []string{"forge", "code"})
		pr.forgeRetries = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "forge_retries_total",
			Help:      "Forge requests retried after transient failures",
		}, []string{"forge"})
		reg.MustRegister(pr.runDuration, pr.runOutcomes, pr.partOutcomes, pr.pendingUpdates, pr.forgeDuration, pr.forgeRetries)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome RunOutcome) {
	if p == nil || p.runOutcomes == nil {
		return
	}
	p.runOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncPartOutcome(outcome PartOutcome) {
	if p == nil || p.partOutcomes == nil {
		return
	}
	p.partOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetPendingUpdates(part string, n int) {
	if p == nil || p.pendingUpdates == nil {
		return
	}
	p.pendingUpdates.WithLabelValues(part).Set(float64(n))
}

// ObserveForgeRequest records one HTTP round trip. status 0 means the
// request failed before a response arrived.
func (p *PrometheusRecorder) ObserveForgeRequest(forge string, d time.Duration, status int) {
	if p == nil || p.forgeDuration == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	p.forgeDuration.WithLabelValues(forge, code).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncForgeRetry(forge string) {
	if p == nil || p.forgeRetries == nil {
		return
	}
	p.forgeRetries.WithLabelValues(forge).Inc()
}
