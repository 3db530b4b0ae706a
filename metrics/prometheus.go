package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements Collector backed by Prometheus.
// Metrics are registered lazily on first use.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	matchRuns         *prometheus.CounterVec
	matchParticipants prometheus.Histogram
	shuffleTrials     prometheus.Histogram
	httpDuration      *prometheus.HistogramVec
}

var _ Collector = (*PrometheusCollector)(nil)

// NewPrometheus uses prometheus.DefaultRegisterer when reg is nil and
// "wishly" when namespace is empty.
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "wishly"
	}
	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.matchRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "matching",
			Name:      "runs_total",
			Help:      "Total matching requests by result.",
		}, []string{"result"})

		p.matchParticipants = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "matching",
			Name:      "participants",
			Help:      "Number of participants per matching request.",
			Buckets:   []float64{2, 3, 5, 10, 20, 50, 100, 300},
		})

		p.shuffleTrials = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "matching",
			Name:      "shuffle_trials",
			Help:      "Shuffles needed to find a derangement.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 50},
		})

		p.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method, route pattern and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"})

		p.reg.MustRegister(p.matchRuns)
		p.reg.MustRegister(p.matchParticipants)
		p.reg.MustRegister(p.shuffleTrials)
		p.reg.MustRegister(p.httpDuration)
	})
}

func (p *PrometheusCollector) RecordMatchRun(result string, participants int) {
	p.ensureRegistered()
	p.matchRuns.WithLabelValues(result).Inc()
	p.matchParticipants.Observe(float64(participants))
}

func (p *PrometheusCollector) ObserveShuffleTrials(trials int) {
	p.ensureRegistered()
	p.shuffleTrials.Observe(float64(trials))
}

func (p *PrometheusCollector) ObserveHTTPRequest(method, route string, status int, seconds float64) {
	p.ensureRegistered()
	p.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}
