// Package metrics exposes Prometheus collectors for subscription fetches.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/creamcroissant/v2mng/internal/subscribe"
)

const namespace = "v2mng"

// Fetch 收集拉取相关指标，实现 subscribe.Observer。
type Fetch struct {
	runs           prometheus.Counter
	sourceFailures *prometheus.CounterVec
	entries        prometheus.Gauge
	rejections     *prometheus.CounterVec
	lastSuccess    prometheus.Gauge
}

// NewFetch registers the collectors on reg. A nil reg uses a private registry.
func NewFetch(reg prometheus.Registerer) *Fetch {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Fetch{
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "runs_total",
			Help:      "Total number of completed fetch runs.",
		}),
		sourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "source_failures_total",
			Help:      "Sources that could not be retrieved or decoded.",
		}, []string{"index"}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "entries",
			Help:      "Descriptors stored by the last fetch run.",
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_rejections_total",
			Help:      "Subscription links skipped, by reason.",
		}, []string{"reason"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last fetch run that was persisted.",
		}),
	}
	reg.MustRegister(m.runs, m.sourceFailures, m.entries, m.rejections, m.lastSuccess)
	return m
}

func (m *Fetch) SourceDone(result subscribe.SourceResult) {
	if !result.OK() {
		m.sourceFailures.WithLabelValues(strconv.Itoa(result.Index)).Inc()
	}
}

func (m *Fetch) LinkRejected(reason string) {
	m.rejections.WithLabelValues(reason).Inc()
}

// RunDone records a persisted run with its entry count.
func (m *Fetch) RunDone(entries int) {
	m.runs.Inc()
	m.entries.Set(float64(entries))
	m.lastSuccess.SetToCurrentTime()
}
