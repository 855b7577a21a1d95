// Package metrics holds the prometheus collectors of the phase engine.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "thesis"

// Metrics collectors for phase transitions and timers.
type Metrics struct {
	Transitions   *prometheus.CounterVec
	ApplyFailures *prometheus.CounterVec
	TimersPending prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "phase",
			Name:      "transitions_total",
			Help:      "Processes advanced, by source and target phase.",
		}, []string{"from", "to"}),
		ApplyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "phase",
			Name:      "apply_failures_total",
			Help:      "Phase applies rolled back, by source phase.",
		}, []string{"from"}),
		TimersPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "phase",
			Name:      "timers_pending",
			Help:      "Phase start timers scheduled and not yet fired or cancelled.",
		}),
	}
	reg.MustRegister(m.Transitions, m.ApplyFailures, m.TimersPending)
	return m
}

// ObserveTransition counts n processes moved from → to.
func (m *Metrics) ObserveTransition(from, to, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Transitions.WithLabelValues(strconv.Itoa(from), strconv.Itoa(to)).Add(float64(n))
}

// ObserveFailure counts one failed apply of from.
func (m *Metrics) ObserveFailure(from int) {
	if m == nil {
		return
	}
	m.ApplyFailures.WithLabelValues(strconv.Itoa(from)).Inc()
}

// TimerScheduled and TimerDone track the pending timer gauge.
func (m *Metrics) TimerScheduled() {
	if m != nil {
		m.TimersPending.Inc()
	}
}

func (m *Metrics) TimerDone() {
	if m != nil {
		m.TimersPending.Dec()
	}
}
