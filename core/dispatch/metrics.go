package dispatch

import (
	"github.com/kilianp07/sortie/core/model"
	"github.com/kilianp07/sortie/core/rules"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	decisionsTotal  *prometheus.CounterVec
	violationsTotal *prometheus.CounterVec
	simConversions  prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, prometheus.Counter) {
	dec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sortie_dispatch_decisions_total",
			Help: "Dispatch decisions by outcome",
		},
		[]string{"decision"},
	)
	vio := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sortie_dispatch_violations_total",
			Help: "Weather minima violations by reason code",
		},
		[]string{"reason"},
	)
	conv := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sortie_dispatch_sim_conversions_total",
			Help: "Flights converted to simulator sessions",
		},
	)
	return dec, vio, conv
}

func init() {
	decisionsTotal, violationsTotal, simConversions = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(decisionsTotal, violationsTotal, simConversions)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	decisionsTotal, violationsTotal, simConversions = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

// Observe records the outcome of one dispatched slot.
func Observe(s model.RosterSlot) {
	decisionsTotal.WithLabelValues(string(s.DispatchDecision)).Inc()
	for _, r := range s.Reasons {
		switch r {
		case rules.WxBelowCeilingMinima, rules.WxBelowVisMinima, rules.WxWindExceeded, rules.WxCrosswindExceeded:
			violationsTotal.WithLabelValues(r).Inc()
		case rules.ConvertedToSim:
			simConversions.Inc()
		}
	}
}
