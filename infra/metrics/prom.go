package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/sortie/core/metrics"
)

// PromSink records roster, reallocation and weather events in Prometheus metrics.
type PromSink struct {
	rosters       *prometheus.CounterVec
	coverage      *prometheus.GaugeVec
	reallocations *prometheus.CounterVec
	churn         *prometheus.HistogramVec
	changes       *prometheus.CounterVec
	weather       *prometheus.CounterVec
}

// NewPromSink registers roster metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.rosters, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sortie_rosters_committed_total",
		Help: "Roster versions committed, generations and reallocations",
	}, []string{"base_icao"})); err != nil {
		return nil, err
	}
	if s.coverage, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sortie_roster_coverage_ratio",
		Help: "Share of GO slots in the latest version of a week, 0 to 100",
	}, []string{"week_start"})); err != nil {
		return nil, err
	}
	if s.reallocations, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sortie_reallocations_total",
		Help: "Reallocations committed per disruption type",
	}, []string{"event_type"})); err != nil {
		return nil, err
	}
	if s.churn, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sortie_reallocation_churn_percent",
		Help:    "Churn rate of committed reallocations",
		Buckets: []float64{0, 5, 10, 20, 30, 50, 75, 100},
	}, []string{"event_type"})); err != nil {
		return nil, err
	}
	if s.changes, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sortie_reallocation_slot_changes_total",
		Help: "Added, removed and modified slots across reallocations",
	}, []string{"event_type"})); err != nil {
		return nil, err
	}
	if s.weather, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sortie_weather_lookups_total",
		Help: "Weather lookups by resulting confidence",
	}, []string{"icao", "confidence"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRoster counts the version and sets the week coverage gauge.
func (s *PromSink) RecordRoster(ev coremetrics.RosterEvent) error {
	s.rosters.WithLabelValues(ev.BaseICAO).Inc()
	s.coverage.WithLabelValues(ev.WeekStart).Set(ev.Coverage.Rate)
	return nil
}

// RecordReallocation observes churn and change counts.
func (s *PromSink) RecordReallocation(ev coremetrics.ReallocationEvent) error {
	et := string(ev.EventType)
	s.reallocations.WithLabelValues(et).Inc()
	s.churn.WithLabelValues(et).Observe(ev.ChurnRate)
	s.changes.WithLabelValues(et).Add(float64(ev.TotalChanges))
	return nil
}

// RecordWeather counts a weather lookup.
func (s *PromSink) RecordWeather(ev coremetrics.WeatherEvent) error {
	s.weather.WithLabelValues(ev.ICAO, string(ev.Confidence)).Inc()
	return nil
}
