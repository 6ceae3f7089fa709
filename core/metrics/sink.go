package metrics

import (
	"time"

	"github.com/kilianp07/sortie/core/model"
)

// RosterEvent is emitted when a dispatched roster is committed.
type RosterEvent struct {
	WeekStart string
	Version   int
	BaseICAO  string
	Coverage  Coverage
	Weather   model.Confidence
	Time      time.Time
}

// ReallocationEvent is emitted when a disruption produced a new version.
type ReallocationEvent struct {
	WeekStart     string
	Version       int
	EventType     model.EventType
	CorrelationID string
	ChurnRate     float64
	TotalChanges  int
	AffectedSlots int
	Time          time.Time
}

// WeatherEvent records the outcome of one weather lookup.
type WeatherEvent struct {
	ICAO       string
	Confidence model.Confidence
	Time       time.Time
}

// MetricsSink records roster and reallocation events.
type MetricsSink interface {
	RecordRoster(ev RosterEvent) error
	RecordReallocation(ev ReallocationEvent) error
}

// WeatherRecorder is implemented by sinks able to record weather lookups.
type WeatherRecorder interface {
	RecordWeather(ev WeatherEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRoster(RosterEvent) error             { return nil }
func (NopSink) RecordReallocation(ReallocationEvent) error { return nil }
func (NopSink) RecordWeather(WeatherEvent) error           { return nil }
