package events

import (
	"time"

	"github.com/kilianp07/sortie/core/metrics"
	"github.com/kilianp07/sortie/core/model"
)

// Kind tells generations and reallocations apart.
type Kind string

const (
	KindGenerated   Kind = "generated"
	KindReallocated Kind = "reallocated"
)

// RosterEvent is published after a roster version is committed.
type RosterEvent struct {
	Kind          Kind             `json:"kind"`
	WeekStart     string           `json:"week_start"`
	Version       int              `json:"version"`
	BaseICAO      string           `json:"base_icao"`
	Weather       model.Confidence `json:"weather_confidence"`
	Coverage      metrics.Coverage `json:"coverage"`
	CorrelationID string           `json:"correlation_id,omitempty"`
	EventType     model.EventType  `json:"event_type,omitempty"`
	AffectedSlots int              `json:"affected_slots"`
	TotalChanges  int              `json:"total_changes"`
	ChurnRate     float64          `json:"churn_rate"`
	// ChangedSlots lists the ids of added, removed and modified slots.
	ChangedSlots []string  `json:"changed_slots,omitempty"`
	Time         time.Time `json:"time"`
}

// Topic returns the MQTT topic suffix for the event.
func (e RosterEvent) Topic() string {
	return "roster/" + e.WeekStart + "/" + string(e.Kind)
}
