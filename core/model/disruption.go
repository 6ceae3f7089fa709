package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of disruption.
type EventType string

const (
	EventWeatherUpdate         EventType = "WEATHER_UPDATE"
	EventAircraftUnserviceable EventType = "AIRCRAFT_UNSERVICEABLE"
	EventInstructorUnavailable EventType = "INSTRUCTOR_UNAVAILABLE"
	EventStudentUnavailable    EventType = "STUDENT_UNAVAILABLE"
)

// EventTypes lists every supported disruption type.
var EventTypes = []EventType{
	EventWeatherUpdate,
	EventAircraftUnserviceable,
	EventInstructorUnavailable,
	EventStudentUnavailable,
}

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	for _, k := range EventTypes {
		if k == t {
			return true
		}
	}
	return false
}

// NeedsEntity reports whether the event must name the unavailable entity.
func (t EventType) NeedsEntity() bool {
	return t != EventWeatherUpdate
}

// ParseEventType converts a case-insensitive name to an EventType.
func ParseEventType(s string) (EventType, error) {
	t := EventType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown event type %q", s)
	}
	return t, nil
}

// DisruptionEvent is an external occurrence invalidating part of a roster.
type DisruptionEvent struct {
	EventType     EventType      `json:"event_type" yaml:"event_type"`
	EntityID      string         `json:"entity_id,omitempty" yaml:"entity_id,omitempty"`
	FromTime      *time.Time     `json:"from_time,omitempty" yaml:"from_time,omitempty"`
	ToTime        *time.Time     `json:"to_time,omitempty" yaml:"to_time,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	CorrelationID string         `json:"correlation_id" yaml:"correlation_id,omitempty"`
}

// WithCorrelationID returns a copy carrying a generated correlation id when
// none was supplied.
func (e DisruptionEvent) WithCorrelationID() DisruptionEvent {
	if e.CorrelationID == "" {
		e.CorrelationID = uuid.NewString()
	}
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	return e
}
