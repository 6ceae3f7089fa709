package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MaintenanceSentinel marks a whole day as unavailable for an entity.
const MaintenanceSentinel = "MAINTENANCE"

// AircraftStatus is the serviceability state of an aircraft.
type AircraftStatus string

const (
	StatusAvailable   AircraftStatus = "AVAILABLE"
	StatusMaintenance AircraftStatus = "MAINTENANCE"
	StatusGrounded    AircraftStatus = "GROUNDED"
)

// Windows lists "HH:MM-HH:MM" availability windows for one weekday. In JSON it
// may also be the bare string "MAINTENANCE".
type Windows []string

// UnmarshalJSON accepts either a list of windows or a single string.
func (w *Windows) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*w = Windows{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("windows: expected string or list of strings: %w", err)
	}
	*w = Windows(many)
	return nil
}

// HasMaintenance reports whether any entry is the maintenance sentinel.
func (w Windows) HasMaintenance() bool {
	for _, s := range w {
		if strings.EqualFold(strings.TrimSpace(s), MaintenanceSentinel) {
			return true
		}
	}
	return false
}

// Availability maps a weekday name ("Mon", "Tue", ...) to its windows.
type Availability map[string]Windows

// Student is a trainee to be rostered.
type Student struct {
	ID                     string       `json:"id" yaml:"id" validate:"required"`
	Name                   string       `json:"name" yaml:"name"`
	Stage                  string       `json:"stage" yaml:"stage" validate:"required"`
	Priority               int          `json:"priority" yaml:"priority" validate:"gte=0"`
	SoloEligible           bool         `json:"solo_eligible" yaml:"solo_eligible"`
	RequiredSortiesPerWeek int          `json:"required_sorties_per_week" yaml:"required_sorties_per_week" validate:"gte=0"`
	Availability           Availability `json:"availability" yaml:"availability"`
}

// Instructor teaches flight sorties and, when SimInstructor is set, simulator sessions.
type Instructor struct {
	ID                 string            `json:"id" yaml:"id" validate:"required"`
	Name               string            `json:"name" yaml:"name"`
	Ratings            []string          `json:"ratings" yaml:"ratings"`
	Currency           map[string]string `json:"currency,omitempty" yaml:"currency,omitempty"`
	MaxDutyHoursPerDay float64           `json:"max_duty_hours_per_day" yaml:"max_duty_hours_per_day" validate:"gt=0"`
	SimInstructor      bool              `json:"sim_instructor" yaml:"sim_instructor"`
	Availability       Availability      `json:"availability" yaml:"availability"`
}

// HasRating reports whether the instructor is rated for the sortie type.
func (i Instructor) HasRating(t SortieType) bool {
	for _, r := range i.Ratings {
		if r == string(t) {
			return true
		}
	}
	return false
}

// Aircraft is a training airframe.
type Aircraft struct {
	ID                  string         `json:"id" yaml:"id" validate:"required"`
	Type                string         `json:"type" yaml:"type"`
	Status              AircraftStatus `json:"status" yaml:"status" validate:"omitempty,oneof=AVAILABLE MAINTENANCE GROUNDED"`
	AvailabilityWindows Availability   `json:"availability_windows" yaml:"availability_windows"`
	SimMapping          string         `json:"sim_mapping,omitempty" yaml:"sim_mapping,omitempty"`
}

// Simulator is a synthetic training device with a daily session cap.
type Simulator struct {
	ID                string       `json:"id" yaml:"id" validate:"required"`
	Type              string       `json:"type" yaml:"type"`
	MaxSessionsPerDay int          `json:"max_sessions_per_day" yaml:"max_sessions_per_day" validate:"gte=0"`
	Availability      Availability `json:"availability" yaml:"availability"`
}

// TimeSlot is a fixed daily training block.
type TimeSlot struct {
	ID        string `json:"id" yaml:"id" validate:"required"`
	StartTime string `json:"start_time" yaml:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time" yaml:"end_time" validate:"required,clock"`
	Label     string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Catalog bundles the reference collections. Slice order is significant: it
// is the tie-break order of the roster generator.
type Catalog struct {
	Students    []Student    `json:"students" yaml:"students" validate:"dive"`
	Instructors []Instructor `json:"instructors" yaml:"instructors" validate:"dive"`
	Aircraft    []Aircraft   `json:"aircraft" yaml:"aircraft" validate:"dive"`
	Simulators  []Simulator  `json:"simulators" yaml:"simulators" validate:"dive"`
	TimeSlots   []TimeSlot   `json:"time_slots" yaml:"time_slots" validate:"dive"`
}

// StudentIndex returns the students keyed by id.
func (c Catalog) StudentIndex() map[string]Student {
	idx := make(map[string]Student, len(c.Students))
	for _, s := range c.Students {
		idx[s.ID] = s
	}
	return idx
}
