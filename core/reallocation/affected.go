package reallocation

import (
	"fmt"
	"time"

	"github.com/kilianp07/sortie/core/model"
	"github.com/kilianp07/sortie/core/scheduler"
)

// inWindow reports whether the slot date lies within the event's inclusive
// date bounds. A missing bound is open.
func inWindow(slot model.RosterSlot, ev model.DisruptionEvent) bool {
	if ev.FromTime == nil && ev.ToTime == nil {
		return true
	}
	d, err := time.Parse(scheduler.DateLayout, slot.Date)
	if err != nil {
		return false
	}
	if ev.FromTime != nil && d.Before(dateOf(*ev.FromTime)) {
		return false
	}
	if ev.ToTime != nil && d.After(dateOf(*ev.ToTime)) {
		return false
	}
	return true
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func matches(slot model.RosterSlot, ev model.DisruptionEvent) bool {
	switch ev.EventType {
	case model.EventWeatherUpdate:
		return slot.Activity == model.ActivityFlight
	case model.EventAircraftUnserviceable:
		return slot.Activity == model.ActivityFlight && slot.ResourceID == ev.EntityID
	case model.EventInstructorUnavailable:
		return slot.InstructorID == ev.EntityID
	case model.EventStudentUnavailable:
		return slot.StudentID == ev.EntityID
	}
	return false
}

// AffectedSlots returns the slots of r touched by ev, in roster order.
func AffectedSlots(r model.Roster, ev model.DisruptionEvent) ([]model.RosterSlot, error) {
	if err := validate(ev); err != nil {
		return nil, err
	}
	out := []model.RosterSlot{}
	for _, s := range r.Slots() {
		if inWindow(s, ev) && matches(s, ev) {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

func validate(ev model.DisruptionEvent) error {
	if !ev.EventType.Valid() {
		return fmt.Errorf("%q: %w", ev.EventType, ErrUnknownEventType)
	}
	if ev.EventType.NeedsEntity() && ev.EntityID == "" {
		return fmt.Errorf("%s: %w", ev.EventType, ErrEntityRequired)
	}
	if ev.FromTime != nil && ev.ToTime != nil && ev.ToTime.Before(*ev.FromTime) {
		return fmt.Errorf("disruption window ends before it starts")
	}
	return nil
}
