package reallocation

import (
	"errors"
	"fmt"

	"github.com/kilianp07/sortie/core/dispatch"
	"github.com/kilianp07/sortie/core/logger"
	"github.com/kilianp07/sortie/core/model"
	"github.com/kilianp07/sortie/core/rules"
)

var (
	// ErrUnknownEventType rejects events outside model.EventTypes.
	ErrUnknownEventType = errors.New("unknown disruption event type")
	// ErrEntityRequired is returned when an entity event names no entity.
	ErrEntityRequired = errors.New("entity_id is required for this event type")
	// ErrWeatherRequired is returned when a weather update carries no report.
	ErrWeatherRequired = errors.New("weather report is required for WEATHER_UPDATE")
)

// SimUsagePolicy controls how the simulator counter starts when a weather
// update re-dispatches flights.
type SimUsagePolicy string

const (
	// SimUsageSeeded counts the simulator sessions already in the roster
	// before re-dispatching, so conversions never exceed daily caps.
	SimUsageSeeded SimUsagePolicy = "seeded"
	// SimUsageFresh starts from an empty counter and ignores existing
	// simulator sessions.
	SimUsageFresh SimUsagePolicy = "fresh"
)

// ParseSimUsagePolicy accepts "seeded", "fresh" or "" (seeded).
func ParseSimUsagePolicy(s string) (SimUsagePolicy, error) {
	switch SimUsagePolicy(s) {
	case "", SimUsageSeeded:
		return SimUsageSeeded, nil
	case SimUsageFresh:
		return SimUsageFresh, nil
	}
	return "", fmt.Errorf("unknown sim usage policy %q", s)
}

// Request is the input of one reallocation.
type Request struct {
	Roster  model.Roster
	Event   model.DisruptionEvent
	Catalog model.Catalog
	// Weather is required for WEATHER_UPDATE and ignored otherwise.
	Weather *model.WeatherReport
}

// Result bundles the replanned roster with its diff against the input.
type Result struct {
	NewRoster     model.Roster       `json:"new_roster"`
	Diff          Diff               `json:"diff"`
	AffectedSlots []model.RosterSlot `json:"affected_slots"`
	ChurnRate     float64            `json:"churn_rate"`
	EventType     model.EventType    `json:"event_type"`
	CorrelationID string             `json:"correlation_id"`
}

// Engine replans rosters after disruptions. Weather updates re-dispatch the
// affected flights; entity events only flag slots for manual review.
type Engine struct {
	log    logger.Logger
	policy SimUsagePolicy
}

// NewEngine returns an engine using policy for weather replanning.
func NewEngine(l logger.Logger, policy SimUsagePolicy) *Engine {
	if policy == "" {
		policy = SimUsageSeeded
	}
	return &Engine{log: logger.OrNop(l), policy: policy}
}

// Reallocate applies req.Event to req.Roster. The input roster is not
// modified.
func (e *Engine) Reallocate(req Request) (Result, error) {
	ev := req.Event.WithCorrelationID()
	affected, err := AffectedSlots(req.Roster, ev)
	if err != nil {
		return Result{}, err
	}

	var next model.Roster
	switch ev.EventType {
	case model.EventWeatherUpdate:
		if req.Weather == nil {
			return Result{}, ErrWeatherRequired
		}
		next = e.redispatch(req.Roster, ev, req.Catalog, *req.Weather)
	default:
		next = flag(req.Roster, ev)
	}

	diff := ComputeDiff(req.Roster, next)
	res := Result{
		NewRoster:     next,
		Diff:          diff,
		AffectedSlots: affected,
		ChurnRate:     ChurnRate(diff, req.Roster.SlotCount()),
		EventType:     ev.EventType,
		CorrelationID: ev.CorrelationID,
	}
	e.log.Infof("reallocation: %s %s affected=%d changes=%d churn=%.1f%% correlation_id=%s",
		ev.EventType, ev.EntityID, len(affected), diff.TotalChanges, res.ChurnRate, ev.CorrelationID)
	return res, nil
}

func (e *Engine) redispatch(r model.Roster, ev model.DisruptionEvent, cat model.Catalog, wx model.WeatherReport) model.Roster {
	out := r.Clone()
	students := cat.StudentIndex()
	usage := dispatch.NewSimUsage()
	if e.policy == SimUsageSeeded {
		for _, s := range out.Slots() {
			usage.RecordSlot(s)
		}
	}
	for i := range out.Days {
		for j, slot := range out.Days[i].Slots {
			if !inWindow(slot, ev) || !matches(slot, ev) {
				continue
			}
			res := dispatch.Check(slot, students[slot.StudentID], wx, cat.Simulators, usage)
			usage.RecordSlot(res)
			dispatch.Observe(res)
			out.Days[i].Slots[j] = res
		}
	}
	out.Weather = wx.Summary()
	return out
}

func flag(r model.Roster, ev model.DisruptionEvent) model.Roster {
	out := r.Clone()
	reason := rules.DisruptionReason(string(ev.EventType))
	for i := range out.Days {
		for j, slot := range out.Days[i].Slots {
			if !inWindow(slot, ev) || !matches(slot, ev) {
				continue
			}
			slot.DispatchDecision = model.DecisionNeedsReview
			slot.Reasons = []string{reason}
			slot.Citations = rules.Cite(rules.CatDisruption)
			out.Days[i].Slots[j] = slot
		}
	}
	return out
}
