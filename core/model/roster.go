package model

// Activity is the kind of training performed in a slot.
type Activity string

const (
	ActivityFlight Activity = "FLIGHT"
	ActivitySim    Activity = "SIM"
)

// SortieType is the training-activity category of a slot.
type SortieType string

const (
	SortieCircuits      SortieType = "CIRCUITS"
	SortieNav           SortieType = "NAV"
	SortieSolo          SortieType = "SOLO"
	SortieCheckPrep     SortieType = "CHK_PREP"
	SortieSimProcedures SortieType = "SIM_PROCEDURES"
)

// Decision is the dispatch outcome of a slot.
type Decision string

const (
	DecisionGo          Decision = "GO"
	DecisionNoGo        Decision = "NO_GO"
	DecisionNeedsReview Decision = "NEEDS_REVIEW"
)

// RosterSlot is one assignment of a student, an instructor and a resource to
// a dated time window.
type RosterSlot struct {
	SlotID           string     `json:"slot_id" yaml:"slot_id"`
	Date             string     `json:"date" yaml:"date"`
	Start            string     `json:"start" yaml:"start"`
	End              string     `json:"end" yaml:"end"`
	Activity         Activity   `json:"activity" yaml:"activity"`
	SortieType       SortieType `json:"sortie_type" yaml:"sortie_type"`
	StudentID        string     `json:"student_id" yaml:"student_id"`
	InstructorID     string     `json:"instructor_id" yaml:"instructor_id"`
	ResourceID       string     `json:"resource_id" yaml:"resource_id"`
	DispatchDecision Decision   `json:"dispatch_decision" yaml:"dispatch_decision"`
	Reasons          []string   `json:"reasons" yaml:"reasons"`
	Citations        []string   `json:"citations" yaml:"citations"`
}

// Clone returns a deep copy of the slot.
func (s RosterSlot) Clone() RosterSlot {
	s.Reasons = append([]string(nil), s.Reasons...)
	s.Citations = append([]string(nil), s.Citations...)
	return s
}

// RosterDay holds the slots of a single date.
type RosterDay struct {
	Date  string       `json:"date" yaml:"date"`
	Slots []RosterSlot `json:"slots" yaml:"slots"`
}

// Unassigned reports an entity that received no assignment for the week.
type Unassigned struct {
	Entity string `json:"entity" yaml:"entity"`
	ID     string `json:"id" yaml:"id"`
	Reason string `json:"reason" yaml:"reason"`
}

// WeatherSummary is the weather snapshot a roster was dispatched against.
type WeatherSummary struct {
	ICAO         string     `json:"icao"`
	CeilingFt    *int       `json:"ceiling_ft"`
	VisibilitySM *float64   `json:"visibility_sm"`
	WindKt       *int       `json:"wind_kt"`
	CrosswindKt  *int       `json:"crosswind_kt"`
	Confidence   Confidence `json:"confidence"`
	FetchedAt    string     `json:"fetched_at"`
}

// Roster is a week of slot assignments.
type Roster struct {
	WeekStart  string          `json:"week_start" yaml:"week_start"`
	BaseICAO   string          `json:"base_icao" yaml:"base_icao"`
	Days       []RosterDay     `json:"roster" yaml:"roster"`
	Unassigned []Unassigned    `json:"unassigned" yaml:"unassigned"`
	Weather    *WeatherSummary `json:"weather,omitempty" yaml:"-"`
}

// Clone returns a deep copy of the roster.
func (r Roster) Clone() Roster {
	out := r
	out.Days = make([]RosterDay, len(r.Days))
	for i, d := range r.Days {
		slots := make([]RosterSlot, len(d.Slots))
		for j, s := range d.Slots {
			slots[j] = s.Clone()
		}
		out.Days[i] = RosterDay{Date: d.Date, Slots: slots}
	}
	out.Unassigned = append([]Unassigned(nil), r.Unassigned...)
	if r.Weather != nil {
		w := *r.Weather
		out.Weather = &w
	}
	return out
}

// Slots returns every slot of the roster in day order.
func (r Roster) Slots() []RosterSlot {
	var out []RosterSlot
	for _, d := range r.Days {
		out = append(out, d.Slots...)
	}
	return out
}

// SlotCount returns the number of assigned slots.
func (r Roster) SlotCount() int {
	n := 0
	for _, d := range r.Days {
		n += len(d.Slots)
	}
	return n
}
