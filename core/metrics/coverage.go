package metrics

import "github.com/kilianp07/sortie/core/model"

// Coverage counts dispatch outcomes of a roster. Rate is the GO share in
// percent, 0 for an empty roster.
type Coverage struct {
	TotalSlots  int     `json:"total_slots"`
	GoSlots     int     `json:"go_slots"`
	NoGoSlots   int     `json:"no_go_slots"`
	NeedsReview int     `json:"needs_review"`
	SimSlots    int     `json:"sim_slots"`
	Rate        float64 `json:"coverage_rate"`
}

// ComputeCoverage tallies the slots of r.
func ComputeCoverage(r model.Roster) Coverage {
	var c Coverage
	for _, s := range r.Slots() {
		c.TotalSlots++
		switch s.DispatchDecision {
		case model.DecisionGo:
			c.GoSlots++
		case model.DecisionNoGo:
			c.NoGoSlots++
		case model.DecisionNeedsReview:
			c.NeedsReview++
		}
		if s.Activity == model.ActivitySim {
			c.SimSlots++
		}
	}
	if c.TotalSlots > 0 {
		c.Rate = float64(c.GoSlots) / float64(c.TotalSlots) * 100
	}
	return c
}

// RequiredCoverage is the share of required weekly sorties that received a
// slot, in percent. Students without a requirement are ignored.
func RequiredCoverage(r model.Roster, students []model.Student) float64 {
	required := 0
	for _, s := range students {
		required += s.RequiredSortiesPerWeek
	}
	if required == 0 {
		return 0
	}
	perStudent := make(map[string]int)
	for _, s := range r.Slots() {
		perStudent[s.StudentID]++
	}
	scheduled := 0
	for _, s := range students {
		scheduled += min(perStudent[s.ID], s.RequiredSortiesPerWeek)
	}
	return float64(scheduled) / float64(required) * 100
}
