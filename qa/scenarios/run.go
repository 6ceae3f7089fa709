package scenarios

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/kilianp07/sortie/core/dispatch"
	"github.com/kilianp07/sortie/core/logger"
	"github.com/kilianp07/sortie/core/model"
	"github.com/kilianp07/sortie/core/reallocation"
	"github.com/kilianp07/sortie/core/scheduler"
)

// Outcome is what a scenario produced.
type Outcome struct {
	Catalog model.Catalog
	// Generated is the roster before dispatch.
	Generated model.Roster
	// Final is the dispatched roster, replanned when the scenario has a
	// disruption.
	Final        model.Roster
	Reallocation *reallocation.Result
}

// Run generates, dispatches and optionally reallocates the scenario roster.
func Run(sc *Scenario, l logger.Logger) (Outcome, error) {
	var out Outcome
	cat, err := sc.LoadCatalog()
	if err != nil {
		return out, err
	}
	out.Catalog = cat

	week, err := time.Parse(scheduler.DateLayout, sc.WeekStart)
	if err != nil {
		return out, fmt.Errorf("week_start: %w", err)
	}
	now := week.Add(6 * time.Hour)
	if out.Generated, err = scheduler.NewGenerator(l).Generate(week, sc.BaseICAO, cat); err != nil {
		return out, err
	}
	wx, err := sc.Weather.Report(sc.BaseICAO, now)
	if err != nil {
		return out, err
	}
	out.Final = dispatch.Apply(out.Generated, cat.StudentIndex(), wx, cat.Simulators)

	if sc.Disruption == nil {
		return out, nil
	}
	ev, err := sc.Disruption.Event()
	if err != nil {
		return out, err
	}
	evWx := wx
	if sc.Disruption.Weather != nil {
		if evWx, err = sc.Disruption.Weather.Report(sc.BaseICAO, now); err != nil {
			return out, err
		}
	}
	res, err := reallocation.NewEngine(l, reallocation.SimUsageSeeded).Reallocate(reallocation.Request{
		Roster:  out.Final,
		Event:   ev,
		Catalog: cat,
		Weather: &evWx,
	})
	if err != nil {
		return out, err
	}
	out.Reallocation = &res
	out.Final = res.NewRoster
	return out, nil
}

// Check compares an outcome against the expectations and returns one message
// per mismatch.
func Check(out Outcome, exp Expected) []string {
	var failures []string
	fail := func(format string, args ...any) {
		failures = append(failures, fmt.Sprintf(format, args...))
	}

	decisions := map[model.Decision]int{}
	activities := map[model.Activity]int{}
	reasons := map[string]bool{}
	for _, s := range out.Final.Slots() {
		decisions[s.DispatchDecision]++
		activities[s.Activity]++
		for _, r := range s.Reasons {
			reasons[r] = true
		}
	}
	for d, want := range exp.Decisions {
		if got := decisions[d]; got != want {
			fail("decision %s: got %d, want %d", d, got, want)
		}
	}
	for a, want := range exp.Activities {
		if got := activities[a]; got != want {
			fail("activity %s: got %d, want %d", a, got, want)
		}
	}
	for _, r := range exp.Reasons {
		if !reasons[r] {
			fail("reason %s not present", r)
		}
	}
	for _, r := range exp.AbsentReasons {
		if reasons[r] {
			fail("reason %s present", r)
		}
	}
	if exp.Unassigned != nil && len(out.Final.Unassigned) != *exp.Unassigned {
		fail("unassigned: got %d, want %d", len(out.Final.Unassigned), *exp.Unassigned)
	}

	if exp.AffectedSlots == nil && exp.TotalChanges == nil && exp.ChurnRate == nil {
		return failures
	}
	if out.Reallocation == nil {
		fail("reallocation expectations without a disruption")
		return failures
	}
	res := out.Reallocation
	if exp.AffectedSlots != nil && len(res.AffectedSlots) != *exp.AffectedSlots {
		fail("affected slots: got %d, want %d", len(res.AffectedSlots), *exp.AffectedSlots)
	}
	if exp.TotalChanges != nil && res.Diff.TotalChanges != *exp.TotalChanges {
		fail("total changes: got %d, want %d", res.Diff.TotalChanges, *exp.TotalChanges)
	}
	if exp.ChurnRate != nil && math.Abs(res.ChurnRate-*exp.ChurnRate) > 1e-6 {
		fail("churn rate: got %.2f, want %.2f", res.ChurnRate, *exp.ChurnRate)
	}
	return failures
}

// Invariants replays a generated roster through a fresh booking ledger and
// reports double bookings and exceeded caps.
func Invariants(r model.Roster, cat model.Catalog) []string {
	var failures []string
	fail := func(format string, args ...any) {
		failures = append(failures, fmt.Sprintf(format, args...))
	}

	instructors := map[string]model.Instructor{}
	for _, i := range cat.Instructors {
		instructors[i.ID] = i
	}
	sims := map[string]model.Simulator{}
	for _, s := range cat.Simulators {
		sims[s.ID] = s
	}
	students := cat.StudentIndex()

	state := scheduler.NewBookingState()
	for _, s := range r.Slots() {
		w, err := scheduler.ParseWindow(s.Start, s.End)
		if err != nil {
			fail("%s: %v", s.SlotID, err)
			continue
		}
		for _, id := range []string{s.StudentID, s.InstructorID, s.ResourceID} {
			if !state.IsFree(id, s.Date, w) {
				fail("%s: %s double booked on %s", s.SlotID, id, s.Date)
			}
			state.Book(id, s.Date, w)
		}
		if inst, ok := instructors[s.InstructorID]; ok && !state.InstructorDutyOK(inst.ID, s.Date, w, inst.MaxDutyHoursPerDay) {
			fail("%s: instructor %s over duty on %s", s.SlotID, inst.ID, s.Date)
		}
		state.LogInstructorDuty(s.InstructorID, s.Date, w)
		if s.Activity == model.ActivityFlight {
			if !state.AircraftSortiesOK(s.ResourceID, s.Date) {
				fail("%s: aircraft %s over %d sorties on %s", s.SlotID, s.ResourceID, scheduler.MaxAircraftSortiesPerDay, s.Date)
			}
			state.LogAircraftSortie(s.ResourceID, s.Date)
		} else {
			if !state.SimSessionsOK(s.ResourceID, s.Date, sims[s.ResourceID].MaxSessionsPerDay) {
				fail("%s: simulator %s over its sessions on %s", s.SlotID, s.ResourceID, s.Date)
			}
			state.LogSimSession(s.ResourceID, s.Date)
		}
		if !state.StudentWeeklyOK(s.StudentID, students[s.StudentID].RequiredSortiesPerWeek) {
			fail("%s: student %s over weekly sorties", s.SlotID, s.StudentID)
		}
		state.LogStudentSortie(s.StudentID)
	}
	sort.Strings(failures)
	return failures
}
