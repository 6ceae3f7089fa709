package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/sortie/core/logger"
	"github.com/kilianp07/sortie/core/model"
	"github.com/kilianp07/sortie/core/rules"
)

// ErrNotMonday is returned when a roster is requested for a week that does
// not start on a Monday.
var ErrNotMonday = errors.New("week start must be a Monday")

// UnassignedReason is reported for students that received no slot.
const UnassignedReason = "No available slot matched constraints"

// Generator builds rosters with greedy first-fit assignment.
type Generator struct {
	logger logger.Logger
}

// NewGenerator returns a generator logging through l, which may be nil.
func NewGenerator(l logger.Logger) *Generator {
	return &Generator{logger: logger.OrNop(l)}
}

type timeSlot struct {
	model.TimeSlot
	window Window
}

// Generate assigns the catalog to the Monday-Friday week starting at
// weekStart. Slots that cannot be filled are left empty; that is not an error.
func (g *Generator) Generate(weekStart time.Time, baseICAO string, cat model.Catalog) (model.Roster, error) {
	if weekStart.Weekday() != time.Monday {
		return model.Roster{}, fmt.Errorf("%s: %w", weekStart.Format(DateLayout), ErrNotMonday)
	}

	slots := make([]timeSlot, 0, len(cat.TimeSlots))
	for _, ts := range cat.TimeSlots {
		w, err := ParseWindow(ts.StartTime, ts.EndTime)
		if err != nil {
			g.logger.Warnf("scheduler: skipping time slot %s: %v", ts.ID, err)
			continue
		}
		slots = append(slots, timeSlot{TimeSlot: ts, window: w})
	}

	students := append([]model.Student(nil), cat.Students...)
	sort.SliceStable(students, func(i, j int) bool {
		return students[i].Priority < students[j].Priority
	})

	state := NewBookingState()
	assigned := make(map[string]int, len(students))
	roster := model.Roster{
		WeekStart:  weekStart.Format(DateLayout),
		BaseICAO:   baseICAO,
		Unassigned: []model.Unassigned{},
	}

	for _, day := range WeekDates(weekStart) {
		date := day.Format(DateLayout)
		dayName := DayName(day)
		rd := model.RosterDay{Date: date, Slots: []model.RosterSlot{}}

		for _, ts := range slots {
			for _, st := range students {
				slot, ok := g.assign(state, cat, st, day, dayName, ts)
				if !ok {
					continue
				}
				assigned[st.ID]++
				rd.Slots = append(rd.Slots, slot)
				break
			}
		}
		g.logger.Debugw("scheduler: day planned", map[string]any{
			"date":  date,
			"slots": len(rd.Slots),
		})
		roster.Days = append(roster.Days, rd)
	}

	for _, st := range students {
		if assigned[st.ID] == 0 {
			roster.Unassigned = append(roster.Unassigned, model.Unassigned{
				Entity: "student",
				ID:     st.ID,
				Reason: UnassignedReason,
			})
		}
	}
	g.logger.Infof("scheduler: week %s generated with %d slots, %d unassigned students",
		roster.WeekStart, roster.SlotCount(), len(roster.Unassigned))
	return roster, nil
}

func (g *Generator) assign(state *BookingState, cat model.Catalog, st model.Student, day time.Time, dayName string, ts timeSlot) (model.RosterSlot, bool) {
	date := day.Format(DateLayout)
	w := ts.window
	if !state.StudentWeeklyOK(st.ID, st.RequiredSortiesPerWeek) ||
		!IsAvailable(st.Availability, dayName, w) ||
		!state.IsFree(st.ID, date, w) {
		return model.RosterSlot{}, false
	}

	base := model.RosterSlot{
		SlotID:           fmt.Sprintf("D%02d-%s", day.Day(), ts.ID),
		Date:             date,
		Start:            ts.StartTime,
		End:              ts.EndTime,
		StudentID:        st.ID,
		DispatchDecision: model.DecisionGo,
	}

	sortie := PickSortieType(st)
	if inst, ok := firstInstructor(state, cat.Instructors, date, dayName, w, func(i model.Instructor) bool {
		return InstructorCanTeach(i, sortie)
	}); ok {
		if ac, ok := firstAircraft(state, cat.Aircraft, date, dayName, w); ok {
			g.book(state, st.ID, inst, ac.ID, date, w)
			state.LogAircraftSortie(ac.ID, date)
			base.Activity = model.ActivityFlight
			base.SortieType = sortie
			base.InstructorID = inst.ID
			base.ResourceID = ac.ID
			base.Reasons = []string{rules.InstructorCurrencyOK, rules.AircraftAvailable}
			base.Citations = rules.Cite(rules.CatInstructorCurrency, rules.CatAircraftAvailability)
			return base, true
		}
	}

	inst, ok := firstInstructor(state, cat.Instructors, date, dayName, w, func(i model.Instructor) bool {
		return i.SimInstructor
	})
	if !ok {
		return model.RosterSlot{}, false
	}
	sim, ok := firstSimulator(state, cat.Simulators, date, dayName, w)
	if !ok {
		return model.RosterSlot{}, false
	}
	g.book(state, st.ID, inst, sim.ID, date, w)
	state.LogSimSession(sim.ID, date)
	base.Activity = model.ActivitySim
	base.SortieType = model.SortieSimProcedures
	base.InstructorID = inst.ID
	base.ResourceID = sim.ID
	base.Reasons = []string{rules.NoAircraftAvailable, rules.SimFallback}
	base.Citations = rules.Cite(rules.CatSimFallback)
	return base, true
}

func (g *Generator) book(state *BookingState, studentID string, inst model.Instructor, resourceID, date string, w Window) {
	state.Book(studentID, date, w)
	state.Book(inst.ID, date, w)
	state.Book(resourceID, date, w)
	state.LogInstructorDuty(inst.ID, date, w)
	state.LogStudentSortie(studentID)
}

func firstInstructor(state *BookingState, instructors []model.Instructor, date, day string, w Window, eligible func(model.Instructor) bool) (model.Instructor, bool) {
	for _, inst := range instructors {
		if eligible(inst) &&
			IsAvailable(inst.Availability, day, w) &&
			state.IsFree(inst.ID, date, w) &&
			state.InstructorDutyOK(inst.ID, date, w, inst.MaxDutyHoursPerDay) {
			return inst, true
		}
	}
	return model.Instructor{}, false
}

func firstAircraft(state *BookingState, aircraft []model.Aircraft, date, day string, w Window) (model.Aircraft, bool) {
	for _, ac := range aircraft {
		if !IsMaintenance(ac, day) &&
			IsAvailable(ac.AvailabilityWindows, day, w) &&
			state.IsFree(ac.ID, date, w) &&
			state.AircraftSortiesOK(ac.ID, date) {
			return ac, true
		}
	}
	return model.Aircraft{}, false
}

func firstSimulator(state *BookingState, sims []model.Simulator, date, day string, w Window) (model.Simulator, bool) {
	for _, sim := range sims {
		if IsAvailable(sim.Availability, day, w) &&
			state.IsFree(sim.ID, date, w) &&
			state.SimSessionsOK(sim.ID, date, sim.MaxSessionsPerDay) {
			return sim, true
		}
	}
	return model.Simulator{}, false
}
