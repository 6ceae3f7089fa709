package scheduler

import (
	"strings"

	"github.com/kilianp07/sortie/core/model"
)

// PickSortieType maps a student's stage and solo eligibility to a sortie type.
func PickSortieType(s model.Student) model.SortieType {
	switch {
	case s.SoloEligible && strings.HasPrefix(s.Stage, "PPL-4"):
		return model.SortieSolo
	case s.Stage == "PPL-3" || s.Stage == "PPL-4":
		return model.SortieNav
	case s.Stage == "PPL-2":
		return model.SortieCircuits
	default:
		return model.SortieCircuits
	}
}

// InstructorCanTeach reports whether the instructor holds the rating.
func InstructorCanTeach(i model.Instructor, t model.SortieType) bool {
	return i.HasRating(t)
}

// IsMaintenance reports whether the aircraft is out of service on day, either
// by status or by a maintenance sentinel in that day's windows.
func IsMaintenance(a model.Aircraft, day string) bool {
	switch model.AircraftStatus(strings.ToUpper(string(a.Status))) {
	case model.StatusMaintenance, model.StatusGrounded:
		return true
	}
	return windowsFor(a.AvailabilityWindows, day).HasMaintenance()
}
