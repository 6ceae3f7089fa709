package dispatch

import (
	"github.com/kilianp07/sortie/core/model"
	"github.com/kilianp07/sortie/core/rules"
)

// Violations compares the present fields of wx against m. Absent fields never
// violate. Codes are returned in ceiling, visibility, wind, crosswind order.
func Violations(wx model.WeatherReport, m Minima) []string {
	var out []string
	if wx.CeilingFt != nil && *wx.CeilingFt < m.CeilingFt {
		out = append(out, rules.WxBelowCeilingMinima)
	}
	if wx.VisibilitySM != nil && *wx.VisibilitySM < m.VisibilitySM {
		out = append(out, rules.WxBelowVisMinima)
	}
	if wx.WindKt != nil && *wx.WindKt > m.MaxWindKt {
		out = append(out, rules.WxWindExceeded)
	}
	if wx.CrosswindKt != nil && *wx.CrosswindKt > m.MaxCrosswind {
		out = append(out, rules.WxCrosswindExceeded)
	}
	return out
}

// Check returns the dispatched copy of slot. The input slot is left untouched
// and usage is only read.
func Check(slot model.RosterSlot, student model.Student, wx model.WeatherReport, sims []model.Simulator, usage UsageReader) model.RosterSlot {
	out := slot.Clone()

	if out.Activity == model.ActivitySim {
		out.DispatchDecision = model.DecisionGo
		out.Reasons = []string{rules.SimNoWeatherRequired}
		out.Citations = rules.Cite(rules.CatSimOK)
		return out
	}

	if wx.Confidence == model.ConfidenceUnknown {
		out.DispatchDecision = model.DecisionNeedsReview
		out.Reasons = []string{rules.WeatherUnavailable}
		out.Citations = rules.Cite(rules.CatWeatherUnavailable)
		return out
	}

	minima := MinimaFor(out.SortieType, student.Stage)
	violations := Violations(wx, minima)
	cats := weatherCategories(out.SortieType, violations)

	if len(violations) == 0 {
		out.DispatchDecision = model.DecisionGo
		out.Reasons = []string{rules.WxAboveMinima}
		out.Citations = rules.Cite(cats...)
		return out
	}

	out.DispatchDecision = model.DecisionNoGo
	if sim, ok := freeSimulator(sims, out.Date, usage); ok {
		out.Activity = model.ActivitySim
		out.SortieType = model.SortieSimProcedures
		out.ResourceID = sim.ID
		out.Reasons = append(violations, rules.ConvertedToSim)
		out.Citations = rules.Cite(append(cats, rules.CatSimOK)...)
		return out
	}
	out.Reasons = append(violations, rules.NoSimAvailable)
	out.Citations = rules.Cite(cats...)
	return out
}

func weatherCategories(sortie model.SortieType, violations []string) []rules.Category {
	cats := []rules.Category{rules.CatCeiling, rules.CatVisibility}
	for _, v := range violations {
		if v == rules.WxWindExceeded || v == rules.WxCrosswindExceeded {
			cats = append(cats, rules.CatWind)
			break
		}
	}
	if sortie == model.SortieSolo {
		cats = append(cats, rules.CatSolo)
	}
	return cats
}

func freeSimulator(sims []model.Simulator, date string, usage UsageReader) (model.Simulator, bool) {
	for _, s := range sims {
		used := 0
		if usage != nil {
			used = usage.Used(s.ID, date)
		}
		if used < s.MaxSessionsPerDay {
			return s, true
		}
	}
	return model.Simulator{}, false
}
