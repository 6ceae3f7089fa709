package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/sortie/core/model"
	"github.com/kilianp07/sortie/core/rules"
)

func flightSlot(sortie model.SortieType) model.RosterSlot {
	return model.RosterSlot{
		SlotID:           "D06-SLOT_AM1",
		Date:             "2025-01-06",
		Start:            "08:00",
		End:              "10:00",
		Activity:         model.ActivityFlight,
		SortieType:       sortie,
		StudentID:        "S1",
		InstructorID:     "I1",
		ResourceID:       "VT-A",
		DispatchDecision: model.DecisionGo,
		Reasons:          []string{rules.InstructorCurrencyOK, rules.AircraftAvailable},
		Citations:        rules.Cite(rules.CatInstructorCurrency, rules.CatAircraftAvailability),
	}
}

func report(ceiling int, vis float64, wind, xwind int) model.WeatherReport {
	return model.WeatherReport{
		ICAO:         "VOBG",
		CeilingFt:    model.Int(ceiling),
		VisibilitySM: model.Float(vis),
		WindKt:       model.Int(wind),
		CrosswindKt:  model.Int(xwind),
		Confidence:   model.ConfidenceLive,
	}
}

var ppl1 = model.Student{ID: "S1", Stage: "PPL-1"}

func TestCheckGoodWeatherIsGo(t *testing.T) {
	got := Check(flightSlot(model.SortieCircuits), ppl1, report(5000, 10, 8, 2), nil, NewSimUsage())
	assert.Equal(t, model.DecisionGo, got.DispatchDecision)
	assert.Equal(t, []string{rules.WxAboveMinima}, got.Reasons)
	assert.Equal(t, []string{"rules:doc_weather#chunk4", "rules:doc_weather#chunk5"}, got.Citations)
	assert.Equal(t, model.ActivityFlight, got.Activity)
}

func TestCheckLowCeilingWithoutSimIsNoGo(t *testing.T) {
	wx := model.WeatherReport{CeilingFt: model.Int(800), Confidence: model.ConfidenceLive}
	sims := []model.Simulator{{ID: "SIM1", MaxSessionsPerDay: 0}}

	got := Check(flightSlot(model.SortieNav), model.Student{Stage: "PPL-3"}, wx, sims, NewSimUsage())
	assert.Equal(t, model.DecisionNoGo, got.DispatchDecision)
	assert.Equal(t, []string{rules.WxBelowCeilingMinima, rules.NoSimAvailable}, got.Reasons)
	assert.Equal(t, model.ActivityFlight, got.Activity)
	assert.Equal(t, "VT-A", got.ResourceID)
}

func TestCheckLowCeilingConvertsToSim(t *testing.T) {
	wx := model.WeatherReport{CeilingFt: model.Int(800), Confidence: model.ConfidenceLive}
	sims := []model.Simulator{
		{ID: "SIM-FULL", MaxSessionsPerDay: 1},
		{ID: "SIM-FREE", MaxSessionsPerDay: 2},
	}
	usage := NewSimUsage()
	usage.Record("SIM-FULL", "2025-01-06")

	in := flightSlot(model.SortieCircuits)
	got := Check(in, ppl1, wx, sims, usage)
	assert.Equal(t, model.DecisionNoGo, got.DispatchDecision)
	assert.Equal(t, model.ActivitySim, got.Activity)
	assert.Equal(t, model.SortieSimProcedures, got.SortieType)
	assert.Equal(t, "SIM-FREE", got.ResourceID)
	assert.Equal(t, []string{rules.WxBelowCeilingMinima, rules.ConvertedToSim}, got.Reasons)
	assert.Contains(t, got.Citations, "rules:doc_weather#chunk8")

	// The engine neither mutates its input nor counts usage itself.
	assert.Equal(t, flightSlot(model.SortieCircuits), in)
	assert.Equal(t, 0, usage.Used("SIM-FREE", "2025-01-06"))
}

func TestCheckSimSlotNeedsNoWeather(t *testing.T) {
	slot := flightSlot(model.SortieSimProcedures)
	slot.Activity = model.ActivitySim
	got := Check(slot, ppl1, model.WeatherReport{Confidence: model.ConfidenceUnknown}, nil, nil)
	assert.Equal(t, model.DecisionGo, got.DispatchDecision)
	assert.Equal(t, []string{rules.SimNoWeatherRequired}, got.Reasons)
	assert.Equal(t, []string{"rules:doc_weather#chunk8"}, got.Citations)
}

func TestCheckUnknownWeatherAlwaysNeedsReview(t *testing.T) {
	for _, wx := range []model.WeatherReport{
		{Confidence: model.ConfidenceUnknown},
		func() model.WeatherReport { r := report(9000, 10, 0, 0); r.Confidence = model.ConfidenceUnknown; return r }(),
		func() model.WeatherReport { r := report(100, 0.5, 40, 30); r.Confidence = model.ConfidenceUnknown; return r }(),
	} {
		got := Check(flightSlot(model.SortieCircuits), ppl1, wx, nil, nil)
		assert.Equal(t, model.DecisionNeedsReview, got.DispatchDecision)
		assert.Equal(t, []string{rules.WeatherUnavailable}, got.Reasons)
		assert.Equal(t, []string{"rules:doc_weather#chunk9"}, got.Citations)
	}
}

func TestCheckAbsentFieldsNeverViolate(t *testing.T) {
	wx := model.WeatherReport{Confidence: model.ConfidenceCached}
	got := Check(flightSlot(model.SortieSolo), model.Student{Stage: "PPL-4"}, wx, nil, nil)
	assert.Equal(t, model.DecisionGo, got.DispatchDecision)
}

func TestCheckMonotonicAtOrAboveMinima(t *testing.T) {
	cases := []struct {
		stage  string
		sortie model.SortieType
	}{
		{"PPL-1", model.SortieCircuits},
		{"PPL-2", model.SortieCircuits},
		{"PPL-3", model.SortieNav},
		{"PPL-4", model.SortieNav},
		{"PPL-4", model.SortieSolo},
		{"UNKNOWN", model.SortieCircuits},
	}
	for _, c := range cases {
		m := MinimaFor(c.sortie, c.stage)
		for _, bump := range []int{0, 1, 1000} {
			wx := report(m.CeilingFt+bump, m.VisibilitySM+float64(bump), max(m.MaxWindKt-bump, 0), max(m.MaxCrosswind-bump, 0))
			got := Check(flightSlot(c.sortie), model.Student{Stage: c.stage}, wx, nil, nil)
			assert.NotEqual(t, model.DecisionNoGo, got.DispatchDecision, "%s %s bump %d", c.stage, c.sortie, bump)
		}
	}
}

func TestViolationsOrderAndCodes(t *testing.T) {
	got := Violations(report(1000, 2, 30, 20), MinimaFor(model.SortieCircuits, "PPL-1"))
	assert.Equal(t, []string{
		rules.WxBelowCeilingMinima,
		rules.WxBelowVisMinima,
		rules.WxWindExceeded,
		rules.WxCrosswindExceeded,
	}, got)
}

func TestWindViolationCitesWindRule(t *testing.T) {
	got := Check(flightSlot(model.SortieSolo), model.Student{Stage: "PPL-4"}, report(5000, 10, 25, 10), nil, nil)
	assert.Equal(t, model.DecisionNoGo, got.DispatchDecision)
	assert.Equal(t, []string{rules.WxWindExceeded, rules.WxCrosswindExceeded, rules.NoSimAvailable}, got.Reasons)
	assert.Equal(t, rules.Cite(rules.CatCeiling, rules.CatVisibility, rules.CatWind, rules.CatSolo), got.Citations)
}

func TestMinimaForStagePrefix(t *testing.T) {
	assert.Equal(t, SoloMinima, MinimaFor(model.SortieSolo, "PPL-1"))
	assert.Equal(t, 1500, MinimaFor(model.SortieNav, "PPL-3B").CeilingFt)
	assert.Equal(t, MinimaFor(model.SortieCircuits, "PPL-1"), MinimaFor(model.SortieCircuits, "CPL"))
	assert.Equal(t, MinimaFor(model.SortieCircuits, "PPL-1"), MinimaFor(model.SortieCircuits, ""))
}

func TestApplyCountsSimUsageAcrossRoster(t *testing.T) {
	ResetMetrics(nil)
	t.Cleanup(func() { ResetMetrics(nil) })

	a := flightSlot(model.SortieCircuits)
	b := flightSlot(model.SortieCircuits)
	b.SlotID, b.Start, b.End, b.StudentID = "D06-SLOT_AM2", "10:30", "12:30", "S2"
	roster := model.Roster{
		WeekStart: "2025-01-06",
		Days:      []model.RosterDay{{Date: "2025-01-06", Slots: []model.RosterSlot{a, b}}},
	}
	students := map[string]model.Student{"S1": ppl1, "S2": {ID: "S2", Stage: "PPL-2"}}
	wx := model.WeatherReport{ICAO: "VOBG", CeilingFt: model.Int(800), Confidence: model.ConfidenceLive}
	sims := []model.Simulator{{ID: "SIM1", MaxSessionsPerDay: 1}}

	out := Apply(roster, students, wx, sims)
	require.Len(t, out.Days[0].Slots, 2)
	assert.Equal(t, model.ActivitySim, out.Days[0].Slots[0].Activity)
	assert.Equal(t, model.ActivityFlight, out.Days[0].Slots[1].Activity)
	assert.Contains(t, out.Days[0].Slots[1].Reasons, rules.NoSimAvailable)
	require.NotNil(t, out.Weather)
	assert.Equal(t, "VOBG", out.Weather.ICAO)

	// Input roster is untouched.
	assert.Equal(t, model.ActivityFlight, roster.Days[0].Slots[0].Activity)
	assert.Nil(t, roster.Weather)
}
