package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/sortie/core/history"
	"github.com/kilianp07/sortie/core/metrics"
	"github.com/kilianp07/sortie/core/model"
	"github.com/kilianp07/sortie/core/reallocation"
)

func sampleRoster() model.Roster {
	return model.Roster{
		WeekStart: "2025-01-06",
		Days: []model.RosterDay{{Date: "2025-01-06", Slots: []model.RosterSlot{{
			SlotID:           "D06-SLOT_AM1",
			Date:             "2025-01-06",
			Start:            "08:00",
			End:              "10:00",
			Activity:         model.ActivitySim,
			SortieType:       model.SortieSimProcedures,
			StudentID:        "S1",
			InstructorID:     "I1",
			ResourceID:       "SIM1",
			DispatchDecision: model.DecisionNoGo,
			Reasons:          []string{"WX_BELOW_CEILING_MINIMA", "CONVERTED_TO_SIM"},
			Citations:        []string{"rules:doc_weather#chunk4", "rules:doc_weather#chunk8"},
		}}}},
	}
}

func readCSV(t *testing.T, b *bytes.Buffer) [][]string {
	t.Helper()
	rows, err := csv.NewReader(b).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteRosterCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRosterCSV(&buf, sampleRoster()))
	rows := readCSV(t, &buf)
	require.Len(t, rows, 2)
	assert.Equal(t, rosterHeader, rows[0])
	assert.Equal(t, []string{
		"D06-SLOT_AM1", "2025-01-06", "08:00", "10:00", "SIM", "SIM_PROCEDURES", "S1", "I1", "SIM1", "NO_GO",
		"WX_BELOW_CEILING_MINIMA;CONVERTED_TO_SIM", "rules:doc_weather#chunk4;rules:doc_weather#chunk8",
	}, rows[1])
}

func TestWriteDiffCSV(t *testing.T) {
	d := reallocation.Diff{
		Added:   []model.RosterSlot{{SlotID: "D07-SLOT_AM1"}},
		Removed: []model.RosterSlot{{SlotID: "D08-SLOT_PM1"}},
		Modified: []reallocation.Modification{{SlotID: "D06-SLOT_AM1", Changes: map[string]reallocation.FieldChange{
			"resource_id": {Old: "VT-A", New: "SIM1"},
			"activity":    {Old: "FLIGHT", New: "SIM"},
		}}},
		TotalChanges: 3,
	}
	var buf bytes.Buffer
	require.NoError(t, WriteDiffCSV(&buf, d))
	assert.Equal(t, [][]string{
		{"change", "slot_id", "field", "old", "new"},
		{"added", "D07-SLOT_AM1", "", "", ""},
		{"removed", "D08-SLOT_PM1", "", "", ""},
		{"modified", "D06-SLOT_AM1", "activity", "FLIGHT", "SIM"},
		{"modified", "D06-SLOT_AM1", "resource_id", "VT-A", "SIM1"},
	}, readCSV(t, &buf))
}

func TestWriteVersionsCSV(t *testing.T) {
	created := time.Date(2025, 1, 6, 7, 30, 0, 0, time.UTC)
	vs := []history.Version{
		{Version: 1, WeekStart: "2025-01-06", CreatedAt: created, Coverage: metrics.Coverage{Rate: 100}},
		{
			Version: 2, WeekStart: "2025-01-06", CreatedAt: created.Add(time.Hour),
			EventType: model.EventWeatherUpdate, CorrelationID: "corr-1", ChurnRate: 60,
			Diff: &reallocation.Diff{TotalChanges: 3}, Coverage: metrics.Coverage{Rate: 40},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteVersionsCSV(&buf, vs))
	rows := readCSV(t, &buf)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"2025-01-06", "1", "2025-01-06T07:30:00Z", "", "", "0.00", "0", "100.00"}, rows[1])
	assert.Equal(t, []string{"2025-01-06", "2", "2025-01-06T08:30:00Z", "WEATHER_UPDATE", "corr-1", "60.00", "3", "40.00"}, rows[2])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleRoster()))
	var back model.Roster
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, "D06-SLOT_AM1", back.Days[0].Slots[0].SlotID)
	assert.Contains(t, buf.String(), "\n  \"week_start\"")
}

func TestCheckFormat(t *testing.T) {
	assert.NoError(t, CheckFormat(FormatJSON))
	assert.NoError(t, CheckFormat(FormatCSV))
	assert.Error(t, CheckFormat("xml"))
}
