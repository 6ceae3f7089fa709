package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/sortie/core/model"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cat, err := Load(filepath.Join("testdata", "basic"))
	require.NoError(t, err)

	require.Len(t, cat.Students, 2)
	assert.Equal(t, "S1", cat.Students[0].ID, "file order is kept")
	assert.Equal(t, DefaultRequiredSorties, cat.Students[0].RequiredSortiesPerWeek)
	assert.Equal(t, 2, cat.Students[1].RequiredSortiesPerWeek)

	require.Len(t, cat.Instructors, 1)
	assert.Equal(t, DefaultMaxDutyHours, cat.Instructors[0].MaxDutyHoursPerDay)

	require.Len(t, cat.Aircraft, 2)
	assert.Equal(t, model.StatusAvailable, cat.Aircraft[0].Status)
	assert.Equal(t, model.StatusGrounded, cat.Aircraft[1].Status)
	assert.True(t, cat.Aircraft[0].AvailabilityWindows["Tue"].HasMaintenance())

	require.Len(t, cat.Simulators, 1)
	assert.Equal(t, DefaultMaxSimSessions, cat.Simulators[0].MaxSessionsPerDay)
	assert.Len(t, cat.TimeSlots, 3)
}

func TestLoadMissingPriorityDefaults(t *testing.T) {
	dir := copyBasic(t)
	write(t, dir, StudentsFile, `[{"id": "S1", "stage": "PPL-2"}]`)
	cat, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultPriority, cat.Students[0].Priority)
}

func TestLoadRejectsInvalidCatalogs(t *testing.T) {
	cases := []struct {
		name string
		file string
		body string
	}{
		{"missing student id", StudentsFile, `[{"stage": "PPL-1"}]`},
		{"missing stage", StudentsFile, `[{"id": "S1"}]`},
		{"bad clock", TimeSlotsFile, `[{"id": "T1", "start_time": "8am", "end_time": "10:00"}]`},
		{"duplicate slot", TimeSlotsFile, `[{"id": "T1", "start_time": "08:00", "end_time": "10:00"}, {"id": "T1", "start_time": "11:00", "end_time": "12:00"}]`},
		{"unknown status", AircraftFile, `[{"id": "VT-A", "status": "PARKED"}]`},
		{"id shared with instructor", SimulatorsFile, `[{"id": "I1"}]`},
		{"zero duty", InstructorsFile, `[{"id": "I1", "max_duty_hours_per_day": 0}]`},
		{"not a list", StudentsFile, `{"id": "S1"}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			dir := copyBasic(t)
			write(t, dir, c.file, c.body)
			_, err := Load(dir)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := copyBasic(t)
	require.NoError(t, os.Remove(filepath.Join(dir, SimulatorsFile)))
	_, err := Load(dir)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHashTracksContent(t *testing.T) {
	a, err := Load(filepath.Join("testdata", "basic"))
	require.NoError(t, err)
	b, err := Load(filepath.Join("testdata", "basic"))
	require.NoError(t, err)

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
	assert.Len(t, ha, 64)

	b.Students[0].Priority = 9
	hc, err := Hash(b)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)
}

func copyBasic(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range []string{StudentsFile, InstructorsFile, AircraftFile, SimulatorsFile, TimeSlotsFile} {
		b, err := os.ReadFile(filepath.Join("testdata", "basic", f))
		require.NoError(t, err)
		write(t, dir, f, string(b))
	}
	return dir
}

func write(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestDecodeFromDocuments(t *testing.T) {
	docs := map[string][]byte{
		StudentsFile:    []byte(`[{"id":"S1","stage":"PPL-1"}]`),
		InstructorsFile: []byte(`[{"id":"I1","ratings":["CIRCUITS"]}]`),
		AircraftFile:    []byte(`[{"id":"VT-A"}]`),
		SimulatorsFile:  []byte(`[]`),
		TimeSlotsFile:   []byte(`[{"id":"AM1","start_time":"08:00","end_time":"10:00"}]`),
	}
	cat, err := Decode(docs)
	require.NoError(t, err)
	assert.Equal(t, DefaultPriority, cat.Students[0].Priority)
	assert.Equal(t, DefaultAircraftStatus, cat.Aircraft[0].Status)
	assert.Empty(t, cat.Simulators)

	delete(docs, TimeSlotsFile)
	_, err = Decode(docs)
	assert.ErrorContains(t, err, TimeSlotsFile)
}
