package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kilianp07/sortie/core/model"
)

// File names expected in a catalog directory.
const (
	StudentsFile    = "students.json"
	InstructorsFile = "instructors.json"
	AircraftFile    = "aircraft.json"
	SimulatorsFile  = "simulators.json"
	TimeSlotsFile   = "time_slots.json"
)

// Files lists every document a catalog is built from.
var Files = []string{StudentsFile, InstructorsFile, AircraftFile, SimulatorsFile, TimeSlotsFile}

// Defaults applied to fields absent from the JSON files.
const (
	DefaultPriority        = 5
	DefaultRequiredSorties = 3
	DefaultMaxDutyHours    = 8.0
	DefaultMaxSimSessions  = 4
	DefaultAircraftStatus  = model.StatusAvailable
)

// Load reads and validates the catalog stored in dir.
func Load(dir string) (model.Catalog, error) {
	docs := make(map[string][]byte, len(Files))
	for _, name := range Files {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return model.Catalog{}, fmt.Errorf("catalog: %w", err)
		}
		docs[name] = b
	}
	return Decode(docs)
}

// Decode builds and validates a catalog from JSON documents keyed by file
// name. Every name in Files must be present.
func Decode(docs map[string][]byte) (model.Catalog, error) {
	var (
		cat model.Catalog
		err error
	)
	if cat.Students, err = decodeList(docs, StudentsFile, func() model.Student {
		return model.Student{Priority: DefaultPriority, RequiredSortiesPerWeek: DefaultRequiredSorties}
	}); err != nil {
		return model.Catalog{}, err
	}
	if cat.Instructors, err = decodeList(docs, InstructorsFile, func() model.Instructor {
		return model.Instructor{MaxDutyHoursPerDay: DefaultMaxDutyHours}
	}); err != nil {
		return model.Catalog{}, err
	}
	if cat.Aircraft, err = decodeList(docs, AircraftFile, func() model.Aircraft {
		return model.Aircraft{Status: DefaultAircraftStatus}
	}); err != nil {
		return model.Catalog{}, err
	}
	if cat.Simulators, err = decodeList(docs, SimulatorsFile, func() model.Simulator {
		return model.Simulator{MaxSessionsPerDay: DefaultMaxSimSessions}
	}); err != nil {
		return model.Catalog{}, err
	}
	if cat.TimeSlots, err = decodeList(docs, TimeSlotsFile, func() model.TimeSlot {
		return model.TimeSlot{}
	}); err != nil {
		return model.Catalog{}, err
	}
	if err := NewValidator().Validate(cat); err != nil {
		return model.Catalog{}, err
	}
	return cat, nil
}

// decodeList decodes a JSON array, unmarshalling every element over a fresh
// default value so absent fields keep their defaults.
func decodeList[T any](docs map[string][]byte, name string, def func() T) ([]T, error) {
	b, ok := docs[name]
	if !ok {
		return nil, fmt.Errorf("catalog: %s is missing", name)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", name, err)
	}
	out := make([]T, 0, len(raw))
	for i, r := range raw {
		v := def()
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, fmt.Errorf("catalog: %s[%d]: %w", name, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
