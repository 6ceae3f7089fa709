package scenarios

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/sortie/core/catalog"
	"github.com/kilianp07/sortie/core/model"
	"github.com/kilianp07/sortie/core/scheduler"
	"github.com/kilianp07/sortie/core/weather"
)

// CatalogDef points at a catalog directory, relative to the scenario file,
// or lists the entities inline using the JSON field names.
type CatalogDef struct {
	Dir         string `yaml:"dir,omitempty"`
	Students    []any  `yaml:"students,omitempty"`
	Instructors []any  `yaml:"instructors,omitempty"`
	Aircraft    []any  `yaml:"aircraft,omitempty"`
	Simulators  []any  `yaml:"simulators,omitempty"`
	TimeSlots   []any  `yaml:"time_slots,omitempty"`
}

// WeatherDef names a mock scenario or spells out a report. Absent fields
// stay absent.
type WeatherDef struct {
	Scenario     string   `yaml:"scenario,omitempty"`
	CeilingFt    *int     `yaml:"ceiling_ft,omitempty"`
	VisibilitySM *float64 `yaml:"visibility_sm,omitempty"`
	WindKt       *int     `yaml:"wind_kt,omitempty"`
	CrosswindKt  *int     `yaml:"crosswind_kt,omitempty"`
	Confidence   string   `yaml:"confidence,omitempty"`
}

// DisruptionDef is applied to the dispatched roster. A WEATHER_UPDATE
// without weather reuses the scenario weather.
type DisruptionDef struct {
	EventType string      `yaml:"event_type"`
	EntityID  string      `yaml:"entity_id,omitempty"`
	FromTime  string      `yaml:"from_time,omitempty"`
	ToTime    string      `yaml:"to_time,omitempty"`
	Weather   *WeatherDef `yaml:"weather,omitempty"`
}

// Expected lists the assertions of a scenario. Nil fields are not checked.
type Expected struct {
	Decisions     map[model.Decision]int `yaml:"decisions,omitempty"`
	Activities    map[model.Activity]int `yaml:"activities,omitempty"`
	Reasons       []string               `yaml:"reasons,omitempty"`
	AbsentReasons []string               `yaml:"absent_reasons,omitempty"`
	Unassigned    *int                   `yaml:"unassigned,omitempty"`
	AffectedSlots *int                   `yaml:"affected_slots,omitempty"`
	TotalChanges  *int                   `yaml:"total_changes,omitempty"`
	ChurnRate     *float64               `yaml:"churn_rate,omitempty"`
}

type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	WeekStart   string         `yaml:"week_start"`
	BaseICAO    string         `yaml:"base_icao,omitempty"`
	Catalog     CatalogDef     `yaml:"catalog"`
	Weather     WeatherDef     `yaml:"weather"`
	Disruption  *DisruptionDef `yaml:"disruption,omitempty"`
	Expected    Expected       `yaml:"expected"`

	dir string
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = filepath.Base(path)
	}
	if sc.BaseICAO == "" {
		sc.BaseICAO = "VOBG"
	}
	sc.dir = filepath.Dir(path)
	return &sc, nil
}

// LoadCatalog resolves the scenario catalog.
func (sc *Scenario) LoadCatalog() (model.Catalog, error) {
	c := sc.Catalog
	if c.Dir != "" {
		dir := c.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(sc.dir, dir)
		}
		return catalog.Load(dir)
	}
	docs := make(map[string][]byte, len(catalog.Files))
	for name, list := range map[string][]any{
		catalog.StudentsFile:    c.Students,
		catalog.InstructorsFile: c.Instructors,
		catalog.AircraftFile:    c.Aircraft,
		catalog.SimulatorsFile:  c.Simulators,
		catalog.TimeSlotsFile:   c.TimeSlots,
	} {
		if list == nil {
			list = []any{}
		}
		b, err := json.Marshal(list)
		if err != nil {
			return model.Catalog{}, fmt.Errorf("%s: %w", name, err)
		}
		docs[name] = b
	}
	return catalog.Decode(docs)
}

// Report builds the weather report for icao.
func (w WeatherDef) Report(icao string, now time.Time) (model.WeatherReport, error) {
	if w.Scenario != "" {
		return weather.Scenario(w.Scenario, icao, now)
	}
	conf := model.Confidence(w.Confidence)
	if conf == "" {
		conf = model.ConfidenceLive
	}
	return model.WeatherReport{
		ICAO:         icao,
		CeilingFt:    w.CeilingFt,
		VisibilitySM: w.VisibilitySM,
		WindKt:       w.WindKt,
		CrosswindKt:  w.CrosswindKt,
		Raw:          "SCENARIO",
		FetchedAt:    now,
		Confidence:   conf,
	}, nil
}

// Event converts the definition to a disruption event.
func (d DisruptionDef) Event() (model.DisruptionEvent, error) {
	t, err := model.ParseEventType(d.EventType)
	if err != nil {
		return model.DisruptionEvent{}, err
	}
	ev := model.DisruptionEvent{EventType: t, EntityID: d.EntityID}
	if ev.FromTime, err = parseTime(d.FromTime); err != nil {
		return model.DisruptionEvent{}, err
	}
	if ev.ToTime, err = parseTime(d.ToTime); err != nil {
		return model.DisruptionEvent{}, err
	}
	return ev, nil
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{scheduler.DateLayout, "2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognised time %q", s)
}
