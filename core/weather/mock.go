package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/sortie/core/model"
)

// ErrUnknownScenario is returned for a scenario name not in Scenarios.
var ErrUnknownScenario = errors.New("unknown weather scenario")

// Named mock scenarios.
const (
	ScenarioGood        = "good"
	ScenarioLowCeiling  = "low_ceiling"
	ScenarioLowVis      = "low_vis"
	ScenarioHighWind    = "high_wind"
	ScenarioUnavailable = "unavailable"
)

type scenario struct {
	ceiling int
	vis     float64
	wind    int
	xwind   int
	raw     string
}

var scenarios = map[string]scenario{
	ScenarioGood:       {5000, 10.0, 8, 2, "010800Z 27008KT 9999 FEW050 25/14 Q1013"},
	ScenarioLowCeiling: {800, 8.0, 6, 2, "010800Z 27006KT 8000 OVC008 18/16 Q1008"},
	ScenarioLowVis:     {3000, 2.0, 5, 1, "010800Z 27005KT 3200 BKN030 20/18 Q1010"},
	ScenarioHighWind:   {4000, 8.0, 25, 10, "010800Z 27025KT 9999 FEW040 22/12 Q1015"},
}

// Scenarios lists the scenario names in a stable order.
func Scenarios() []string {
	return []string{ScenarioGood, ScenarioLowCeiling, ScenarioLowVis, ScenarioHighWind, ScenarioUnavailable}
}

// IsScenario reports whether name is a known scenario.
func IsScenario(name string) bool {
	_, ok := scenarios[name]
	return ok || name == ScenarioUnavailable
}

// Scenario builds the named report for icao.
func Scenario(name, icao string, now time.Time) (model.WeatherReport, error) {
	icao = strings.ToUpper(icao)
	if name == ScenarioUnavailable {
		return Fallback(icao, now), nil
	}
	sc, ok := scenarios[name]
	if !ok {
		return model.WeatherReport{}, fmt.Errorf("%q: %w", name, ErrUnknownScenario)
	}
	return model.WeatherReport{
		ICAO:         icao,
		CeilingFt:    model.Int(sc.ceiling),
		VisibilitySM: model.Float(sc.vis),
		WindKt:       model.Int(sc.wind),
		CrosswindKt:  model.Int(sc.xwind),
		Raw:          icao + " " + sc.raw,
		FetchedAt:    now,
		Confidence:   model.ConfidenceLive,
	}, nil
}

// Mock serves a single fixed scenario.
type Mock struct {
	scenario string
	now      func() time.Time
}

// NewMock validates the scenario name.
func NewMock(name string) (*Mock, error) {
	if !IsScenario(name) {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownScenario)
	}
	return &Mock{scenario: name, now: time.Now}, nil
}

// Fetch implements Provider.
func (m *Mock) Fetch(_ context.Context, icao string) model.WeatherReport {
	r, _ := Scenario(m.scenario, icao, m.now())
	return r
}
