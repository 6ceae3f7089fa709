package model

import "time"

// Confidence describes where a weather report came from.
type Confidence string

const (
	ConfidenceLive    Confidence = "live"
	ConfidenceCached  Confidence = "cached"
	ConfidenceUnknown Confidence = "unknown"
)

// WeatherReport is a parsed observation for an airfield. A nil field means
// the value is absent; a nil ceiling means unlimited.
type WeatherReport struct {
	ICAO         string     `json:"icao"`
	CeilingFt    *int       `json:"ceiling_ft"`
	VisibilitySM *float64   `json:"visibility_sm"`
	WindKt       *int       `json:"wind_kt"`
	CrosswindKt  *int       `json:"crosswind_kt"`
	Raw          string     `json:"raw_metar"`
	FetchedAt    time.Time  `json:"fetched_at"`
	Confidence   Confidence `json:"confidence"`
}

// Summary returns the roster-facing snapshot of the report.
func (w WeatherReport) Summary() *WeatherSummary {
	return &WeatherSummary{
		ICAO:         w.ICAO,
		CeilingFt:    w.CeilingFt,
		VisibilitySM: w.VisibilitySM,
		WindKt:       w.WindKt,
		CrosswindKt:  w.CrosswindKt,
		Confidence:   w.Confidence,
		FetchedAt:    w.FetchedAt.UTC().Format(time.RFC3339),
	}
}

// Int returns a pointer to v. It keeps report literals short.
func Int(v int) *int { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
