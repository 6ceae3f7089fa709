package metrics

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/sortie/core/model"
)

// ChurnSample is one committed reallocation.
type ChurnSample struct {
	EventType model.EventType
	ChurnRate float64
	CreatedAt time.Time
}

// Summary aggregates reallocations over a look-back period.
type Summary struct {
	PeriodDays          int                     `json:"period_days"`
	TotalReallocations  int                     `json:"total_reallocations"`
	AvgChurnRate        float64                 `json:"avg_churn_rate"`
	MaxChurnRate        float64                 `json:"max_churn_rate"`
	MinChurnRate        float64                 `json:"min_churn_rate"`
	StdDevChurnRate     float64                 `json:"stddev_churn_rate"`
	TotalDisruptions    int                     `json:"total_disruptions"`
	DisruptionTypes     map[model.EventType]int `json:"disruption_types"`
	ReallocationsPerDay float64                 `json:"reallocations_per_day"`
}

// Summarize aggregates the samples created within days before now.
func Summarize(samples []ChurnSample, days int, now time.Time) Summary {
	if days <= 0 {
		days = 7
	}
	out := Summary{PeriodDays: days, DisruptionTypes: map[model.EventType]int{}}
	cutoff := now.AddDate(0, 0, -days)

	var churn []float64
	for _, s := range samples {
		if s.CreatedAt.Before(cutoff) {
			continue
		}
		churn = append(churn, s.ChurnRate)
		out.DisruptionTypes[s.EventType]++
	}
	out.TotalReallocations = len(churn)
	out.TotalDisruptions = len(churn)
	if len(churn) == 0 {
		return out
	}
	out.AvgChurnRate = stat.Mean(churn, nil)
	out.MaxChurnRate = floats.Max(churn)
	out.MinChurnRate = floats.Min(churn)
	if len(churn) > 1 {
		out.StdDevChurnRate = stat.StdDev(churn, nil)
	}
	out.ReallocationsPerDay = float64(len(churn)) / float64(days)
	return out
}
