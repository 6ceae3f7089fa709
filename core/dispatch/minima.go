package dispatch

import (
	"strings"

	"github.com/kilianp07/sortie/core/model"
)

// Minima are the weather limits a sortie must clear to fly.
type Minima struct {
	CeilingFt    int     `json:"ceiling_ft"`
	VisibilitySM float64 `json:"visibility_sm"`
	MaxWindKt    int     `json:"max_wind_kt"`
	MaxCrosswind int     `json:"max_crosswind_kt"`
}

type stageMinima struct {
	prefix string
	minima Minima
}

// SoloMinima applies to every SOLO sortie regardless of stage.
var SoloMinima = Minima{CeilingFt: 3000, VisibilitySM: 10, MaxWindKt: 10, MaxCrosswind: 8}

// stageTable is matched by prefix in order. The first entry is the strictest
// and doubles as the default.
var stageTable = []stageMinima{
	{"PPL-1", Minima{CeilingFt: 2500, VisibilitySM: 8, MaxWindKt: 10, MaxCrosswind: 8}},
	{"PPL-2", Minima{CeilingFt: 2500, VisibilitySM: 8, MaxWindKt: 10, MaxCrosswind: 8}},
	{"PPL-3", Minima{CeilingFt: 1500, VisibilitySM: 5, MaxWindKt: 15, MaxCrosswind: 12}},
	{"PPL-4", Minima{CeilingFt: 1500, VisibilitySM: 5, MaxWindKt: 15, MaxCrosswind: 12}},
}

// MinimaFor selects the limits for a sortie type and student stage.
func MinimaFor(sortie model.SortieType, stage string) Minima {
	if sortie == model.SortieSolo {
		return SoloMinima
	}
	for _, e := range stageTable {
		if strings.HasPrefix(stage, e.prefix) {
			return e.minima
		}
	}
	return stageTable[0].minima
}
