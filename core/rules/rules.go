// Package rules holds the fixed reason codes and rule citations attached to
// roster slots. Citations reference chunks of the school's policy documents
// in the form "rules:<doc_id>#chunk<n>". The table is fixed.
package rules

// Reason codes attached to slots, in the order they are emitted.
const (
	InstructorCurrencyOK   = "INSTRUCTOR_CURRENCY_OK"
	AircraftAvailable      = "AIRCRAFT_AVAILABLE"
	NoAircraftAvailable    = "NO_AIRCRAFT_AVAILABLE"
	SimFallback            = "SIM_FALLBACK"
	SimNoWeatherRequired   = "SIM_NO_WEATHER_REQUIRED"
	WeatherUnavailable     = "WEATHER_UNAVAILABLE"
	WxAboveMinima          = "WX_ABOVE_MINIMA"
	WxBelowCeilingMinima   = "WX_BELOW_CEILING_MINIMA"
	WxBelowVisMinima       = "WX_BELOW_VIS_MINIMA"
	WxWindExceeded         = "WX_WIND_EXCEEDED"
	WxCrosswindExceeded    = "WX_CROSSWIND_EXCEEDED"
	ConvertedToSim         = "CONVERTED_TO_SIM"
	NoSimAvailable         = "NO_SIM_AVAILABLE"
	disruptionReasonSuffix = "_DISRUPTION"
)

// DisruptionReason is the generic reason code for a slot flagged by a
// disruption of the given type, e.g. "AIRCRAFT_UNSERVICEABLE_DISRUPTION".
func DisruptionReason(eventType string) string {
	return eventType + disruptionReasonSuffix
}

// Category is a rule family with exactly one citation.
type Category int

const (
	CatInstructorCurrency Category = iota
	CatAircraftAvailability
	CatSimFallback
	CatCeiling
	CatVisibility
	CatWind
	CatSolo
	CatSimOK
	CatWeatherUnavailable
	CatDisruption
)

var citations = map[Category]string{
	CatInstructorCurrency:   "rules:doc_dispatch#chunk2",
	CatAircraftAvailability: "rules:doc_dispatch#chunk3",
	CatSimFallback:          "rules:doc_dispatch#chunk4",
	CatDisruption:           "rules:doc_dispatch#chunk5",
	CatCeiling:              "rules:doc_weather#chunk4",
	CatVisibility:           "rules:doc_weather#chunk5",
	CatWind:                 "rules:doc_weather#chunk6",
	CatSolo:                 "rules:doc_weather#chunk7",
	CatSimOK:                "rules:doc_weather#chunk8",
	CatWeatherUnavailable:   "rules:doc_weather#chunk9",
}

// Cite returns the citations of the given categories in order.
func Cite(cats ...Category) []string {
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		if ref, ok := citations[c]; ok {
			out = append(out, ref)
		}
	}
	return out
}

// Citation returns the citation of a single category.
func Citation(c Category) string { return citations[c] }
