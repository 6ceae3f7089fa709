package weather

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/sortie/core/model"
)

// ErrEmptyReport is returned when there is no observation text to parse.
var ErrEmptyReport = errors.New("empty METAR")

const metersPerStatuteMile = 1609.34

var (
	clearSky   = map[string]bool{"SKC": true, "CLR": true, "CAVOK": true, "NSC": true}
	layerRe    = regexp.MustCompile(`^(BKN|OVC)(\d{3})`)
	smRe       = regexp.MustCompile(`^P?(\d+)(?:/(\d+))?SM$`)
	wholeRe    = regexp.MustCompile(`^\d$`)
	metersRe   = regexp.MustCompile(`^(\d{4})(NDV)?$`)
	windRe     = regexp.MustCompile(`^\d{3}(\d{2,3})(?:G\d{2,3})?KT$`)
	variableRe = regexp.MustCompile(`^VRB(\d{2,3})(?:G\d{2,3})?KT$`)
)

// Parse extracts the dispatch-relevant fields from a raw observation. The
// report is stamped with fetchedAt and marked live.
func Parse(icao, raw string, fetchedAt time.Time) (model.WeatherReport, error) {
	if strings.TrimSpace(raw) == "" {
		return model.WeatherReport{}, ErrEmptyReport
	}
	tokens := strings.Fields(strings.ToUpper(raw))
	wind, xwind := ParseWind(tokens)
	return model.WeatherReport{
		ICAO:         icao,
		CeilingFt:    ParseCeiling(tokens),
		VisibilitySM: ParseVisibility(tokens),
		WindKt:       wind,
		CrosswindKt:  xwind,
		Raw:          raw,
		FetchedAt:    fetchedAt,
		Confidence:   model.ConfidenceLive,
	}, nil
}

// ParseCeiling returns the lowest broken or overcast layer in feet, or nil
// when the sky is reported clear or no such layer exists.
func ParseCeiling(tokens []string) *int {
	lowest := -1
	for _, t := range tokens {
		if clearSky[t] {
			return nil
		}
		m := layerRe.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		h, _ := strconv.Atoi(m[2])
		if ft := h * 100; lowest < 0 || ft < lowest {
			lowest = ft
		}
	}
	if lowest < 0 {
		return nil
	}
	return &lowest
}

// ParseVisibility returns statute miles from an SM group (integer, fraction
// or mixed "1 1/2SM"), else from a four-digit metre group.
func ParseVisibility(tokens []string) *float64 {
	for i, t := range tokens {
		m := smRe.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		num, _ := strconv.ParseFloat(m[1], 64)
		v := num
		if m[2] != "" {
			den, _ := strconv.ParseFloat(m[2], 64)
			if den == 0 {
				continue
			}
			v = num / den
			if i > 0 && wholeRe.MatchString(tokens[i-1]) {
				whole, _ := strconv.ParseFloat(tokens[i-1], 64)
				v += whole
			}
		}
		return &v
	}
	for _, t := range tokens {
		m := metersRe.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		meters, _ := strconv.Atoi(m[1])
		v := 10.0
		if meters != 9999 {
			v = math.Round(float64(meters)/metersPerStatuteMile*10) / 10
		}
		return &v
	}
	return nil
}

// ParseWind returns the sustained wind and an approximate crosswind. For a
// fixed direction the crosswind is 30% of the wind; for variable wind the
// whole speed is assumed to be crosswind.
func ParseWind(tokens []string) (wind, crosswind *int) {
	for _, t := range tokens {
		if m := windRe.FindStringSubmatch(t); m != nil {
			w, _ := strconv.Atoi(m[1])
			x := int(float64(w) * 0.3)
			return &w, &x
		}
	}
	for _, t := range tokens {
		if m := variableRe.FindStringSubmatch(t); m != nil {
			w, _ := strconv.Atoi(m[1])
			x := w
			return &w, &x
		}
	}
	return nil, nil
}
