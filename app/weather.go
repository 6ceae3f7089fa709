package app

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/kilianp07/sortie/core/model"
)

// Metadata keys read from WEATHER_UPDATE events.
const (
	MetaWeatherScenario = "weather_scenario"
	MetaWeather         = "weather"
)

// InlineRaw is the raw text of reports supplied in event metadata.
const InlineRaw = "INLINE"

// inlineWeather is the accepted shape of the "weather" metadata entry.
type inlineWeather struct {
	CeilingFt    *int     `mapstructure:"ceiling_ft"`
	VisibilitySM *float64 `mapstructure:"visibility_sm"`
	WindKt       *int     `mapstructure:"wind_kt"`
	CrosswindKt  *int     `mapstructure:"crosswind_kt"`
	Confidence   string   `mapstructure:"confidence"`
	Raw          string   `mapstructure:"raw_metar"`
}

// eventWeather picks the report a WEATHER_UPDATE is replanned against: an
// inline report, else a named mock scenario, else the configured source.
func (s *Service) eventWeather(ctx context.Context, meta map[string]any) (model.WeatherReport, error) {
	if raw, ok := meta[MetaWeather]; ok && raw != nil {
		return s.decodeInlineWeather(raw)
	}
	if raw, ok := meta[MetaWeatherScenario]; ok && raw != nil {
		name, ok := raw.(string)
		if !ok {
			return model.WeatherReport{}, fmt.Errorf("metadata %s must be a string, got %T", MetaWeatherScenario, raw)
		}
		return s.Weather(ctx, name)
	}
	return s.Weather(ctx, "")
}

func (s *Service) decodeInlineWeather(raw any) (model.WeatherReport, error) {
	var in inlineWeather
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &in,
	})
	if err != nil {
		return model.WeatherReport{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return model.WeatherReport{}, fmt.Errorf("metadata %s: %w", MetaWeather, err)
	}

	conf := model.Confidence(in.Confidence)
	switch conf {
	case "":
		conf = model.ConfidenceLive
	case model.ConfidenceLive, model.ConfidenceCached, model.ConfidenceUnknown:
	default:
		return model.WeatherReport{}, fmt.Errorf("metadata %s: unknown confidence %q", MetaWeather, in.Confidence)
	}
	if in.Raw == "" {
		in.Raw = InlineRaw
	}
	return model.WeatherReport{
		ICAO:         s.cfg.BaseICAO,
		CeilingFt:    in.CeilingFt,
		VisibilitySM: in.VisibilitySM,
		WindKt:       in.WindKt,
		CrosswindKt:  in.CrosswindKt,
		Raw:          in.Raw,
		FetchedAt:    s.now().UTC(),
		Confidence:   conf,
	}, nil
}
