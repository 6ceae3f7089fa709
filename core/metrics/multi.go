package metrics

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRoster forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordRoster(ev RosterEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordRoster(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordReallocation forwards reallocation events.
func (m *MultiSink) RecordReallocation(ev ReallocationEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordReallocation(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordWeather forwards weather events to sinks implementing WeatherRecorder.
func (m *MultiSink) RecordWeather(ev WeatherEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(WeatherRecorder); ok {
			if err := rec.RecordWeather(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
