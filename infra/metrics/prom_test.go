package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/sortie/core/events"
	"github.com/kilianp07/sortie/core/factory"
	coremetrics "github.com/kilianp07/sortie/core/metrics"
	"github.com/kilianp07/sortie/core/model"
	"github.com/kilianp07/sortie/internal/eventbus"
)

func TestPromSinkRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordRoster(coremetrics.RosterEvent{
		WeekStart: "2025-01-06", BaseICAO: "VOBG", Coverage: coremetrics.Coverage{Rate: 75},
	}))
	require.NoError(t, sink.RecordReallocation(coremetrics.ReallocationEvent{
		EventType: model.EventWeatherUpdate, ChurnRate: 25, TotalChanges: 3,
	}))
	require.NoError(t, sink.RecordWeather(coremetrics.WeatherEvent{ICAO: "VOBG", Confidence: model.ConfidenceCached}))

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.rosters.WithLabelValues("VOBG")))
	assert.Equal(t, 75.0, testutil.ToFloat64(sink.coverage.WithLabelValues("2025-01-06")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.reallocations.WithLabelValues("WEATHER_UPDATE")))
	assert.Equal(t, 3.0, testutil.ToFloat64(sink.changes.WithLabelValues("WEATHER_UPDATE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.weather.WithLabelValues("VOBG", "cached")))
	assert.Equal(t, 1, testutil.CollectAndCount(sink.churn))
}

func TestPromSinkReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	b, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, a.RecordRoster(coremetrics.RosterEvent{BaseICAO: "VOBG"}))
	require.NoError(t, b.RecordRoster(coremetrics.RosterEvent{BaseICAO: "VOBG"}))
	assert.Equal(t, 2.0, testutil.ToFloat64(b.rosters.WithLabelValues("VOBG")))
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	require.NoError(t, sink.RecordWeather(coremetrics.WeatherEvent{ICAO: "VOBG", Confidence: model.ConfidenceLive}))

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `sortie_weather_lookups_total{confidence="live",icao="VOBG"} 1`)
}

func TestEventCollectorDrainsOnClose(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	bus := eventbus.NewTyped[events.RosterEvent]()
	done := StartEventCollector(bus, sink)
	bus.Publish(events.RosterEvent{Kind: events.KindGenerated, WeekStart: "2025-01-06", BaseICAO: "VOBG", Version: 1})
	bus.Publish(events.RosterEvent{
		Kind: events.KindReallocated, WeekStart: "2025-01-06", BaseICAO: "VOBG", Version: 2,
		EventType: model.EventInstructorUnavailable, TotalChanges: 2, ChurnRate: 20,
	})
	bus.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop")
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.rosters.WithLabelValues("VOBG")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.reallocations.WithLabelValues("INSTRUCTOR_UNAVAILABLE")))
}

func TestNewMetricsSinkFromConfig(t *testing.T) {
	s, err := coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}})
	require.NoError(t, err)
	assert.IsType(t, coremetrics.NopSink{}, s)

	s, err = coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}})
	require.NoError(t, err)
	assert.IsType(t, &coremetrics.MultiSink{}, s)

	_, err = coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "statsd"}})
	assert.Error(t, err)
}
