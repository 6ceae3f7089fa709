package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/sortie/core/metrics"
	"github.com/kilianp07/sortie/infra/logger"
)

// InfluxSink writes roster events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// InfluxConfig locates the bucket events are written to.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRoster writes a roster_committed point.
func (s *InfluxSink) RecordRoster(ev coremetrics.RosterEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("roster_committed").
		AddTag("week_start", ev.WeekStart).
		AddTag("base_icao", ev.BaseICAO).
		AddTag("weather_confidence", string(ev.Weather)).
		AddField("version", ev.Version).
		AddField("total_slots", ev.Coverage.TotalSlots).
		AddField("go_slots", ev.Coverage.GoSlots).
		AddField("no_go_slots", ev.Coverage.NoGoSlots).
		AddField("needs_review", ev.Coverage.NeedsReview).
		AddField("coverage_rate", round3(ev.Coverage.Rate)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordReallocation writes a reallocation point.
func (s *InfluxSink) RecordReallocation(ev coremetrics.ReallocationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("reallocation").
		AddTag("week_start", ev.WeekStart).
		AddTag("event_type", string(ev.EventType)).
		AddTag("correlation_id", ev.CorrelationID).
		AddField("version", ev.Version).
		AddField("churn_rate", round3(ev.ChurnRate)).
		AddField("total_changes", ev.TotalChanges).
		AddField("affected_slots", ev.AffectedSlots).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordWeather writes a weather_lookup point.
func (s *InfluxSink) RecordWeather(ev coremetrics.WeatherEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("weather_lookup").
		AddTag("icao", ev.ICAO).
		AddTag("confidence", string(ev.Confidence)).
		AddField("count", 1).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
