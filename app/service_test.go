package app

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/sortie/config"
	"github.com/kilianp07/sortie/core/catalog"
	"github.com/kilianp07/sortie/core/events"
	"github.com/kilianp07/sortie/core/history"
	coremetrics "github.com/kilianp07/sortie/core/metrics"
	"github.com/kilianp07/sortie/core/model"
	"github.com/kilianp07/sortie/core/monitoring"
	"github.com/kilianp07/sortie/core/reallocation"
	"github.com/kilianp07/sortie/core/rules"
	"github.com/kilianp07/sortie/core/scheduler"
	"github.com/kilianp07/sortie/core/weather"
	"github.com/kilianp07/sortie/infra/mqtt"
)

const week = "2025-01-06"

var now = time.Date(2025, 1, 6, 6, 0, 0, 0, time.UTC)

type recordingSink struct {
	mu            sync.Mutex
	rosters       []coremetrics.RosterEvent
	reallocations []coremetrics.ReallocationEvent
}

func (s *recordingSink) RecordRoster(ev coremetrics.RosterEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rosters = append(s.rosters, ev)
	return nil
}

func (s *recordingSink) RecordReallocation(ev coremetrics.ReallocationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reallocations = append(s.reallocations, ev)
	return nil
}

type fixture struct {
	svc   *Service
	sink  *recordingSink
	pub   *mqtt.MemoryPublisher
	mon   *monitoring.Recorder
	store history.Store
}

func newFixture(t *testing.T, mut func(*config.Config, *Deps)) *fixture {
	t.Helper()
	cat, err := catalog.Load("../data/catalog")
	require.NoError(t, err)
	f := &fixture{
		sink:  &recordingSink{},
		pub:   mqtt.NewMemoryPublisher(),
		mon:   &monitoring.Recorder{},
		store: history.NewMemoryStore(),
	}
	cfg := config.Default()
	deps := Deps{
		Catalog:   &cat,
		Store:     f.store,
		Sink:      f.sink,
		Publisher: f.pub,
		Monitor:   f.mon,
		Clock:     func() time.Time { return now },
	}
	if mut != nil {
		mut(cfg, &deps)
	}
	f.svc, err = New(cfg, deps)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.svc.Close() })
	return f
}

func TestGenerateRosterCommitsFirstVersion(t *testing.T) {
	f := newFixture(t, nil)
	v, err := f.svc.GenerateRoster(context.Background(), GenerateRequest{WeekStart: week})
	require.NoError(t, err)

	assert.Equal(t, 1, v.Version)
	assert.False(t, v.IsReallocation())
	assert.Equal(t, "VOBG", v.Roster.BaseICAO)
	require.NotNil(t, v.Roster.Weather)
	assert.Equal(t, model.ConfidenceLive, v.Roster.Weather.Confidence)
	assert.Equal(t, 5, v.Coverage.TotalSlots)
	assert.Equal(t, 5, v.Coverage.GoSlots)
	assert.Equal(t, 2, v.Coverage.SimSlots)
	assert.Empty(t, v.Roster.Unassigned)

	latest, err := f.store.Latest(context.Background(), week)
	require.NoError(t, err)
	assert.Equal(t, v.Version, latest.Version)
}

func TestGenerateRosterWithScenario(t *testing.T) {
	f := newFixture(t, nil)
	v, err := f.svc.GenerateRoster(context.Background(), GenerateRequest{WeekStart: week, WeatherScenario: weather.ScenarioLowCeiling})
	require.NoError(t, err)
	assert.Equal(t, 3, v.Coverage.NoGoSlots)
	assert.Equal(t, 5, v.Coverage.SimSlots)
	for _, s := range v.Roster.Slots() {
		if s.DispatchDecision == model.DecisionNoGo {
			assert.Contains(t, s.Reasons, rules.ConvertedToSim)
		}
	}

	_, err = f.svc.GenerateRoster(context.Background(), GenerateRequest{WeekStart: week, WeatherScenario: "storm"})
	assert.ErrorIs(t, err, weather.ErrUnknownScenario)
}

func TestGenerateRosterRejectsBadWeek(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.GenerateRoster(context.Background(), GenerateRequest{WeekStart: "2025-01-07"})
	assert.ErrorIs(t, err, scheduler.ErrNotMonday)
	_, err = f.svc.GenerateRoster(context.Background(), GenerateRequest{WeekStart: "next week"})
	assert.Error(t, err)
}

func TestReallocateWeatherUpdate(t *testing.T) {
	cases := []struct {
		name string
		meta map[string]any
	}{
		{"scenario", map[string]any{MetaWeatherScenario: weather.ScenarioLowCeiling}},
		{"inline", map[string]any{MetaWeather: map[string]any{"ceiling_ft": 800.0, "visibility_sm": "8"}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture(t, nil)
			ctx := context.Background()
			_, err := f.svc.GenerateRoster(ctx, GenerateRequest{WeekStart: week})
			require.NoError(t, err)

			v, err := f.svc.Reallocate(ctx, ReallocateRequest{WeekStart: week, Event: model.DisruptionEvent{
				EventType:     model.EventWeatherUpdate,
				Metadata:      c.meta,
				CorrelationID: "corr-wx",
			}})
			require.NoError(t, err)
			assert.Equal(t, 2, v.Version)
			assert.True(t, v.IsReallocation())
			assert.Equal(t, "corr-wx", v.CorrelationID)
			assert.Len(t, v.AffectedSlots, 3)
			require.NotNil(t, v.Diff)
			assert.Len(t, v.Diff.Modified, 3)
			assert.InDelta(t, 60.0, v.ChurnRate, 1e-9)
			assert.Equal(t, 5, v.Coverage.SimSlots)
		})
	}
}

func TestReallocateEntityEventFlagsSlots(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.GenerateRoster(ctx, GenerateRequest{WeekStart: week})
	require.NoError(t, err)

	v, err := f.svc.Reallocate(ctx, ReallocateRequest{WeekStart: week, Event: model.DisruptionEvent{
		EventType: model.EventInstructorUnavailable,
		EntityID:  "I1",
	}})
	require.NoError(t, err)
	assert.NotEmpty(t, v.CorrelationID)
	assert.Equal(t, 5, v.Coverage.NeedsReview)
	assert.InDelta(t, 100.0, v.ChurnRate, 1e-9)
	for _, s := range v.Roster.Slots() {
		assert.Equal(t, []string{"INSTRUCTOR_UNAVAILABLE_DISRUPTION"}, s.Reasons)
	}
}

func TestReallocateWithoutHistoryStartsFromGeneration(t *testing.T) {
	f := newFixture(t, nil)
	v, err := f.svc.Reallocate(context.Background(), ReallocateRequest{WeekStart: week, Event: model.DisruptionEvent{
		EventType: model.EventStudentUnavailable,
		EntityID:  "S2",
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, v.Version)
	assert.Len(t, v.AffectedSlots, 2)
	assert.InDelta(t, 40.0, v.ChurnRate, 1e-9)
}

func TestReallocateRejectsInvalidEvents(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	cases := []struct {
		name string
		ev   model.DisruptionEvent
		want error
	}{
		{"unknown type", model.DisruptionEvent{EventType: "METEOR"}, reallocation.ErrUnknownEventType},
		{"missing entity", model.DisruptionEvent{EventType: model.EventAircraftUnserviceable}, reallocation.ErrEntityRequired},
		{"bad scenario", model.DisruptionEvent{EventType: model.EventWeatherUpdate, Metadata: map[string]any{MetaWeatherScenario: "storm"}}, weather.ErrUnknownScenario},
		{"scenario not a string", model.DisruptionEvent{EventType: model.EventWeatherUpdate, Metadata: map[string]any{MetaWeatherScenario: 3}}, nil},
		{"unknown inline field", model.DisruptionEvent{EventType: model.EventWeatherUpdate, Metadata: map[string]any{MetaWeather: map[string]any{"qnh": 1013}}}, nil},
		{"bad confidence", model.DisruptionEvent{EventType: model.EventWeatherUpdate, Metadata: map[string]any{MetaWeather: map[string]any{"confidence": "guess"}}}, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := f.svc.Reallocate(ctx, ReallocateRequest{WeekStart: week, Event: c.ev})
			require.Error(t, err)
			if c.want != nil {
				assert.ErrorIs(t, err, c.want)
			}
		})
	}
	vs, err := f.svc.Versions(ctx, week)
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestReallocateSerialisesPerWeek(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.GenerateRoster(ctx, GenerateRequest{WeekStart: week})
	require.NoError(t, err)

	const n = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		versions []int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := f.svc.Reallocate(ctx, ReallocateRequest{WeekStart: week, Event: model.DisruptionEvent{
				EventType: model.EventWeatherUpdate,
				Metadata:  map[string]any{MetaWeatherScenario: weather.ScenarioGood},
			}})
			assert.NoError(t, err)
			mu.Lock()
			versions = append(versions, v.Version)
			mu.Unlock()
		}()
	}
	wg.Wait()
	sort.Ints(versions)
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7, 8, 9}, versions)
}

func TestEventsReachSinkAndPublisher(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.GenerateRoster(ctx, GenerateRequest{WeekStart: week})
	require.NoError(t, err)
	_, err = f.svc.Reallocate(ctx, ReallocateRequest{WeekStart: week, Event: model.DisruptionEvent{
		EventType:     model.EventAircraftUnserviceable,
		EntityID:      "VT-A",
		CorrelationID: "corr-ac",
	}})
	require.NoError(t, err)
	require.NoError(t, f.svc.Close())

	assert.Len(t, f.sink.rosters, 2)
	require.Len(t, f.sink.reallocations, 1)
	assert.Equal(t, "corr-ac", f.sink.reallocations[0].CorrelationID)
	assert.Equal(t, 2, f.sink.reallocations[0].Version)

	msgs := f.pub.Snapshot()
	require.Len(t, msgs, 2)
	assert.Equal(t, "sortie/roster/2025-01-06/generated", msgs[0].Topic)
	assert.Equal(t, "sortie/roster/2025-01-06/reallocated", msgs[1].Topic)
	var ev events.RosterEvent
	require.NoError(t, json.Unmarshal(msgs[1].Payload, &ev))
	assert.Equal(t, model.EventAircraftUnserviceable, ev.EventType)
	assert.Equal(t, 3, ev.AffectedSlots)
	assert.ElementsMatch(t, []string{"D06-SLOT_AM1", "D06-SLOT_AM2", "D08-SLOT_AM1"}, ev.ChangedSlots)
}

func TestMetricsSummarisesReallocations(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.GenerateRoster(ctx, GenerateRequest{WeekStart: week})
	require.NoError(t, err)
	for _, ev := range []model.DisruptionEvent{
		{EventType: model.EventWeatherUpdate, Metadata: map[string]any{MetaWeatherScenario: weather.ScenarioLowCeiling}},
		{EventType: model.EventStudentUnavailable, EntityID: "S1"},
	} {
		_, err := f.svc.Reallocate(ctx, ReallocateRequest{WeekStart: week, Event: ev})
		require.NoError(t, err)
	}

	sum, err := f.svc.Metrics(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 7, sum.PeriodDays)
	assert.Equal(t, 2, sum.TotalReallocations)
	assert.Equal(t, 1, sum.DisruptionTypes[model.EventWeatherUpdate])
	assert.Equal(t, 1, sum.DisruptionTypes[model.EventStudentUnavailable])
	assert.InDelta(t, 60.0, sum.MaxChurnRate, 1e-9)

	vs, err := f.svc.Versions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, vs, 3)
	_, err = f.svc.Versions(ctx, "2025-01-08")
	assert.ErrorIs(t, err, scheduler.ErrNotMonday)
}

type failingStore struct{ history.Store }

var errDiskFull = errors.New("disk full")

func (failingStore) Commit(context.Context, history.Version) (history.Version, error) {
	return history.Version{}, errDiskFull
}

func TestCommitFailureIsReported(t *testing.T) {
	f := newFixture(t, func(_ *config.Config, d *Deps) {
		d.Store = failingStore{Store: history.NewMemoryStore()}
	})
	_, err := f.svc.GenerateRoster(context.Background(), GenerateRequest{WeekStart: week})
	require.ErrorIs(t, err, errDiskFull)
	require.Len(t, f.mon.Errors, 1)
	assert.Equal(t, "generate", f.mon.Tags[0]["operation"])
	assert.Equal(t, week, f.mon.Tags[0]["week_start"])
}

func TestWeatherUsesConfiguredSource(t *testing.T) {
	f := newFixture(t, func(c *config.Config, _ *Deps) {
		c.Weather.Scenario = weather.ScenarioUnavailable
	})
	r, err := f.svc.Weather(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, model.ConfidenceUnknown, r.Confidence)

	r, err = f.svc.Weather(context.Background(), weather.ScenarioHighWind)
	require.NoError(t, err)
	require.NotNil(t, r.WindKt)
	assert.Equal(t, 25, *r.WindKt)
}

func TestNewLoadsCatalogFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.CatalogDir = "../data/catalog"
	cfg.History.Type = "memory"
	svc, err := New(cfg, Deps{})
	require.NoError(t, err)
	defer svc.Close()
	assert.Len(t, svc.Catalog().Students, 2)

	cfg.CatalogDir = t.TempDir()
	_, err = New(cfg, Deps{})
	assert.Error(t, err)
}
