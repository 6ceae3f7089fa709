// Package app wires the roster, dispatch and reallocation engines to their
// storage, weather, metrics and notification adapters.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/sortie/config"
	"github.com/kilianp07/sortie/core/catalog"
	"github.com/kilianp07/sortie/core/dispatch"
	"github.com/kilianp07/sortie/core/events"
	"github.com/kilianp07/sortie/core/history"
	"github.com/kilianp07/sortie/core/logger"
	coremetrics "github.com/kilianp07/sortie/core/metrics"
	"github.com/kilianp07/sortie/core/model"
	"github.com/kilianp07/sortie/core/monitoring"
	"github.com/kilianp07/sortie/core/reallocation"
	"github.com/kilianp07/sortie/core/scheduler"
	"github.com/kilianp07/sortie/core/weather"
	"github.com/kilianp07/sortie/infra/cache"
	infralogger "github.com/kilianp07/sortie/infra/logger"
	"github.com/kilianp07/sortie/infra/metrics"
	inframon "github.com/kilianp07/sortie/infra/monitoring"
	"github.com/kilianp07/sortie/infra/mqtt"
	"github.com/kilianp07/sortie/internal/eventbus"
)

// Deps overrides collaborators that New would otherwise build from the
// configuration. Zero fields are built.
type Deps struct {
	Catalog   *model.Catalog
	Store     history.Store
	Weather   weather.Provider
	Sink      coremetrics.MetricsSink
	Publisher mqtt.Publisher
	Monitor   monitoring.Monitor
	Logger    logger.Logger
	Clock     func() time.Time
}

// Service runs roster operations against the configured adapters.
type Service struct {
	cfg     *config.Config
	catalog model.Catalog
	store   history.Store
	weather weather.Provider
	sink    coremetrics.MetricsSink
	gen     *scheduler.Generator
	engine  *reallocation.Engine
	bus     *eventbus.TypedBus[events.RosterEvent]
	mon     monitoring.Monitor
	log     logger.Logger
	now     func() time.Time

	locks   weekLocks
	done    []<-chan struct{}
	closers []func() error
	once    sync.Once
}

// GenerateRequest asks for a dispatched roster of one week.
type GenerateRequest struct {
	WeekStart string `json:"week_start"`
	// WeatherScenario forces a mock scenario instead of the configured source.
	WeatherScenario string `json:"weather_scenario,omitempty"`
}

// ReallocateRequest applies a disruption to the latest roster of a week.
type ReallocateRequest struct {
	WeekStart string                `json:"week_start"`
	Event     model.DisruptionEvent `json:"event"`
}

// New builds a Service. The returned service owns every adapter it created
// and releases them in Close.
func New(cfg *config.Config, deps Deps) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Service{
		cfg:   cfg,
		gen:   scheduler.NewGenerator(infralogger.New("scheduler")),
		bus:   eventbus.NewTyped[events.RosterEvent](),
		mon:   deps.Monitor,
		log:   deps.Logger,
		now:   deps.Clock,
		locks: weekLocks{m: map[string]*sync.Mutex{}},
	}
	if s.log == nil {
		s.log = infralogger.New("service")
	}
	if s.now == nil {
		s.now = time.Now
	}
	if err := s.init(deps); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) init(deps Deps) error {
	cfg := s.cfg
	if s.mon == nil {
		mon, err := inframon.NewSentryMonitor(cfg.Sentry)
		if err != nil {
			return fmt.Errorf("sentry: %w", err)
		}
		s.mon = mon
		s.closers = append(s.closers, func() error { mon.Flush(2 * time.Second); return nil })
	}

	policy, err := cfg.Reallocation.Policy()
	if err != nil {
		return err
	}
	s.engine = reallocation.NewEngine(infralogger.New("reallocation"), policy)

	if deps.Catalog != nil {
		s.catalog = *deps.Catalog
	} else {
		cat, err := catalog.Load(cfg.CatalogDir)
		if err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
		s.catalog = cat
	}
	if hash, err := catalog.Hash(s.catalog); err == nil {
		s.log.Infof("catalog loaded: %d students, %d instructors, %d aircraft, %d simulators, hash %s",
			len(s.catalog.Students), len(s.catalog.Instructors), len(s.catalog.Aircraft), len(s.catalog.Simulators), hash[:12])
	}

	s.store = deps.Store
	if s.store == nil {
		st, err := history.New(cfg.History)
		if err != nil {
			return err
		}
		s.store = st
		s.closers = append(s.closers, st.Close)
	}

	s.sink = deps.Sink
	if s.sink == nil {
		sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
		if err != nil {
			return fmt.Errorf("metrics sink: %w", err)
		}
		s.sink = sink
		s.closers = append(s.closers, func() error { closeSink(sink); return nil })
	}

	s.weather = deps.Weather
	if s.weather == nil {
		p, err := s.weatherProvider()
		if err != nil {
			return err
		}
		s.weather = p
	}

	s.done = append(s.done, metrics.StartEventCollector(s.bus, s.sink))

	pub := deps.Publisher
	if pub == nil && cfg.MQTT.Enabled {
		client, err := mqtt.NewPahoClient(cfg.MQTT, s.mon)
		if err != nil {
			return fmt.Errorf("mqtt client: %w", err)
		}
		pub = client
		s.closers = append(s.closers, func() error { client.Disconnect(); return nil })
	}
	if pub != nil {
		s.done = append(s.done, mqtt.NewNotifier(pub, cfg.MQTT.TopicPrefix).Start(s.bus))
	}
	return nil
}

func (s *Service) weatherProvider() (weather.Provider, error) {
	cfg := s.cfg.Weather
	if cfg.Source == weather.SourceMock {
		return weather.NewMock(cfg.Scenario)
	}
	opts := []weather.Option{
		weather.WithTTL(time.Duration(cfg.CacheTTLMinutes) * time.Minute),
		weather.WithLogger(infralogger.New("weather")),
		weather.WithClock(s.now),
	}
	if rec, ok := s.sink.(coremetrics.WeatherRecorder); ok {
		opts = append(opts, weather.WithRecorder(rec))
	}
	if cfg.Cache == weather.CacheRedis {
		rc, err := cache.NewRedis(s.cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("weather cache: %w", err)
		}
		s.closers = append(s.closers, rc.Close)
		opts = append(opts, weather.WithCache(rc))
	}
	return weather.NewService(weather.NewAviationWeather(cfg), opts...), nil
}

// Catalog returns the reference data the service schedules from.
func (s *Service) Catalog() model.Catalog { return s.catalog }

// GenerateRoster builds, dispatches and commits a roster for one week.
func (s *Service) GenerateRoster(ctx context.Context, req GenerateRequest) (history.Version, error) {
	week, err := parseWeek(req.WeekStart)
	if err != nil {
		return history.Version{}, err
	}
	unlock := s.locks.lock(req.WeekStart)
	defer unlock()

	roster, err := s.gen.Generate(week, s.cfg.BaseICAO, s.catalog)
	if err != nil {
		return history.Version{}, err
	}
	wx, err := s.Weather(ctx, req.WeatherScenario)
	if err != nil {
		return history.Version{}, err
	}
	roster = dispatch.Apply(roster, s.catalog.StudentIndex(), wx, s.catalog.Simulators)

	v, err := s.store.Commit(ctx, history.Version{
		WeekStart: req.WeekStart,
		CreatedAt: s.now().UTC(),
		Roster:    roster,
		Coverage:  coremetrics.ComputeCoverage(roster),
	})
	if err != nil {
		return history.Version{}, s.capture("generate", req.WeekStart, fmt.Errorf("commit roster: %w", err))
	}
	s.log.Infof("roster %s v%d committed: %d slots, %d unassigned, weather %s",
		v.WeekStart, v.Version, roster.SlotCount(), len(roster.Unassigned), wx.Confidence)
	s.bus.Publish(events.RosterEvent{
		Kind:      events.KindGenerated,
		WeekStart: v.WeekStart,
		Version:   v.Version,
		BaseICAO:  s.cfg.BaseICAO,
		Weather:   wx.Confidence,
		Coverage:  v.Coverage,
		Time:      v.CreatedAt,
	})
	return v, nil
}

// Reallocate applies req.Event to the latest committed roster of the week and
// commits the result. A week without history starts from a fresh generation.
func (s *Service) Reallocate(ctx context.Context, req ReallocateRequest) (history.Version, error) {
	week, err := parseWeek(req.WeekStart)
	if err != nil {
		return history.Version{}, err
	}
	unlock := s.locks.lock(req.WeekStart)
	defer unlock()

	base, err := s.baseRoster(ctx, week, req.WeekStart)
	if err != nil {
		return history.Version{}, err
	}

	ev := req.Event.WithCorrelationID()
	var wx *model.WeatherReport
	if ev.EventType == model.EventWeatherUpdate {
		r, err := s.eventWeather(ctx, ev.Metadata)
		if err != nil {
			return history.Version{}, err
		}
		wx = &r
	}

	res, err := s.engine.Reallocate(reallocation.Request{
		Roster:  base,
		Event:   ev,
		Catalog: s.catalog,
		Weather: wx,
	})
	if err != nil {
		return history.Version{}, err
	}

	v, err := s.store.Commit(ctx, history.Version{
		WeekStart:     req.WeekStart,
		CreatedAt:     s.now().UTC(),
		CorrelationID: res.CorrelationID,
		EventType:     res.EventType,
		Roster:        res.NewRoster,
		Diff:          &res.Diff,
		ChurnRate:     res.ChurnRate,
		AffectedSlots: res.AffectedSlots,
		Coverage:      coremetrics.ComputeCoverage(res.NewRoster),
	})
	if err != nil {
		return history.Version{}, s.capture("reallocate", req.WeekStart, fmt.Errorf("commit roster: %w", err))
	}

	confidence := model.ConfidenceUnknown
	if res.NewRoster.Weather != nil {
		confidence = res.NewRoster.Weather.Confidence
	}
	s.bus.Publish(events.RosterEvent{
		Kind:          events.KindReallocated,
		WeekStart:     v.WeekStart,
		Version:       v.Version,
		BaseICAO:      s.cfg.BaseICAO,
		Weather:       confidence,
		Coverage:      v.Coverage,
		CorrelationID: v.CorrelationID,
		EventType:     v.EventType,
		AffectedSlots: len(res.AffectedSlots),
		TotalChanges:  res.Diff.TotalChanges,
		ChurnRate:     res.ChurnRate,
		ChangedSlots:  res.Diff.SlotIDs(),
		Time:          v.CreatedAt,
	})
	return v, nil
}

func (s *Service) baseRoster(ctx context.Context, week time.Time, weekStart string) (model.Roster, error) {
	latest, err := s.store.Latest(ctx, weekStart)
	if err == nil {
		return latest.Roster, nil
	}
	if !errors.Is(err, history.ErrNotFound) {
		return model.Roster{}, s.capture("reallocate", weekStart, fmt.Errorf("load latest roster: %w", err))
	}
	s.log.Infof("no committed roster for %s, generating one", weekStart)
	return s.gen.Generate(week, s.cfg.BaseICAO, s.catalog)
}

// Versions lists the committed versions of a week, or of every week when
// weekStart is empty.
func (s *Service) Versions(ctx context.Context, weekStart string) ([]history.Version, error) {
	if weekStart != "" {
		if _, err := parseWeek(weekStart); err != nil {
			return nil, err
		}
	}
	vs, err := s.store.List(ctx, weekStart)
	if err != nil {
		return nil, s.capture("versions", weekStart, err)
	}
	return vs, nil
}

// Metrics summarises the reallocations committed within days before now.
// A non-positive days uses the configured default.
func (s *Service) Metrics(ctx context.Context, days int) (coremetrics.Summary, error) {
	if days <= 0 {
		days = s.cfg.Metrics.SummaryDays
	}
	vs, err := s.store.List(ctx, "")
	if err != nil {
		return coremetrics.Summary{}, s.capture("metrics", "", err)
	}
	return coremetrics.Summarize(history.ChurnSamples(vs), days, s.now()), nil
}

// Weather returns the report for the base airfield. A non-empty scenario
// selects a mock report instead of the configured source.
func (s *Service) Weather(ctx context.Context, scenario string) (model.WeatherReport, error) {
	if scenario != "" {
		return weather.Scenario(scenario, s.cfg.BaseICAO, s.now())
	}
	return s.weather.Fetch(ctx, s.cfg.BaseICAO), nil
}

// Run serves Prometheus metrics when a port is configured and blocks until
// ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusPort == "" {
		<-ctx.Done()
		return nil
	}
	return metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort, nil)
}

// Close drains pending events and releases the adapters.
func (s *Service) Close() error {
	var errs []error
	s.once.Do(func() {
		s.bus.Close()
		for _, d := range s.done {
			<-d
		}
		for i := len(s.closers) - 1; i >= 0; i-- {
			if err := s.closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}

func (s *Service) capture(op, week string, err error) error {
	s.log.Errorf("%s %s: %v", op, week, err)
	s.mon.CaptureException(err, map[string]string{"operation": op, "week_start": week})
	return err
}

func parseWeek(s string) (time.Time, error) {
	t, err := time.Parse(scheduler.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("week_start %q: %w", s, err)
	}
	if t.Weekday() != time.Monday {
		return time.Time{}, fmt.Errorf("%s: %w", s, scheduler.ErrNotMonday)
	}
	return t, nil
}

func closeSink(sink coremetrics.MetricsSink) {
	switch s := sink.(type) {
	case *coremetrics.MultiSink:
		for _, inner := range s.Sinks {
			closeSink(inner)
		}
	case interface{ Close() }:
		s.Close()
	}
}

// weekLocks serialises operations on the same week.
type weekLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (l *weekLocks) lock(week string) func() {
	l.mu.Lock()
	m, ok := l.m[week]
	if !ok {
		m = &sync.Mutex{}
		l.m[week] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}
