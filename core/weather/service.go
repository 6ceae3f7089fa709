package weather

import (
	"context"
	"strings"
	"time"

	"github.com/kilianp07/sortie/core/logger"
	"github.com/kilianp07/sortie/core/metrics"
	"github.com/kilianp07/sortie/core/model"
)

// DefaultTTL is how long a live report stays fresh.
const DefaultTTL = 30 * time.Minute

// UnavailableRaw is the raw text carried by fallback reports.
const UnavailableRaw = "UNAVAILABLE"

// Provider returns the current report for an airfield. Implementations never
// fail; they degrade to an unknown-confidence report instead.
type Provider interface {
	Fetch(ctx context.Context, icao string) model.WeatherReport
}

// Service fetches, parses and caches live reports.
type Service struct {
	fetcher  Fetcher
	cache    Cache
	ttl      time.Duration
	now      func() time.Time
	log      logger.Logger
	recorder metrics.WeatherRecorder
}

// Option customises a Service.
type Option func(*Service)

// WithCache replaces the in-memory cache.
func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }

// WithTTL sets the freshness window.
func WithTTL(d time.Duration) Option { return func(s *Service) { s.ttl = d } }

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(s *Service) { s.log = logger.OrNop(l) } }

// WithRecorder records the confidence of every lookup.
func WithRecorder(r metrics.WeatherRecorder) Option { return func(s *Service) { s.recorder = r } }

// NewService returns a Service backed by f.
func NewService(f Fetcher, opts ...Option) *Service {
	s := &Service{
		fetcher:  f,
		cache:    NewMemoryCache(),
		ttl:      DefaultTTL,
		now:      time.Now,
		log:      logger.NopLogger{},
		recorder: metrics.NopSink{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Fetch returns a fresh cached report, else a live one, else a fallback.
func (s *Service) Fetch(ctx context.Context, icao string) model.WeatherReport {
	icao = strings.ToUpper(strings.TrimSpace(icao))
	r := s.fetch(ctx, icao)
	if err := s.recorder.RecordWeather(metrics.WeatherEvent{ICAO: icao, Confidence: r.Confidence, Time: s.now()}); err != nil {
		s.log.Warnf("weather: record lookup: %v", err)
	}
	return r
}

func (s *Service) fetch(ctx context.Context, icao string) model.WeatherReport {
	now := s.now()
	cached, ok, err := s.cache.Get(ctx, icao)
	if err != nil {
		s.log.Warnf("weather: cache get %s: %v", icao, err)
	}
	if ok && now.Sub(cached.FetchedAt) < s.ttl {
		cached.Confidence = model.ConfidenceCached
		return cached
	}

	raw, err := s.fetcher.FetchRaw(ctx, icao)
	if err != nil {
		s.log.Warnf("weather: fetch failed for %s: %v", icao, err)
		return Fallback(icao, now)
	}
	r, err := Parse(icao, raw, now)
	if err != nil {
		s.log.Warnf("weather: parse failed for %s: %v", icao, err)
		return Fallback(icao, now)
	}
	if err := s.cache.Set(ctx, r, s.ttl); err != nil {
		s.log.Warnf("weather: cache set %s: %v", icao, err)
	}
	s.log.Debugw("weather: live report", map[string]any{"icao": icao, "raw": raw})
	return r
}

// Fallback is the report used when no observation is available.
func Fallback(icao string, now time.Time) model.WeatherReport {
	return model.WeatherReport{
		ICAO:       icao,
		Raw:        UnavailableRaw,
		FetchedAt:  now,
		Confidence: model.ConfidenceUnknown,
	}
}
