package weather

import "fmt"

// Source selects where reports come from.
const (
	SourceLive = "live"
	SourceMock = "mock"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// DefaultBaseURL is the aviationweather.gov METAR endpoint.
const DefaultBaseURL = "https://aviationweather.gov/api/data/metar"

// Config configures weather lookups.
type Config struct {
	Source          string `json:"source"`
	Scenario        string `json:"scenario"`
	BaseURL         string `json:"base_url"`
	UserAgent       string `json:"user_agent"`
	TimeoutSeconds  int    `json:"timeout_seconds"`
	CacheTTLMinutes int    `json:"cache_ttl_minutes"`
	Cache           string `json:"cache"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Source == "" {
		c.Source = SourceMock
	}
	if c.Scenario == "" {
		c.Scenario = ScenarioGood
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.UserAgent == "" {
		c.UserAgent = "sortie-dispatch/1.0"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 5
	}
	if c.CacheTTLMinutes <= 0 {
		c.CacheTTLMinutes = 30
	}
	if c.Cache == "" {
		c.Cache = CacheMemory
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Source {
	case SourceLive, SourceMock:
	default:
		return fmt.Errorf("weather.source must be %q or %q, got %q", SourceLive, SourceMock, c.Source)
	}
	if c.Source == SourceMock && !IsScenario(c.Scenario) {
		return fmt.Errorf("weather.scenario %q: %w", c.Scenario, ErrUnknownScenario)
	}
	switch c.Cache {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("weather.cache must be %q or %q, got %q", CacheMemory, CacheRedis, c.Cache)
	}
	return nil
}
