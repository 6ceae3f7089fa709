// Package config loads the application configuration from a YAML or JSON
// file with SORTIE_ environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/sortie/core/factory"
	"github.com/kilianp07/sortie/core/metrics"
	"github.com/kilianp07/sortie/core/reallocation"
	"github.com/kilianp07/sortie/core/weather"
	"github.com/kilianp07/sortie/infra/cache"
	"github.com/kilianp07/sortie/infra/logger"
	"github.com/kilianp07/sortie/infra/monitoring"
	"github.com/kilianp07/sortie/infra/mqtt"
)

// EnvPrefix marks environment variables that override file values.
// SORTIE_WEATHER__SOURCE=live sets weather.source.
const EnvPrefix = "SORTIE_"

// Defaults used when neither the file nor the environment set a value.
const (
	DefaultBaseICAO    = "VOBG"
	DefaultCatalogDir  = "data/catalog"
	DefaultHistoryPath = "data/versions.jsonl"
)

var icaoRe = regexp.MustCompile(`^[A-Z]{4}$`)

type Config struct {
	BaseICAO     string               `json:"base_icao"`
	CatalogDir   string               `json:"catalog_dir"`
	Weather      weather.Config       `json:"weather"`
	Reallocation ReallocationConfig   `json:"reallocation"`
	History      factory.ModuleConfig `json:"history"`
	Metrics      metrics.Config       `json:"metrics"`
	MQTT         mqtt.Config          `json:"mqtt"`
	Redis        cache.Config         `json:"redis"`
	Sentry       monitoring.Config    `json:"sentry"`
	Logging      logger.Config        `json:"logging"`
}

// ReallocationConfig tunes the reallocation engine.
type ReallocationConfig struct {
	// SimUsagePolicy is "seeded" or "fresh".
	SimUsagePolicy string `json:"sim_usage_policy"`
}

// Policy returns the parsed simulator usage policy.
func (c ReallocationConfig) Policy() (reallocation.SimUsagePolicy, error) {
	return reallocation.ParseSimUsagePolicy(c.SimUsagePolicy)
}

// Load reads path, applies environment overrides, fills defaults and
// validates the result. An empty path uses defaults and the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Default returns a configuration built from defaults alone.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.BaseICAO = strings.ToUpper(c.BaseICAO)
	if c.BaseICAO == "" {
		c.BaseICAO = DefaultBaseICAO
	}
	if c.CatalogDir == "" {
		c.CatalogDir = DefaultCatalogDir
	}
	if c.Reallocation.SimUsagePolicy == "" {
		c.Reallocation.SimUsagePolicy = string(reallocation.SimUsageSeeded)
	}
	if c.History.Type == "" {
		c.History.Type = "jsonl"
	}
	if c.History.Type != "memory" {
		if c.History.Conf == nil {
			c.History.Conf = map[string]any{}
		}
		if _, ok := c.History.Conf["path"]; !ok {
			c.History.Conf["path"] = DefaultHistoryPath
		}
	}
	c.Weather.SetDefaults()
	c.Metrics.SetDefaults()
	c.MQTT.SetDefaults()
	c.Redis.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if !icaoRe.MatchString(c.BaseICAO) {
		return fmt.Errorf("base_icao %q must be four letters", c.BaseICAO)
	}
	if c.CatalogDir == "" {
		return fmt.Errorf("catalog_dir is required")
	}
	if _, err := c.Reallocation.Policy(); err != nil {
		return fmt.Errorf("reallocation: %w", err)
	}
	if err := c.Weather.Validate(); err != nil {
		return err
	}
	if err := c.MQTT.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
