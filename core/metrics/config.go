package metrics

import "github.com/kilianp07/sortie/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusPort exposes /metrics when non-empty.
	PrometheusPort string `json:"prometheus_port"`
	// SummaryDays is the default look-back window of Summarize.
	SummaryDays int `json:"summary_days"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.SummaryDays <= 0 {
		c.SummaryDays = 7
	}
}
