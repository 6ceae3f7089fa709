// Package metrics defines the sinks that record roster generation,
// reallocation and weather events, along with the roster coverage and churn
// summaries reported by the CLI. Sinks like PromSink and InfluxSink live in
// infra/metrics and register themselves by name; NewMetricsSink returns a
// MultiSink automatically when several sinks are configured.
package metrics
