// Package infra contains technical adapters: the logger, Prometheus and
// InfluxDB sinks, the MQTT notifier, the Redis METAR cache and Sentry error
// reporting. These packages depend only on interfaces defined in core.
package infra
