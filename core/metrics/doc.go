// Package metrics defines the observability events emitted by reminder
// sweeps and the sink interface implemented by the Prometheus and InfluxDB
// adapters.
package metrics
