// Package prometheus renders console metrics in the Prometheus text
// exposition format.
//
// [NewPrometheusExporter] reads from a [console.Console] and serves every
// counter (reserve_console_*_total) plus the backend latency histogram
// (reserve_console_backend_latency_seconds) from [PrometheusExporter.Handler].
// Nothing is registered globally; callers mount the handler themselves.
package prometheus
