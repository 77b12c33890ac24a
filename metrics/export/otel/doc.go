// Package otel publishes console metrics through an OpenTelemetry meter.
//
// [NewOTelExporter] registers one Int64ObservableCounter per console
// counter and one Int64ObservableGauge per latency bucket. A single
// callback reads [console.Console.MetricsSnapshot] on every collection.
// Callers own the MeterProvider.
package otel
