// Package otel publishes engine counters through an OpenTelemetry Meter.
//
// [NewExporter] registers one Int64ObservableCounter per engine counter, one
// gauge per cumulative latency bucket plus count and sum gauges, and a single
// callback that reads [sessionauth.Engine.MetricsSnapshot] on each collection.
// The caller owns the MeterProvider.
package otel
