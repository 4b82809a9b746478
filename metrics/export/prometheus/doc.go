// Package prometheus exposes engine counters through a client_golang
// Collector.
//
// [NewExporter] reads [sessionauth.Engine.MetricsSnapshot] on every scrape and
// emits const metrics, so the engine keeps its own lock-free counters and the
// exporter holds no state. Counters are named sessionauth_*_total and the
// session lookup histogram is sessionauth_session_lookup_latency_seconds.
//
// The exporter never registers with the global registry. [Exporter.Handler]
// serves a private registry; callers that already run one can Register the
// exporter themselves.
package prometheus
