package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	sessionauth "github.com/deniswachira/sessionauth"
	"github.com/deniswachira/sessionauth/metrics/export/internaldefs"
)

// MetricsSource is anything that can snapshot engine metrics. *sessionauth.Engine
// satisfies it.
type MetricsSource interface {
	MetricsSnapshot() sessionauth.MetricsSnapshot
}

type counterDesc struct {
	id   sessionauth.MetricID
	desc *prometheus.Desc
}

// Exporter is a prometheus.Collector over a MetricsSource.
type Exporter struct {
	source     MetricsSource
	counters   []counterDesc
	histograms []counterDesc
	bounds     []float64
}

var _ prometheus.Collector = (*Exporter)(nil)

// NewExporter returns a collector reading from source.
func NewExporter(source MetricsSource) *Exporter {
	e := &Exporter{
		source:     source,
		counters:   make([]counterDesc, 0, len(internaldefs.CounterDefs)),
		histograms: make([]counterDesc, 0, len(internaldefs.HistogramDefs)),
		bounds:     internaldefs.UpperBounds(),
	}
	for _, def := range internaldefs.CounterDefs {
		e.counters = append(e.counters, counterDesc{
			id:   def.ID,
			desc: prometheus.NewDesc(def.Name, def.Help, nil, nil),
		})
	}
	for _, def := range internaldefs.HistogramDefs {
		e.histograms = append(e.histograms, counterDesc{
			id:   def.ID,
			desc: prometheus.NewDesc(def.Name, def.Help, nil, nil),
		})
	}
	return e
}

// Describe implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range e.counters {
		ch <- c.desc
	}
	for _, h := range e.histograms {
		ch <- h.desc
	}
}

// Collect implements prometheus.Collector. Nothing is emitted while the
// engine has metrics disabled.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	if e.source == nil {
		return
	}
	snapshot := e.source.MetricsSnapshot()

	for _, c := range e.counters {
		value, ok := snapshot.Counters[c.id]
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.CounterValue, float64(value))
	}

	for _, h := range e.histograms {
		raw, ok := snapshot.Histograms[h.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		buckets := make(map[float64]uint64, len(e.bounds))
		for i, bound := range e.bounds {
			buckets[bound] = cumulative[i]
		}
		count := cumulative[len(cumulative)-1]
		sum := snapshot.HistogramSums[h.id].Seconds()
		ch <- prometheus.MustNewConstHistogram(h.desc, count, sum, buckets)
	}
}

// Handler serves the exporter from a dedicated registry.
func (e *Exporter) Handler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(e)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
