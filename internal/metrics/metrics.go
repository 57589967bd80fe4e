package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg              *prometheus.Registry
	Loads            *prometheus.CounterVec
	RowsSkipped      prometheus.Counter
	RecordsLoaded    prometheus.Gauge
	FilterApplied    prometheus.Counter
	PageNavigations  *prometheus.CounterVec
	UploadsRejected  *prometheus.CounterVec
	LoadLatencySec   prometheus.Histogram
	ExportedEntries  prometheus.Counter
	ExportDuplicates prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	loads := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "orderview_loads_total"}, []string{"source", "result"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{Name: "orderview_rows_skipped_total"})
	loaded := prometheus.NewGauge(prometheus.GaugeOpts{Name: "orderview_records_loaded"})
	filters := prometheus.NewCounter(prometheus.CounterOpts{Name: "orderview_filter_applications_total"})
	nav := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "orderview_page_navigations_total"}, []string{"result"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "orderview_uploads_rejected_total"}, []string{"kind"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orderview_load_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})
	exported := prometheus.NewCounter(prometheus.CounterOpts{Name: "orderview_export_entries_total"})
	dups := prometheus.NewCounter(prometheus.CounterOpts{Name: "orderview_export_duplicates_total"})

	r.MustRegister(loads, skipped, loaded, filters, nav, rejected, latency, exported, dups)
	return &Registry{
		reg:              r,
		Loads:            loads,
		RowsSkipped:      skipped,
		RecordsLoaded:    loaded,
		FilterApplied:    filters,
		PageNavigations:  nav,
		UploadsRejected:  rejected,
		LoadLatencySec:   latency,
		ExportedEntries:  exported,
		ExportDuplicates: dups,
	}
}

// Gatherer exposes the underlying registry, mainly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
