package x4grid

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rlibre/x4grid/store"
)

// MetricsCollector receives operational metrics from a Grid and the
// store, view and renderers it owns.
type MetricsCollector interface {
	// RecordMutation is called after each successful store mutation.
	RecordMutation(kind store.EventKind, d time.Duration)

	// RecordError is called when a grid operation fails.
	RecordError(op string, err error)

	// RecordIndexRebuild is called after the canonical index is rebuilt.
	RecordIndexRebuild(live int, d time.Duration)

	// RecordRecompute is called after the view recomputes or re-sorts.
	RecordRecompute(reason store.EventKind, count int, d time.Duration)

	// RecordRebuild is called after a renderer rebuilds its live items.
	RecordRebuild(live, created int, d time.Duration)

	// RecordLoad is called once per fetched source.
	RecordLoad(source string, records int, d time.Duration, err error)
}

// NoopMetricsCollector discards all metrics.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordMutation(store.EventKind, time.Duration)       {}
func (NoopMetricsCollector) RecordError(string, error)                           {}
func (NoopMetricsCollector) RecordIndexRebuild(int, time.Duration)               {}
func (NoopMetricsCollector) RecordRecompute(store.EventKind, int, time.Duration) {}
func (NoopMetricsCollector) RecordRebuild(int, int, time.Duration)               {}
func (NoopMetricsCollector) RecordLoad(string, int, time.Duration, error)        {}

// BasicMetricsCollector keeps simple in-memory counters.
type BasicMetricsCollector struct {
	MutationCount      atomic.Int64
	MutationTotalNanos atomic.Int64
	ErrorCount         atomic.Int64
	IndexRebuildCount  atomic.Int64
	RecomputeCount     atomic.Int64
	RecomputeNanos     atomic.Int64
	RebuildCount       atomic.Int64
	ItemsCreated       atomic.Int64
	LoadCount          atomic.Int64
	LoadErrors         atomic.Int64
	RecordsLoaded      atomic.Int64
}

// RecordMutation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMutation(_ store.EventKind, d time.Duration) {
	b.MutationCount.Add(1)
	b.MutationTotalNanos.Add(d.Nanoseconds())
}

// RecordError implements MetricsCollector.
func (b *BasicMetricsCollector) RecordError(string, error) {
	b.ErrorCount.Add(1)
}

// RecordIndexRebuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIndexRebuild(int, time.Duration) {
	b.IndexRebuildCount.Add(1)
}

// RecordRecompute implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRecompute(_ store.EventKind, _ int, d time.Duration) {
	b.RecomputeCount.Add(1)
	b.RecomputeNanos.Add(d.Nanoseconds())
}

// RecordRebuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRebuild(_, created int, _ time.Duration) {
	b.RebuildCount.Add(1)
	b.ItemsCreated.Add(int64(created))
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(_ string, records int, _ time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.RecordsLoaded.Add(int64(records))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		MutationCount:     b.MutationCount.Load(),
		MutationAvgNanos:  avg(b.MutationTotalNanos.Load(), b.MutationCount.Load()),
		ErrorCount:        b.ErrorCount.Load(),
		IndexRebuildCount: b.IndexRebuildCount.Load(),
		RecomputeCount:    b.RecomputeCount.Load(),
		RecomputeAvgNanos: avg(b.RecomputeNanos.Load(), b.RecomputeCount.Load()),
		RebuildCount:      b.RebuildCount.Load(),
		ItemsCreated:      b.ItemsCreated.Load(),
		LoadCount:         b.LoadCount.Load(),
		LoadErrors:        b.LoadErrors.Load(),
		RecordsLoaded:     b.RecordsLoaded.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	MutationCount     int64
	MutationAvgNanos  int64
	ErrorCount        int64
	IndexRebuildCount int64
	RecomputeCount    int64
	RecomputeAvgNanos int64
	RebuildCount      int64
	ItemsCreated      int64
	LoadCount         int64
	LoadErrors        int64
	RecordsLoaded     int64
}

// PrometheusCollector exports grid metrics to a Prometheus registry.
type PrometheusCollector struct {
	opLatency     *prometheus.HistogramVec
	errors        *prometheus.CounterVec
	liveRecords   prometheus.Gauge
	viewRecords   prometheus.Gauge
	liveItems     prometheus.Gauge
	itemsCreated  prometheus.Counter
	recordsLoaded *prometheus.CounterVec
}

// NewPrometheusCollector creates the collector's metrics and registers
// them with reg. A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	p := &PrometheusCollector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "x4grid_operation_latency_seconds",
			Help:    "Latency of grid operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "x4grid_errors_total",
			Help: "Failed grid operations",
		}, []string{"op"}),
		liveRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "x4grid_store_records",
			Help: "Live records in the store",
		}),
		viewRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "x4grid_view_records",
			Help: "Records in the filtered view",
		}),
		liveItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "x4grid_renderer_live_items",
			Help: "Items bound to visible rows",
		}),
		itemsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "x4grid_renderer_items_created_total",
			Help: "Items built by renderer factories",
		}),
		recordsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "x4grid_records_loaded_total",
			Help: "Records fetched from sources",
		}, []string{"source"}),
	}

	reg.MustRegister(p.opLatency)
	reg.MustRegister(p.errors)
	reg.MustRegister(p.liveRecords)
	reg.MustRegister(p.viewRecords)
	reg.MustRegister(p.liveItems)
	reg.MustRegister(p.itemsCreated)
	reg.MustRegister(p.recordsLoaded)
	return p
}

// RecordMutation implements MetricsCollector.
func (p *PrometheusCollector) RecordMutation(kind store.EventKind, d time.Duration) {
	p.opLatency.WithLabelValues(kind.String()).Observe(d.Seconds())
}

// RecordError implements MetricsCollector.
func (p *PrometheusCollector) RecordError(op string, _ error) {
	p.errors.WithLabelValues(op).Inc()
}

// RecordIndexRebuild implements MetricsCollector.
func (p *PrometheusCollector) RecordIndexRebuild(live int, d time.Duration) {
	p.liveRecords.Set(float64(live))
	p.opLatency.WithLabelValues("index_rebuild").Observe(d.Seconds())
}

// RecordRecompute implements MetricsCollector.
func (p *PrometheusCollector) RecordRecompute(_ store.EventKind, count int, d time.Duration) {
	p.viewRecords.Set(float64(count))
	p.opLatency.WithLabelValues("recompute").Observe(d.Seconds())
}

// RecordRebuild implements MetricsCollector.
func (p *PrometheusCollector) RecordRebuild(live, created int, d time.Duration) {
	p.liveItems.Set(float64(live))
	p.itemsCreated.Add(float64(created))
	p.opLatency.WithLabelValues("render").Observe(d.Seconds())
}

// RecordLoad implements MetricsCollector.
func (p *PrometheusCollector) RecordLoad(source string, records int, d time.Duration, err error) {
	p.opLatency.WithLabelValues("load").Observe(d.Seconds())
	if err != nil {
		p.errors.WithLabelValues("load").Inc()
		return
	}
	p.recordsLoaded.WithLabelValues(source).Add(float64(records))
}

// metricsObserver adapts a MetricsCollector to the subpackage observers.
type metricsObserver struct {
	mc MetricsCollector
}

func (o metricsObserver) OnMutation(kind store.EventKind, d time.Duration) {
	o.mc.RecordMutation(kind, d)
}

func (o metricsObserver) OnIndexRebuild(live int, d time.Duration) {
	o.mc.RecordIndexRebuild(live, d)
}

func (o metricsObserver) OnRecompute(reason store.EventKind, count int, d time.Duration) {
	o.mc.RecordRecompute(reason, count, d)
}

func (o metricsObserver) OnRebuild(live, created int, d time.Duration) {
	o.mc.RecordRebuild(live, created, d)
}

func (o metricsObserver) OnLoad(source string, records int, d time.Duration, err error) {
	o.mc.RecordLoad(source, records, d, err)
}
