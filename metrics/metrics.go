// Package metrics exposes fetch, cache, forecast and request metrics to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "macroforecast"

const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultFallback = "fallback"
)

// Exporter records application metrics. A nil exporter discards everything.
type Exporter struct {
	Fetches         *prometheus.CounterVec
	CacheRequests   *prometheus.CounterVec
	Forecasts       *prometheus.CounterVec
	LastRefresh     prometheus.Gauge
	RequestDuration *prometheus.HistogramVec
}

// NewExporter creates the metrics and registers them with reg
func NewExporter(reg prometheus.Registerer) *Exporter {
	factory := promauto.With(reg)
	return &Exporter{
		Fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "fetches_total",
				Help:      "Total number of upstream series fetches by source and result",
			},
			[]string{"source", "result"},
		),
		CacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "cache_requests_total",
				Help:      "Total number of series cache lookups by result (hit/miss)",
			},
			[]string{"result"},
		),
		Forecasts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "forecasts_total",
				Help:      "Total number of forecasts by the model that produced them",
			},
			[]string{"model"},
		),
		LastRefresh: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "last_refresh_timestamp_seconds",
				Help:      "Unix time of the last successful data refresh",
			},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of dashboard api requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"path", "code"},
		),
	}
}

// RecordFetch records an upstream fetch
func (e *Exporter) RecordFetch(source, result string) {
	if e == nil {
		return
	}
	e.Fetches.WithLabelValues(source, result).Inc()
}

func (e *Exporter) RecordCacheHit() {
	if e == nil {
		return
	}
	e.CacheRequests.WithLabelValues("hit").Inc()
}

func (e *Exporter) RecordCacheMiss() {
	if e == nil {
		return
	}
	e.CacheRequests.WithLabelValues("miss").Inc()
}

// RecordForecast records a forecast labelled with its model
func (e *Exporter) RecordForecast(model string) {
	if e == nil {
		return
	}
	e.Forecasts.WithLabelValues(model).Inc()
}

// RecordRefresh stores the time of a completed refresh
func (e *Exporter) RecordRefresh(t time.Time) {
	if e == nil {
		return
	}
	e.LastRefresh.Set(float64(t.Unix()))
}

// ObserveRequest records how long a request to path took
func (e *Exporter) ObserveRequest(path string, code int, d time.Duration) {
	if e == nil {
		return
	}
	e.RequestDuration.WithLabelValues(path, strconv.Itoa(code)).Observe(d.Seconds())
}
