// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Feed metrics
	TicksProcessed prometheus.Counter
	TicksSkipped   prometheus.Counter

	// Order metrics
	OrdersSubmitted prometheus.Counter
	OrdersFilled    *prometheus.CounterVec
	OrdersRejected  *prometheus.CounterVec
	FillVolume      *prometheus.CounterVec

	// Session metrics
	SessionDuration prometheus.Histogram
	SessionsRun     prometheus.Counter

	// Portfolio gauges
	CashBalance   prometheus.Gauge
	NetAssetValue prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "intraday_sim"
	}

	return &Metrics{
		TicksProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "ticks_processed_total",
			Help:      "Total number of ticks fed through the simulation",
		}),
		TicksSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "ticks_skipped_total",
			Help:      "Total number of ticks skipped (unknown symbol or opening auction)",
		}),
		OrdersSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "orders_submitted_total",
			Help:      "Total number of orders passing validation",
		}),
		OrdersFilled: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "orders_filled_total",
			Help:      "Total number of orders filled by side",
		}, []string{"side"}),
		OrdersRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "orders_rejected_total",
			Help:      "Total number of orders rejected by reason class",
		}, []string{"reason"}),
		FillVolume: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "fill_volume_total",
			Help:      "Total filled share volume by side",
		}, []string{"side"}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of a session day run",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		SessionsRun: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "runs_total",
			Help:      "Total number of session days completed",
		}),
		CashBalance: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "cash_balance",
			Help:      "Current portfolio cash balance",
		}),
		NetAssetValue: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "net_asset_value",
			Help:      "Current portfolio net asset value",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordFill records one executed order.
func (m *Metrics) RecordFill(side string, volume int64) {
	if m == nil {
		return
	}
	m.OrdersFilled.WithLabelValues(side).Inc()
	m.FillVolume.WithLabelValues(side).Add(float64(volume))
}

// RecordRejection records a rejected order by reason class.
func (m *Metrics) RecordRejection(reason string) {
	if m == nil {
		return
	}
	m.OrdersRejected.WithLabelValues(reason).Inc()
}

// RecordTick increments the processed tick counter.
func (m *Metrics) RecordTick() {
	if m == nil {
		return
	}
	m.TicksProcessed.Inc()
}

// RecordSubmission increments the submitted order counter.
func (m *Metrics) RecordSubmission() {
	if m == nil {
		return
	}
	m.OrdersSubmitted.Inc()
}

// UpdatePortfolio refreshes the cash and NAV gauges.
func (m *Metrics) UpdatePortfolio(cash, nav float64) {
	if m == nil {
		return
	}
	m.CashBalance.Set(cash)
	m.NetAssetValue.Set(nav)
}
