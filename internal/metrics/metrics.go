package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Yosodog/Nexus-AMS-Discord/internal/domain"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	ItemsProcessed  *prometheus.CounterVec
	DeliveryLatency *prometheus.HistogramVec
	FetchFailures   prometheus.Counter
	TicksSkipped    prometheus.Counter
	StatusRetries   prometheus.Counter
	StatusDropped   prometheus.Counter
	PollInterval    prometheus.Gauge
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ItemsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queue_items_processed_total",
			Help: "Total number of queue items dispatched, by action and outcome.",
		}, []string{"action", "outcome"}),

		DeliveryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "delivery_seconds",
			Help:    "Time from dequeue to platform ack for successfully delivered items.",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),

		FetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queue_fetch_failures_total",
			Help: "Total number of failed queue fetch calls.",
		}),

		TicksSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "poll_ticks_skipped_total",
			Help: "Total number of poll ticks skipped because a cycle was still in flight.",
		}),

		StatusRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "status_report_retries_total",
			Help: "Total number of status reports scheduled for retry after a transport failure.",
		}),

		StatusDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "status_reports_dropped_total",
			Help: "Total number of status reports dropped after a producer rejection.",
		}),

		PollInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "poll_interval_seconds",
			Help: "Current queue poll interval, including fetch backoff.",
		}),
	}

	reg.MustRegister(
		m.ItemsProcessed,
		m.DeliveryLatency,
		m.FetchFailures,
		m.TicksSkipped,
		m.StatusRetries,
		m.StatusDropped,
		m.PollInterval,
	)

	return m
}

// PollerHooks returns the metric callback functions expected by poller.Hooks.
// Centralises the prometheus observation calls so poller.go stays import-free.
func (m *Metrics) PollerHooks() (
	onProcessed func(domain.Action, bool),
	onDelivered func(domain.Action, time.Duration),
	onFetchFailure func(),
	onTickSkipped func(),
	onInterval func(time.Duration),
) {
	onProcessed = func(action domain.Action, success bool) {
		outcome := "failed"
		if success {
			outcome = "complete"
		}
		m.ItemsProcessed.WithLabelValues(string(action), outcome).Inc()
	}
	onDelivered = func(action domain.Action, d time.Duration) {
		m.DeliveryLatency.WithLabelValues(string(action)).Observe(d.Seconds())
	}
	onFetchFailure = func() {
		m.FetchFailures.Inc()
	}
	onTickSkipped = func() {
		m.TicksSkipped.Inc()
	}
	onInterval = func(d time.Duration) {
		m.PollInterval.Set(d.Seconds())
	}
	return
}

// LedgerHooks returns the metric callbacks expected by ledger.Hooks.
func (m *Metrics) LedgerHooks() (
	onRetryScheduled func(),
	onDropped func(),
) {
	onRetryScheduled = m.StatusRetries.Inc
	onDropped = m.StatusDropped.Inc
	return
}

// RegisterLedgerSize exposes the retry ledger's live size as a gauge.
// A GaugeFunc tracks removals too, not just the hook-covered transitions.
func RegisterLedgerSize(reg prometheus.Registerer, size func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "status_retry_ledger_size",
		Help: "Current number of pending status-report retries.",
	}, func() float64 {
		return float64(size())
	}))
}
