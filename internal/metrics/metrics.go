package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the ingest/reconcile/notify
// pipeline.
type Metrics struct {
	FiresIngested    prometheus.Counter
	FiresSkipped     prometheus.Counter // insert suppressed by the existence check
	GeocodeFailures  prometheus.Counter
	DuplicatesPurged prometheus.Counter

	NotificationsSent    *prometheus.CounterVec // labels: event_type={FireData,CrowdSourcingData}
	NotificationFailures prometheus.Counter

	LoopErrors *prometheus.CounterVec // labels: loop={pipeline,notifier}
}

// New creates and registers all pipeline metrics with the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers against an explicit registry; tests pass a fresh one.
func NewWith(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FiresIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_alerts",
			Name:      "fires_ingested_total",
			Help:      "Fire records inserted from the satellite feed.",
		}),
		FiresSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_alerts",
			Name:      "fires_skipped_total",
			Help:      "Feed rows skipped because the dedup triple already exists.",
		}),
		GeocodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_alerts",
			Name:      "geocode_failures_total",
			Help:      "Reverse geocode lookups that errored (record still ingested).",
		}),
		DuplicatesPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_alerts",
			Name:      "duplicates_purged_total",
			Help:      "Duplicate fire records deleted by reconciliation.",
		}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fire_alerts",
			Name:      "notifications_sent_total",
			Help:      "Notifications delivered and logged, by event type.",
		}, []string{"event_type"}),
		NotificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_alerts",
			Name:      "notification_failures_total",
			Help:      "Gateway delivery failures (retried on a later cycle).",
		}),
		LoopErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fire_alerts",
			Name:      "loop_errors_total",
			Help:      "Errors caught by the periodic loop supervisors.",
		}, []string{"loop"}),
	}

	reg.MustRegister(
		m.FiresIngested,
		m.FiresSkipped,
		m.GeocodeFailures,
		m.DuplicatesPurged,
		m.NotificationsSent,
		m.NotificationFailures,
		m.LoopErrors,
	)
	return m
}
