package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transfer metrics
	TransfersExecuted prometheus.Counter
	TransferDuration  prometheus.Histogram
	TransferAmount    prometheus.Histogram
	TransferErrors    *prometheus.CounterVec

	// Account metrics
	AccountsCreated prometheus.Counter

	// Scheduler metrics
	SchedulesCreated  prometheus.Counter
	SchedulesFinished *prometheus.CounterVec
	ScheduleLateness  prometheus.Histogram
	SchedulesArmed    prometheus.Gauge

	// Goal metrics
	GoalContributions prometheus.Counter
	GoalProgressCache *prometheus.CounterVec

	// Outbox metrics
	EventsPublished *prometheus.CounterVec
	PublishErrors   *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		// Transfer metrics
		TransfersExecuted: f.NewCounter(prometheus.CounterOpts{
			Name: "ledger_transfers_executed_total",
			Help: "Total number of committed transfers",
		}),
		TransferDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_transfer_duration_seconds",
			Help:    "Duration of transfer operations",
			Buckets: prometheus.DefBuckets,
		}),
		TransferAmount: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_transfer_amount",
			Help:    "Transfer amounts in minor units",
			Buckets: []float64{1000, 10000, 100000, 1000000, 10000000, 100000000},
		}),
		TransferErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_transfer_errors_total",
				Help: "Total number of transfer errors by type",
			},
			[]string{"error_type"},
		),

		// Account metrics
		AccountsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "ledger_accounts_created_total",
			Help: "Total number of accounts created",
		}),

		// Scheduler metrics
		SchedulesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "ledger_schedules_created_total",
			Help: "Total number of scheduled transfers accepted",
		}),
		SchedulesFinished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_schedules_finished_total",
				Help: "Scheduled transfers leaving PENDING by final status",
			},
			[]string{"status"},
		),
		ScheduleLateness: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_schedule_lateness_seconds",
			Help:    "Delay between fire time and execution",
			Buckets: []float64{.01, .1, 1, 10, 60, 600, 3600, 86400},
		}),
		SchedulesArmed: f.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_schedules_armed",
			Help: "In-process timers waiting to fire",
		}),

		// Goal metrics
		GoalContributions: f.NewCounter(prometheus.CounterOpts{
			Name: "ledger_goal_contributions_total",
			Help: "Total number of goal contributions",
		}),
		GoalProgressCache: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_goal_progress_cache_total",
				Help: "Goal progress cache lookups by result",
			},
			[]string{"result"},
		),

		// Outbox metrics
		EventsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_events_published_total",
				Help: "Outbox events published by type",
			},
			[]string{"event_type"},
		),
		PublishErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_event_publish_errors_total",
				Help: "Outbox publish failures by type",
			},
			[]string{"event_type"},
		),

		// API metrics
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
	}
}
