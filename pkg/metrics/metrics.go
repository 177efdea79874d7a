package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Outbox related metrics
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram
	OutboxRetries           *prometheus.CounterVec

	// Booking metrics
	SlotComputations     *prometheus.CounterVec
	SlotComputeLatency   prometheus.Histogram
	AppointmentsBooked   prometheus.Counter
	AppointmentConflicts *prometheus.CounterVec

	// Database metrics
	DatabaseOperations *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics creates all application metrics and registers them with reg.
// A nil registerer leaves them unregistered, which keeps tests independent.
func NewMetrics(namespace, subsystem string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OutboxEventsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_events_processed_total",
			Help:      "Total number of successfully processed outbox events",
		}),
		OutboxEventsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_events_failed_total",
			Help:      "Total number of failed outbox events",
		}),
		OutboxProcessingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Time spent processing outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		OutboxRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_retry_attempts_total",
			Help:      "Total number of retry attempts for outbox events",
		}, []string{"event_type"}),

		SlotComputations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "slot_computations_total",
			Help:      "Number of day-slot computations, by whether any slot was offered",
		}, []string{"result"}),
		SlotComputeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "slot_compute_duration_seconds",
			Help:      "Time to load bookings and compute a day's slots",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		AppointmentsBooked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "appointments_booked_total",
			Help:      "Total number of appointments booked",
		}),
		AppointmentConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "appointment_rejections_total",
			Help:      "Booking attempts rejected, by reason",
		}, []string{"reason"}),

		DatabaseOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),

		RedisOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "redis_operations_total",
			Help:      "Total number of Redis operations",
		}, []string{"operation", "status"}),

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.OutboxEventsProcessed,
			m.OutboxEventsFailed,
			m.OutboxProcessingLatency,
			m.OutboxRetries,
			m.SlotComputations,
			m.SlotComputeLatency,
			m.AppointmentsBooked,
			m.AppointmentConflicts,
			m.DatabaseOperations,
			m.RedisOperations,
			m.HTTPRequests,
			m.HTTPDuration,
		)
	}
	return m
}

// New returns unregistered metrics under namespace.
func New(namespace string) *Metrics {
	return NewMetrics(namespace, "", nil)
}
