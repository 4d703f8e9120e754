package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxEventsDeadLetter  prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram

	NotificationsDelivered *prometheus.CounterVec
	NotificationsFailed    *prometheus.CounterVec

	AppointmentsBooked    prometheus.Counter
	AppointmentsCancelled prometheus.Counter
	BookingConflicts      prometheus.Counter

	DatabaseOperations *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	return &Metrics{
		OutboxEventsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_processed_total",
			Help:      "The total number of processed outbox events",
		}),
		OutboxEventsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_failed_total",
			Help:      "The total number of failed outbox events",
		}),
		OutboxEventsDeadLetter: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_deadletter_total",
			Help:      "Events moved to the dead-letter table after retry exhaustion",
		}),
		OutboxProcessingLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Time spent processing an outbox batch",
			Buckets:   prometheus.DefBuckets,
		}),
		NotificationsDelivered: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_delivered_total",
			Help:      "Delivered notifications by channel",
		}, []string{"channel"}),
		NotificationsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Failed notification deliveries by channel",
		}, []string{"channel"}),
		AppointmentsBooked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_booked_total",
			Help:      "Successfully booked appointments",
		}),
		AppointmentsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_cancelled_total",
			Help:      "Cancelled appointments",
		}),
		BookingConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conflicts_total",
			Help:      "Booking attempts rejected because the slot was taken",
		}),
		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Database operations by name and result",
		}, []string{"operation", "result"}),
	}
}
