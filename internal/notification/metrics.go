package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusDelivered = "delivered"
	statusFailed    = "failed"
	statusSkipped   = "skipped"
)

var (
	deliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_deliveries_total",
			Help: "Notification deliveries per channel and outcome",
		},
		[]string{"sink", "status"},
	)

	droppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_dropped_total",
			Help: "Notifications dropped before delivery",
		},
		[]string{"reason"},
	)

	deliveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notification_delivery_duration_seconds",
			Help:    "Time spent delivering one queued notification",
			Buckets: prometheus.DefBuckets,
		},
	)

	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_queue_depth",
			Help: "Notifications waiting in the dispatch queue",
		},
	)
)

func recordDelivery(sink, status string) {
	deliveriesTotal.WithLabelValues(sink, status).Inc()
}

func recordDropped(reason string) {
	droppedTotal.WithLabelValues(reason).Inc()
}
