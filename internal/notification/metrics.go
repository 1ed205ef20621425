// internal/notification/metrics.go
// Prometheus metrics for the fan-out engine

package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	emittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_emitted_total",
		Help: "Notifications created, by event type",
	}, []string{"type"})

	readTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notification_marked_read_total",
		Help: "Notifications flipped from unread to read",
	})
)
