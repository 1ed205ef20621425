// internal/ws/metrics.go
// Prometheus metrics for websocket streams

package ws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeStreams = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ws_active_streams",
		Help: "Currently open websocket streams, by stream kind",
	}, []string{"stream"})

	deliveredEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_delivered_events_total",
		Help: "Events written to websocket peers, by stream kind",
	}, []string{"stream"})
)
