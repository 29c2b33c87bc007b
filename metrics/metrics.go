// Package metrics holds the Prometheus collectors for the overlay backend.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PlaybackEvents counts accepted playback notifications by type
	PlaybackEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "overlay_playback_events_total",
		Help: "Playback notifications applied to the overlay state.",
	}, []string{"type"})

	// StatusTransitions counts changes of the global market status
	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "overlay_status_transitions_total",
		Help: "Market status changes, labelled by the new status.",
	}, []string{"status"})

	// MarketsSuspended is 1 while markets are suspended
	MarketsSuspended = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "overlay_markets_suspended",
		Help: "Whether markets are currently suspended.",
	})

	// Subscribers is the number of live snapshot subscriptions
	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "overlay_subscribers",
		Help: "Open snapshot subscriptions.",
	})

	// DroppedSnapshots counts snapshots discarded for slow subscribers
	DroppedSnapshots = promauto.NewCounter(prometheus.CounterOpts{
		Name: "overlay_dropped_snapshots_total",
		Help: "Snapshots replaced before a slow subscriber read them.",
	})

	// WSConnections is the number of open overlay websockets
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "overlay_ws_connections",
		Help: "Open overlay websocket connections.",
	})

	// HTTPRequests counts requests by route template and status code
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "overlay_http_requests_total",
		Help: "HTTP requests served.",
	}, []string{"method", "route", "code"})

	// HTTPDuration observes request latency by route template
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "overlay_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Handler exposes the metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
