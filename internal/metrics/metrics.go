package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quill",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "quill",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ViewsRecorded counts view increments by how they were executed: queued or inline.
	ViewsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quill",
			Name:      "post_views_recorded_total",
			Help:      "Post view increments applied.",
		},
		[]string{"mode"},
	)

	ViewsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "quill",
			Name:      "post_views_failed_total",
			Help:      "Post view increments that returned an error.",
		},
	)

	ViewQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "quill",
			Name:      "post_view_queue_depth",
			Help:      "Pending view increments waiting for a worker.",
		},
	)

	LikeToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quill",
			Name:      "like_toggles_total",
			Help:      "Like toggles by target and resulting state.",
		},
		[]string{"target", "state"},
	)

	SaveToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quill",
			Name:      "save_toggles_total",
			Help:      "Save toggles by resulting state.",
		},
		[]string{"state"},
	)

	CommentsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "quill",
			Name:      "comments_created_total",
			Help:      "Comments and replies created.",
		},
	)
)

// State renders a toggle outcome as a label value.
func State(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
