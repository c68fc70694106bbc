package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Triggers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replybot_triggers_total",
			Help: "Trigger events handled, by source, platform and outcome",
		},
		[]string{"source", "platform", "outcome"},
	)

	PipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "replybot_pipeline_duration_seconds",
			Help:    "Time spent resolving and assembling replies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"platform"},
	)

	RepliesPosted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replybot_replies_posted_total",
			Help: "Reply payloads posted to the chat platform",
		},
		[]string{"platform"},
	)

	BlueskyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replybot_bluesky_requests_total",
			Help: "Requests made to the Bluesky API, by endpoint and result",
		},
		[]string{"endpoint", "result"},
	)

	EventsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replybot_events_received_total",
			Help: "Inbound platform events decoded, by source and kind",
		},
		[]string{"source", "kind"},
	)
)

func init() {
	prometheus.MustRegister(Triggers)
	prometheus.MustRegister(PipelineDuration)
	prometheus.MustRegister(RepliesPosted)
	prometheus.MustRegister(BlueskyRequests)
	prometheus.MustRegister(EventsReceived)
}
