package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_kafka_published_total",
		Help: "Messages published, by topic and outcome.",
	}, []string{"topic", "outcome"})

	publishDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_kafka_publish_duration_seconds",
		Help:    "Time spent writing a message to the broker.",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"})

	consumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_kafka_consumed_total",
		Help: "Messages consumed, by topic and outcome (ok, duplicate, malformed, dead_lettered, dropped).",
	}, []string{"topic", "group", "outcome"})

	handleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_kafka_handle_duration_seconds",
		Help:    "Time spent in the message handler, retries included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic", "group"})
)
