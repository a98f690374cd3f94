package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Slideshow pipeline metrics, exposed on /metrics by the API router.
var (
	JobsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slideshow_jobs_submitted_total",
		Help: "Total number of slideshow jobs accepted by the queue.",
	})

	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slideshow_jobs_processed_total",
		Help: "Total number of slideshow jobs that reached a terminal state.",
	}, []string{"status"})

	JobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "slideshow_job_duration_seconds",
		Help:    "Wall-clock duration of slideshow job processing.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})
)
