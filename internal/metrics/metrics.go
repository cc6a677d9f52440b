// Package metrics defines the Prometheus instruments shared by the API
// server and the enrichment workers. Everything registers on the default
// registry and is served by promhttp.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion
	IngestRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidshelf_ingest_requests_total",
			Help: "Bulk ingest submissions by result.",
		},
		[]string{"result"}, // accepted, invalid, error
	)

	IngestEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidshelf_ingest_entries_total",
			Help: "Individual list entries by disposition.",
		},
		[]string{"disposition"}, // new, duplicate, rejected
	)

	// Enrichment pipeline
	VideoJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidshelf_video_jobs_total",
			Help: "Finished per-video enrichment jobs by terminal status.",
		},
		[]string{"status"}, // done, error, canceled
	)

	VideoJobsInflight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidshelf_video_jobs_inflight",
			Help: "Video jobs currently claimed by this process.",
		},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidshelf_stage_duration_seconds",
			Help:    "Wall time per pipeline stage.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		},
		[]string{"stage", "outcome"}, // outcome: success, failure, timeout, canceled
	)

	StageRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidshelf_stage_retries_total",
			Help: "Stage attempt retries by stage.",
		},
		[]string{"stage"},
	)

	StalledJobsReclaimedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidshelf_stalled_jobs_reclaimed_total",
			Help: "Claimed video jobs returned to pending by the stall reaper.",
		},
	)

	// External sources
	SourceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidshelf_source_requests_total",
			Help: "Upstream source calls by source and outcome.",
		},
		[]string{"source", "outcome"}, // source: youtube_api, ytdlp, stt
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vidshelf_breaker_state",
			Help: "Circuit breaker state per source (0 closed, 1 half-open, 2 open).",
		},
		[]string{"source"},
	)

	// Progress delivery
	ProgressEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidshelf_progress_events_total",
			Help: "Progress events recorded, by stage.",
		},
		[]string{"stage"},
	)

	ProgressEventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidshelf_progress_events_dropped_total",
			Help: "Progress events not delivered to a live socket, by reason.",
		},
		[]string{"reason"}, // backpressure, no_subscriber, publish_error
	)

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidshelf_ws_connections",
			Help: "Authenticated WebSocket connections currently open.",
		},
	)

	// HTTP
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidshelf_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveStage records one stage attempt.
func ObserveStage(stage, outcome string, start time.Time) {
	StageDuration.WithLabelValues(stage, outcome).Observe(time.Since(start).Seconds())
}
