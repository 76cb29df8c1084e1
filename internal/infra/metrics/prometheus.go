package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framesift_jobs_processed_total",
		Help: "Total number of capture jobs processed, by status",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "framesift_stage_duration_seconds",
		Help:    "Duration of capture pipeline stages",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	CandidatesSelectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framesift_candidates_selected_total",
		Help: "Total number of capture candidates selected, by relevance",
	}, []string{"relevance"})

	FramesResolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framesift_frames_resolved_total",
		Help: "Total number of frames resolved, by acquisition tier",
	}, []string{"tier"})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "framesift_active_workers",
		Help: "Number of currently active workers processing jobs",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framesift_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
