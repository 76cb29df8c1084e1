package api

import (
	"time"

	"github.com/framesift/framesift-service/internal/domain/entity"
)

type createCaptureRequest struct {
	URL             string `json:"url"`
	MaxFrames       int    `json:"max_frames,omitempty"`
	IntervalSeconds int    `json:"interval_seconds,omitempty"`
	Email           string `json:"email,omitempty"`
}

type captureResponse struct {
	JobID         string     `json:"job_id"`
	Status        string     `json:"status"`
	VideoID       string     `json:"video_id,omitempty"`
	VideoURL      string     `json:"video_url"`
	FrameCount    int        `json:"frame_count"`
	FallbackCount int        `json:"fallback_count"`
	Duration      float64    `json:"duration_seconds,omitempty"`
	ReportURL     string     `json:"report_url,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	Attempt       int        `json:"attempt"`
	MaxAttempts   int        `json:"max_attempts"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) captureView(job *entity.CaptureJob) captureResponse {
	resp := captureResponse{
		JobID:         job.ID.String(),
		Status:        string(job.Status),
		VideoID:       job.VideoID,
		VideoURL:      job.VideoURL,
		FrameCount:    job.FrameCount,
		FallbackCount: job.FallbackCount,
		Duration:      job.VideoDuration,
		ErrorMessage:  job.ErrorMessage,
		Attempt:       job.Attempt,
		MaxAttempts:   job.MaxAttempts,
		CreatedAt:     job.CreatedAt,
		UpdatedAt:     job.UpdatedAt,
		CompletedAt:   job.CompletedAt,
	}
	if job.Status == entity.JobStatusCompleted && job.ReportKey != "" {
		resp.ReportURL = h.reports.ReportURL(job.ReportKey)
	}
	return resp
}
