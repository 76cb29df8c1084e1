package entity

import "github.com/google/uuid"

// CaptureRequestMessage is the inbound message from the capture.request queue.
// MaxFrames and IntervalSeconds are optional; zero means "use the worker
// defaults".
type CaptureRequestMessage struct {
	JobID           uuid.UUID `json:"job_id"`
	VideoURL        string    `json:"video_url"`
	MaxFrames       int       `json:"max_frames,omitempty"`
	IntervalSeconds int       `json:"interval_seconds,omitempty"`
	UserEmail       string    `json:"user_email,omitempty"`
}

// CaptureStatusMessage is the outbound message published to the capture.status
// queue after every attempt.
type CaptureStatusMessage struct {
	JobID         uuid.UUID `json:"job_id"`
	Status        JobStatus `json:"status"`
	VideoID       string    `json:"video_id,omitempty"`
	VideoURL      string    `json:"video_url"`
	ReportKey     string    `json:"report_key,omitempty"`
	FrameCount    int       `json:"frame_count,omitempty"`
	FallbackCount int       `json:"fallback_count,omitempty"`
	Duration      float64   `json:"duration_seconds,omitempty"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	Attempt       int       `json:"attempt"`
	MaxAttempts   int       `json:"max_attempts"`
}
