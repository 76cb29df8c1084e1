package entity

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a capture job. Jobs move
// PENDING -> PROCESSING -> COMPLETED or FAILED; a retried job goes back
// through PROCESSING with its attempt counter bumped.
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// CaptureJob tracks one video-URL → key-moment-report run through the worker.
type CaptureJob struct {
	ID            uuid.UUID
	VideoID       string
	VideoURL      string
	ReportKey     string
	Status        JobStatus
	FrameCount    int
	FallbackCount int
	VideoDuration float64
	Attempt       int
	MaxAttempts   int
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

// NewCaptureJob returns a pending job for videoURL. The video ID is filled
// in by the worker once the URL has been parsed.
func NewCaptureJob(videoURL string, maxAttempts int) *CaptureJob {
	j := &CaptureJob{
		ID:          uuid.New(),
		VideoURL:    videoURL,
		Status:      JobStatusPending,
		MaxAttempts: maxAttempts,
	}
	j.CreatedAt = time.Now().UTC()
	j.UpdatedAt = j.CreatedAt
	return j
}

func (j *CaptureJob) touch() {
	j.UpdatedAt = time.Now().UTC()
}

// MarkProcessing starts the next attempt.
func (j *CaptureJob) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.touch()
}

// MarkCompleted records the stored report and the frame tallies. fallbackCount
// counts frames that degraded to the generic thumbnail tier.
func (j *CaptureJob) MarkCompleted(reportKey string, frameCount, fallbackCount int, duration float64) {
	j.Status = JobStatusCompleted
	j.ReportKey = reportKey
	j.FrameCount = frameCount
	j.FallbackCount = fallbackCount
	j.VideoDuration = duration
	j.ErrorMessage = ""
	j.touch()
	done := j.UpdatedAt
	j.CompletedAt = &done
}

// MarkFailed records the failure. A job with attempts left keeps FAILED
// only until the redelivered message marks it PROCESSING again.
func (j *CaptureJob) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.touch()
}

// CanRetry reports whether another attempt is allowed.
func (j *CaptureJob) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
