package port

import "context"

// FailureNotifier delivers a permanent-failure notice for a capture job.
type FailureNotifier interface {
	NotifyFailure(ctx context.Context, userEmail string, jobID string, videoURL string, errorMsg string) error
}
