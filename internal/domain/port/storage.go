package port

import "context"

// FrameStore persists an extracted frame image and returns its public URL.
type FrameStore interface {
	StoreFrame(ctx context.Context, objectKey string, filePath string) (string, error)
}

// ReportStore persists a rendered HTML report and returns its public URL.
type ReportStore interface {
	StoreReport(ctx context.Context, objectKey string, html []byte) (string, error)
}
