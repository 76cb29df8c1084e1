package port

import "context"

// FrameExtractor is the exact-extraction capability: resolve the video stream,
// grab the frame nearest the timestamp, store the image, and return a stable
// locator URL. Implementations must surface every failure mode (missing tool,
// network error, malformed output) as a single error and answer within a
// bounded time; the resolver treats any error as a tier miss.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, videoID string, seconds float64) (string, error)
}
