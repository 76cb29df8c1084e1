package port

import (
	"context"

	"github.com/framesift/framesift-service/internal/domain/entity"
)

// MetadataProvider fetches everything the pipeline needs about a video except
// the transcript body: title, channel, duration, chapters, the storyboard
// spec string, and the available caption tracks.
type MetadataProvider interface {
	FetchMetadata(ctx context.Context, videoID string) (*entity.VideoMetadata, error)
}

// TranscriptProvider fetches and parses the transcript for a video given its
// caption track list. An absent transcript is (nil, nil), not an error.
type TranscriptProvider interface {
	FetchTranscript(ctx context.Context, videoID string, tracks []entity.CaptionTrack) ([]entity.TranscriptSegment, error)
}
