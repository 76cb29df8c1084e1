package port

import (
	"context"

	"github.com/framesift/framesift-service/internal/domain/entity"
)

type FrameResolver interface {
	Resolve(ctx context.Context, videoID string, storyboardSpec string, candidates []entity.TimestampCandidate) []entity.StillFrame
}
