package resolver

import (
	"context"
	"fmt"

	"github.com/framesift/framesift-service/internal/domain/entity"
	"github.com/framesift/framesift-service/internal/domain/port"
	"github.com/framesift/framesift-service/internal/infra/metrics"
	"github.com/framesift/framesift-service/internal/storyboard"
	"go.uber.org/zap"
)

// thumbnailURLFormat is the generic per-video thumbnail. It is independent of
// the timestamp and assumed to always resolve; keep the exact shape for
// compatibility with downstream consumers.
const thumbnailURLFormat = "https://i.ytimg.com/vi/%s/hqdefault.jpg"

// tierResult is the uniform success payload of one acquisition tier.
type tierResult struct {
	imageURL   string
	tileRect   *entity.TileRect
	isFallback bool
}

// tier is one strategy for turning a timestamp into an image: try, else the
// chain continues. A false return is a miss, never an error.
type tier interface {
	name() string
	attempt(ctx context.Context, c entity.TimestampCandidate) (tierResult, bool)
}

// Resolver runs every candidate through the acquisition chain: exact
// extraction, then the nearest storyboard tile, then the generic thumbnail.
// The final tier cannot fail, so every candidate yields a frame.
type Resolver struct {
	extractor port.FrameExtractor
	logger    *zap.Logger
}

func New(extractor port.FrameExtractor, logger *zap.Logger) *Resolver {
	return &Resolver{extractor: extractor, logger: logger}
}

// Resolve produces exactly one StillFrame per candidate, in candidate order.
// The storyboard spec is decoded once per call, not per candidate. Candidates
// are processed sequentially: the exact tier shells out to an external
// resource-heavy process that must not run with unbounded parallelism. A
// failure on one candidate never affects another.
func (r *Resolver) Resolve(ctx context.Context, videoID string, storyboardSpec string, candidates []entity.TimestampCandidate) []entity.StillFrame {
	tiles := storyboard.Decode(storyboardSpec)

	tiers := []tier{
		&exactTier{videoID: videoID, extractor: r.extractor, logger: r.logger},
		&storyboardTier{tiles: tiles},
		&thumbnailTier{videoID: videoID},
	}

	frames := make([]entity.StillFrame, 0, len(candidates))
	for _, c := range candidates {
		frames = append(frames, resolveOne(ctx, tiers, c))
	}
	return frames
}

func resolveOne(ctx context.Context, tiers []tier, c entity.TimestampCandidate) entity.StillFrame {
	frame := entity.StillFrame{
		TimestampSeconds:   c.Seconds,
		TimestampFormatted: entity.FormatTimestamp(c.Seconds),
		Label:              c.Label,
		Relevance:          c.Relevance,
		TranscriptContext:  c.TranscriptContext,
		ChapterTitle:       c.ChapterTitle,
	}
	for _, t := range tiers {
		res, ok := t.attempt(ctx, c)
		if !ok {
			continue
		}
		frame.ImageURL = res.imageURL
		frame.TileRect = res.tileRect
		frame.IsFallback = res.isFallback
		metrics.FramesResolvedTotal.WithLabelValues(t.name()).Inc()
		break
	}
	return frame
}

type exactTier struct {
	videoID   string
	extractor port.FrameExtractor
	logger    *zap.Logger
}

func (t *exactTier) name() string { return "exact" }

func (t *exactTier) attempt(ctx context.Context, c entity.TimestampCandidate) (tierResult, bool) {
	if t.extractor == nil {
		return tierResult{}, false
	}
	locator, err := t.extractor.ExtractFrame(ctx, t.videoID, c.Seconds)
	if err != nil {
		if t.logger != nil {
			t.logger.Debug("exact extraction missed, falling through",
				zap.String("video_id", t.videoID),
				zap.Float64("seconds", c.Seconds),
				zap.Error(err),
			)
		}
		return tierResult{}, false
	}
	return tierResult{imageURL: locator}, true
}

type storyboardTier struct {
	tiles []storyboard.Tile
}

func (t *storyboardTier) name() string { return "storyboard" }

func (t *storyboardTier) attempt(_ context.Context, c entity.TimestampCandidate) (tierResult, bool) {
	tile, ok := storyboard.Nearest(t.tiles, c.Seconds)
	if !ok {
		return tierResult{}, false
	}
	rect := tile.Rect
	return tierResult{imageURL: tile.URL, tileRect: &rect}, true
}

type thumbnailTier struct {
	videoID string
}

func (t *thumbnailTier) name() string { return "thumbnail" }

func (t *thumbnailTier) attempt(_ context.Context, _ entity.TimestampCandidate) (tierResult, bool) {
	return tierResult{
		imageURL:   fmt.Sprintf(thumbnailURLFormat, t.videoID),
		isFallback: true,
	}, true
}
