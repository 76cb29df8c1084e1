package youtube

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/framesift/framesift-service/internal/domain/entity"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	youtubeapi "google.golang.org/api/youtube/v3"
)

// DataAPIProvider layers the official Data API over the scraper. The API
// has the authoritative title, channel, description, and duration, but it
// never exposes storyboard specs or caption track URLs, so the scraped
// metadata stays the base.
type DataAPIProvider struct {
	svc     *youtubeapi.Service
	scraper *Scraper
	logger  *zap.Logger
}

func NewDataAPIProvider(ctx context.Context, apiKey string, scraper *Scraper, logger *zap.Logger) (*DataAPIProvider, error) {
	svc, err := youtubeapi.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &DataAPIProvider{svc: svc, scraper: scraper, logger: logger}, nil
}

func (p *DataAPIProvider) FetchMetadata(ctx context.Context, videoID string) (*entity.VideoMetadata, error) {
	meta, err := p.scraper.FetchMetadata(ctx, videoID)
	if err != nil {
		return nil, err
	}

	resp, err := p.svc.Videos.List([]string{"snippet", "contentDetails"}).Id(videoID).Context(ctx).Do()
	if err != nil || len(resp.Items) == 0 {
		p.logger.Warn("data api lookup failed, using scraped metadata",
			zap.String("video_id", videoID),
			zap.Error(err),
		)
		return meta, nil
	}

	item := resp.Items[0]
	meta.Title = item.Snippet.Title
	meta.Channel = item.Snippet.ChannelTitle
	meta.Description = item.Snippet.Description
	if d, ok := parseISODuration(item.ContentDetails.Duration); ok && d > 0 {
		meta.DurationSeconds = d
	}
	meta.Chapters = ParseChapters(meta.Description, meta.DurationSeconds)
	return meta, nil
}

var isoDurationPattern = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

func parseISODuration(iso string) (float64, bool) {
	m := isoDurationPattern.FindStringSubmatch(iso)
	if m == nil {
		return 0, false
	}

	total := 0
	for i, mult := range []int{86400, 3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, false
		}
		total += n * mult
	}
	return float64(total), true
}
