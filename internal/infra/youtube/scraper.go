package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/framesift/framesift-service/internal/domain/entity"
	"github.com/framesift/framesift-service/internal/domain/port"
	"go.uber.org/zap"
)

const (
	watchURLPrefix       = "https://www.youtube.com/watch?v="
	playerResponseMarker = "ytInitialPlayerResponse = "
	maxWatchPageBytes    = 20 << 20
	maxFetchAttempts     = 3
	fetchRetryBaseDelay  = 500 * time.Millisecond
)

// Scraper reads video metadata out of the watch page. The embedded player
// response is the only place the storyboard spec and caption track list
// are published, so even the Data API adapter leans on it.
type Scraper struct {
	client    *http.Client
	userAgent string
	cache     port.ScrapeCache
	logger    *zap.Logger
}

func NewScraper(client *http.Client, userAgent string, cache port.ScrapeCache, logger *zap.Logger) *Scraper {
	return &Scraper{client: client, userAgent: userAgent, cache: cache, logger: logger}
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails struct {
		VideoID          string `json:"videoId"`
		Title            string `json:"title"`
		Author           string `json:"author"`
		LengthSeconds    string `json:"lengthSeconds"`
		ShortDescription string `json:"shortDescription"`
	} `json:"videoDetails"`
	Storyboards struct {
		PlayerStoryboardSpecRenderer struct {
			Spec string `json:"spec"`
		} `json:"playerStoryboardSpecRenderer"`
	} `json:"storyboards"`
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []struct {
				BaseURL      string `json:"baseUrl"`
				LanguageCode string `json:"languageCode"`
				Kind         string `json:"kind"`
			} `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

func (s *Scraper) FetchMetadata(ctx context.Context, videoID string) (*entity.VideoMetadata, error) {
	raw, err := s.playerResponseJSON(ctx, videoID)
	if err != nil {
		return nil, err
	}

	var pr playerResponse
	if err := json.Unmarshal([]byte(raw), &pr); err != nil {
		return nil, fmt.Errorf("parse player response: %w", err)
	}

	if pr.VideoDetails.VideoID == "" {
		if pr.PlayabilityStatus.Status != "" && pr.PlayabilityStatus.Status != "OK" {
			return nil, fmt.Errorf("video %s not playable: %s", videoID, pr.PlayabilityStatus.Reason)
		}
		return nil, fmt.Errorf("no video details for %s", videoID)
	}

	duration, _ := strconv.ParseFloat(pr.VideoDetails.LengthSeconds, 64)

	meta := &entity.VideoMetadata{
		VideoID:         pr.VideoDetails.VideoID,
		Title:           pr.VideoDetails.Title,
		Channel:         pr.VideoDetails.Author,
		Description:     pr.VideoDetails.ShortDescription,
		DurationSeconds: duration,
		Chapters:        ParseChapters(pr.VideoDetails.ShortDescription, duration),
		StoryboardSpec:  pr.Storyboards.PlayerStoryboardSpecRenderer.Spec,
	}
	for _, track := range pr.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks {
		meta.CaptionTracks = append(meta.CaptionTracks, entity.CaptionTrack{
			Language: track.LanguageCode,
			URL:      track.BaseURL,
			Kind:     track.Kind,
		})
	}
	return meta, nil
}

func (s *Scraper) playerResponseJSON(ctx context.Context, videoID string) (string, error) {
	cacheKey := "scrape:" + videoID
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, cacheKey); ok {
			return raw, nil
		}
	}

	body, err := s.fetchWatchPage(ctx, videoID)
	if err != nil {
		return "", err
	}

	raw, err := extractPlayerResponse(body)
	if err != nil {
		return "", fmt.Errorf("video %s: %w", videoID, err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, cacheKey, raw)
	}
	return raw, nil
}

func (s *Scraper) fetchWatchPage(ctx context.Context, videoID string) (string, error) {
	var lastErr error
	delay := fetchRetryBaseDelay

	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		body, err := s.get(ctx, watchURLPrefix+videoID)
		if err == nil {
			return body, nil
		}
		lastErr = err
		s.logger.Warn("watch page fetch failed",
			zap.String("video_id", videoID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt == maxFetchAttempts {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		delay *= 2
	}
	return "", fmt.Errorf("fetch watch page: %w", lastErr)
}

func (s *Scraper) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWatchPageBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// extractPlayerResponse locates the inline player response and decodes
// exactly one JSON value from that offset, which stops at the closing
// brace regardless of what script text follows.
func extractPlayerResponse(body string) (string, error) {
	idx := strings.Index(body, playerResponseMarker)
	if idx < 0 {
		return "", fmt.Errorf("player response not found in watch page")
	}

	dec := json.NewDecoder(strings.NewReader(body[idx+len(playerResponseMarker):]))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return "", fmt.Errorf("decode player response: %w", err)
	}
	return string(raw), nil
}
