package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/framesift/framesift-service/internal/domain/entity"
	"github.com/framesift/framesift-service/internal/domain/port"
	"go.uber.org/zap"
)

// TranscriptFetcher downloads a caption track in timedtext XML form and
// flattens it into ordered transcript segments.
type TranscriptFetcher struct {
	client    *http.Client
	userAgent string
	cache     port.ScrapeCache
	logger    *zap.Logger
}

func NewTranscriptFetcher(client *http.Client, userAgent string, cache port.ScrapeCache, logger *zap.Logger) *TranscriptFetcher {
	return &TranscriptFetcher{client: client, userAgent: userAgent, cache: cache, logger: logger}
}

type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Texts   []struct {
		Start float64 `xml:"start,attr"`
		Dur   float64 `xml:"dur,attr"`
		Body  string  `xml:",chardata"`
	} `xml:"text"`
}

func (t *TranscriptFetcher) FetchTranscript(ctx context.Context, videoID string, tracks []entity.CaptionTrack) ([]entity.TranscriptSegment, error) {
	track, ok := pickTrack(tracks)
	if !ok {
		return nil, nil
	}

	raw, err := t.trackXML(ctx, videoID, track.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch caption track: %w", err)
	}

	var doc timedText
	if err := xml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("parse timedtext: %w", err)
	}

	segments := make([]entity.TranscriptSegment, 0, len(doc.Texts))
	for _, text := range doc.Texts {
		// Caption bodies arrive double-escaped (&amp;#39; and friends).
		body := strings.TrimSpace(html.UnescapeString(html.UnescapeString(text.Body)))
		body = strings.Join(strings.Fields(body), " ")
		if body == "" {
			continue
		}
		segments = append(segments, entity.TranscriptSegment{
			Text:            body,
			StartSeconds:    text.Start,
			DurationSeconds: text.Dur,
		})
	}

	t.logger.Debug("transcript fetched",
		zap.String("video_id", videoID),
		zap.String("language", track.Language),
		zap.Int("segments", len(segments)),
	)
	return segments, nil
}

func (t *TranscriptFetcher) trackXML(ctx context.Context, videoID, trackURL string) (string, error) {
	cacheKey := "transcript:" + videoID
	if t.cache != nil {
		if raw, ok := t.cache.Get(ctx, cacheKey); ok {
			return raw, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.client.Do(req)
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
	raw := string(body)

	if t.cache != nil {
		t.cache.Set(ctx, cacheKey, raw)
	}
	return raw, nil
}

// pickTrack prefers manually authored English captions, then any English,
// then whatever track comes first.
func pickTrack(tracks []entity.CaptionTrack) (entity.CaptionTrack, bool) {
	if len(tracks) == 0 {
		return entity.CaptionTrack{}, false
	}

	isEnglish := func(lang string) bool {
		return lang == "en" || strings.HasPrefix(lang, "en-")
	}

	for _, track := range tracks {
		if isEnglish(track.Language) && track.Kind != "asr" {
			return track, true
		}
	}
	for _, track := range tracks {
		if isEnglish(track.Language) {
			return track, true
		}
	}
	return tracks[0], true
}
