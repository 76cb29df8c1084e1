package ytdlp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/framesift/framesift-service/internal/domain/port"
	"go.uber.org/zap"
)

// Extractor grabs single frames from a video without downloading it.
// yt-dlp resolves a direct stream URL once per video, then ffmpeg seeks
// into the stream and writes exactly one frame per request.
type Extractor struct {
	ytDlpPath  string
	ffmpegPath string
	format     string
	tempDir    string
	timeout    time.Duration
	store      port.FrameStore
	logger     *zap.Logger

	mu         sync.Mutex
	streamURLs map[string]string
}

type ExtractorConfig struct {
	YtDlpPath   string
	FFmpegPath  string
	FrameFormat string
	TempDir     string
	TimeoutSecs int
}

func NewExtractor(cfg ExtractorConfig, store port.FrameStore, logger *zap.Logger) *Extractor {
	return &Extractor{
		ytDlpPath:  cfg.YtDlpPath,
		ffmpegPath: cfg.FFmpegPath,
		format:     cfg.FrameFormat,
		tempDir:    cfg.TempDir,
		timeout:    time.Duration(cfg.TimeoutSecs) * time.Second,
		store:      store,
		logger:     logger,
		streamURLs: make(map[string]string),
	}
}

func (e *Extractor) ExtractFrame(ctx context.Context, videoID string, seconds float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	streamURL, err := e.resolveStreamURL(ctx, videoID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(e.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}

	frameName := fmt.Sprintf("%s_%d.%s", videoID, int64(seconds*1000), e.format)
	framePath := filepath.Join(e.tempDir, frameName)
	defer os.Remove(framePath)

	cmd := exec.CommandContext(ctx, e.ffmpegPath,
		"-ss", fmt.Sprintf("%.3f", seconds),
		"-i", streamURL,
		"-frames:v", "1",
		"-q:v", "2",
		"-y",
		framePath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg error: %w, output: %s", err, string(output))
	}
	if _, err := os.Stat(framePath); err != nil {
		return "", fmt.Errorf("no frame written at %.3fs: %w", seconds, err)
	}

	objectKey := fmt.Sprintf("%s/%d.%s", videoID, int64(seconds*1000), e.format)
	locator, err := e.store.StoreFrame(ctx, objectKey, framePath)
	if err != nil {
		return "", fmt.Errorf("store frame: %w", err)
	}

	e.logger.Debug("frame extracted",
		zap.String("video_id", videoID),
		zap.Float64("seconds", seconds),
		zap.String("object_key", objectKey),
	)
	return locator, nil
}

// resolveStreamURL shells out to yt-dlp once per video and caches the
// result. Stream URLs expire after a few hours, well past job lifetime.
func (e *Extractor) resolveStreamURL(ctx context.Context, videoID string) (string, error) {
	e.mu.Lock()
	if cached, ok := e.streamURLs[videoID]; ok {
		e.mu.Unlock()
		return cached, nil
	}
	e.mu.Unlock()

	cmd := exec.CommandContext(ctx, e.ytDlpPath,
		"-g",
		"-f", "best[height<=720]",
		"--no-playlist",
		"https://www.youtube.com/watch?v="+videoID,
	)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("yt-dlp resolve stream: %w", err)
	}

	streamURL := strings.TrimSpace(string(output))
	if idx := strings.IndexByte(streamURL, '\n'); idx >= 0 {
		streamURL = strings.TrimSpace(streamURL[:idx])
	}
	if streamURL == "" {
		return "", fmt.Errorf("yt-dlp returned no stream url for %s", videoID)
	}

	e.mu.Lock()
	e.streamURLs[videoID] = streamURL
	e.mu.Unlock()
	return streamURL, nil
}
