package report

import (
	"testing"

	"github.com/framesift/framesift-service/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrames() (*entity.VideoMetadata, []entity.StillFrame) {
	meta := &entity.VideoMetadata{
		VideoID:         "dQw4w9WgXcQ",
		Title:           "A <Great> Talk",
		Channel:         "Conf Channel",
		DurationSeconds: 630,
	}
	frames := []entity.StillFrame{
		{
			TimestampSeconds:   5,
			TimestampFormatted: "0:05",
			Label:              "Intro",
			Relevance:          entity.RelevanceChapterStart,
			ChapterTitle:       "Intro",
			ImageURL:           "http://cdn.example.com/frames/dQw4w9WgXcQ/5000.jpg",
		},
		{
			TimestampSeconds:   305,
			TimestampFormatted: "5:05",
			Label:              "as you can see the numbers drop",
			Relevance:          entity.RelevanceVisualCue,
			TranscriptContext:  "as you can see the numbers drop",
			ImageURL:           "https://img.example.com/sb/M0.jpg?sigh=sig",
			TileRect:           &entity.TileRect{X: 160, Y: 90, W: 160, H: 90},
		},
		{
			TimestampSeconds:   600,
			TimestampFormatted: "10:00",
			Label:              "Interval frame at 10:00",
			Relevance:          entity.RelevanceInterval,
			ImageURL:           "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg",
			IsFallback:         true,
		},
	}
	return meta, frames
}

func TestRender(t *testing.T) {
	meta, frames := sampleFrames()

	page, err := Render(meta, frames)
	require.NoError(t, err)
	html := string(page)

	// Title is escaped, not truncated.
	assert.Contains(t, html, "A &lt;Great&gt; Talk")
	assert.Contains(t, html, "Conf Channel")
	assert.Contains(t, html, "3 key moments")

	// Plain frame renders an img tag with a seek link.
	assert.Contains(t, html, `<img src="http://cdn.example.com/frames/dQw4w9WgXcQ/5000.jpg"`)
	assert.Contains(t, html, "https://www.youtube.com/watch?v=dQw4w9WgXcQ&amp;t=5s")

	// Storyboard frame crops the sprite sheet with background positioning.
	assert.Contains(t, html, "background-position: -160px -90px")
	assert.Contains(t, html, "width: 160px")
	assert.Contains(t, html, "&amp;t=305s")

	// Fallback frame is badged.
	assert.Contains(t, html, "representative image")
	assert.Contains(t, html, "hqdefault.jpg")

	// Context and chapter lines show up where present.
	assert.Contains(t, html, "as you can see the numbers drop")
	assert.Contains(t, html, "Chapter: Intro")
}

func TestRenderDeterministic(t *testing.T) {
	meta, frames := sampleFrames()

	first, err := Render(meta, frames)
	require.NoError(t, err)
	second, err := Render(meta, frames)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestRenderNoFrames(t *testing.T) {
	meta := &entity.VideoMetadata{VideoID: "dQw4w9WgXcQ", Title: "Empty", DurationSeconds: 8}

	page, err := Render(meta, nil)
	require.NoError(t, err)
	assert.Contains(t, string(page), "0 key moments")
	assert.NotContains(t, string(page), "<section")
}
