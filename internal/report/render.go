package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/framesift/framesift-service/internal/domain/entity"
)

type pageData struct {
	Title         string
	Channel       string
	VideoID       string
	DurationLabel string
	FrameCount    int
	Frames        []frameView
}

type frameView struct {
	entity.StillFrame
	WatchURL string
}

// Render produces the key moments page for a video. Output depends only
// on its inputs, so re-rendering a job overwrites the report in place.
func Render(meta *entity.VideoMetadata, frames []entity.StillFrame) ([]byte, error) {
	data := pageData{
		Title:         meta.Title,
		Channel:       meta.Channel,
		VideoID:       meta.VideoID,
		DurationLabel: entity.FormatTimestamp(meta.DurationSeconds),
		FrameCount:    len(frames),
		Frames:        make([]frameView, 0, len(frames)),
	}
	for _, frame := range frames {
		data.Frames = append(data.Frames, frameView{
			StillFrame: frame,
			WatchURL: fmt.Sprintf("https://www.youtube.com/watch?v=%s&t=%ds",
				meta.VideoID, int(frame.TimestampSeconds)),
		})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

var pageTemplate = template.Must(template.New("report").Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Key moments - {{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 960px; color: #1a1a1a; }
header h1 { margin-bottom: 0.25rem; }
header p { color: #555; margin-top: 0; }
.card { display: flex; gap: 1rem; border: 1px solid #ddd; border-radius: 8px; padding: 1rem; margin: 1rem 0; }
.card .media img { max-width: 320px; border-radius: 4px; display: block; }
.card .media .tile { border-radius: 4px; background-repeat: no-repeat; }
.card .info { flex: 1; }
.timestamp { font-weight: 600; font-size: 1.1rem; text-decoration: none; color: #0b57d0; }
.label { margin: 0.5rem 0 0.25rem; font-size: 1rem; }
.chapter { color: #555; font-size: 0.9rem; }
.context { color: #333; font-size: 0.9rem; font-style: italic; margin-top: 0.5rem; }
.badge { display: inline-block; background: #fce8e6; color: #c5221f; font-size: 0.75rem; padding: 0.15rem 0.5rem; border-radius: 999px; margin-left: 0.5rem; }
</style>
</head>
<body>
<header>
<h1>{{.Title}}</h1>
<p>{{.Channel}} &middot; {{.DurationLabel}} &middot; {{.FrameCount}} key moments</p>
</header>
{{range .Frames}}
<section class="card">
<div class="media">
{{if .TileRect}}<div class="tile" style="width: {{.TileRect.W}}px; height: {{.TileRect.H}}px; background-image: url('{{.ImageURL}}'); background-position: -{{.TileRect.X}}px -{{.TileRect.Y}}px;"></div>
{{else}}<img src="{{.ImageURL}}" alt="{{.Label}}" loading="lazy">
{{end}}</div>
<div class="info">
<a class="timestamp" href="{{.WatchURL}}">{{.TimestampFormatted}}</a>{{if .IsFallback}}<span class="badge">representative image</span>{{end}}
<p class="label">{{.Label}}</p>
{{if .ChapterTitle}}<p class="chapter">Chapter: {{.ChapterTitle}}</p>{{end}}
{{if .TranscriptContext}}<p class="context">&ldquo;{{.TranscriptContext}}&rdquo;</p>{{end}}
</div>
</section>
{{end}}
</body>
</html>
`
