package entity

// Chapter is a labeled marker on the video timeline, ascending by start.
type Chapter struct {
	Title        string  `json:"title"`
	StartSeconds float64 `json:"start_seconds"`
}

// TranscriptSegment is one spoken segment, ascending by start.
type TranscriptSegment struct {
	Text            string  `json:"text"`
	StartSeconds    float64 `json:"start_seconds"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// CaptionTrack describes an available subtitle track on the platform.
type CaptionTrack struct {
	Language string `json:"language"`
	URL      string `json:"url"`
	Kind     string `json:"kind"`
}

// VideoMetadata is the aggregate scraped (or API-fetched) description of a
// video: everything the capture pipeline needs besides the transcript body.
type VideoMetadata struct {
	VideoID         string         `json:"video_id"`
	Title           string         `json:"title"`
	Channel         string         `json:"channel"`
	Description     string         `json:"description"`
	DurationSeconds float64        `json:"duration_seconds"`
	Chapters        []Chapter      `json:"chapters,omitempty"`
	StoryboardSpec  string         `json:"storyboard_spec,omitempty"`
	CaptionTracks   []CaptionTrack `json:"caption_tracks,omitempty"`
}
