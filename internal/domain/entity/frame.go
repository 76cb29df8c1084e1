package entity

// TileRect is a sub-region of a storyboard sheet, in pixels.
type TileRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// StillFrame is the resolved output for one candidate. ImageURL is always
// populated; TileRect is present only when the frame came from a storyboard
// tile, and IsFallback is true only when it came from the generic thumbnail.
type StillFrame struct {
	TimestampSeconds   float64   `json:"timestamp_seconds"`
	TimestampFormatted string    `json:"timestamp_formatted"`
	Label              string    `json:"label"`
	Relevance          Relevance `json:"relevance"`
	TranscriptContext  string    `json:"transcript_context,omitempty"`
	ChapterTitle       string    `json:"chapter_title,omitempty"`
	ImageURL           string    `json:"image_url"`
	TileRect           *TileRect `json:"tile_rect,omitempty"`
	IsFallback         bool      `json:"is_fallback,omitempty"`
}
