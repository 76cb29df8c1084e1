package entity

import "fmt"

// Relevance names the heuristic that proposed a capture timestamp.
type Relevance string

const (
	RelevanceVisualCue       Relevance = "visual_cue"
	RelevanceChapterStart    Relevance = "chapter_start"
	RelevanceTopicTransition Relevance = "topic_transition"
	RelevanceInterval        Relevance = "interval"
)

// Priority returns the tie-break rank for this relevance, 1 (highest) to 4
// (lowest). The rank is fixed per relevance and is never stored separately.
func (r Relevance) Priority() int {
	switch r {
	case RelevanceVisualCue:
		return 1
	case RelevanceChapterStart:
		return 2
	case RelevanceTopicTransition:
		return 3
	default:
		return 4
	}
}

// TimestampCandidate is a proposed moment worth capturing, before it has been
// resolved to an actual image.
type TimestampCandidate struct {
	Seconds           float64
	Label             string
	Relevance         Relevance
	TranscriptContext string
	ChapterTitle      string
}

// FormatTimestamp renders a position in seconds as M:SS or H:MM:SS.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
