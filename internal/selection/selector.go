package selection

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/framesift/framesift-service/internal/domain/entity"
)

const (
	// dedupRadiusSeconds is the window within which only the
	// highest-priority candidate survives.
	dedupRadiusSeconds = 10.0

	// chapterSkipSeconds offsets chapter candidates past the chapter start
	// to skip title-card and transition frames.
	chapterSkipSeconds = 5.0

	// topicGapSeconds is the silence gap between adjacent transcript
	// segments that marks a topic transition.
	topicGapSeconds = 3.0

	// minIntervalSeconds floors the interval-pass cadence.
	minIntervalSeconds = 10

	// endMarginSeconds keeps interval candidates clear of the very end.
	endMarginSeconds = 5.0

	labelMaxRunes   = 80
	contextMaxRunes = 200

	// contextWindowSeconds bounds how far from a candidate the nearest
	// transcript segment may start and still count as context.
	contextWindowSeconds = 15.0
)

// visualCuePatterns match spoken phrases that signal "look at the screen now".
// The first matching pattern per segment wins.
var visualCuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)as you can see`),
	regexp.MustCompile(`(?i)let me show you`),
	regexp.MustCompile(`(?i)let'?s (take a )?look`),
	regexp.MustCompile(`(?i)take a look at`),
	regexp.MustCompile(`(?i)(if you|you can) look at`),
	regexp.MustCompile(`(?i)this (diagram|chart|graph|slide|figure|screenshot|image)`),
	regexp.MustCompile(`(?i)on (the|your) screen`),
	regexp.MustCompile(`(?i)shown here`),
	regexp.MustCompile(`(?i)here (you can see|we have|we see)`),
}

// Select turns the video timeline into an ordered set of capture candidates:
// four independent generation passes, a priority-then-distance dedup, and an
// even-sampling reduction to maxFrames. The result is strictly increasing in
// seconds and at most maxFrames long. It is empty when the duration is
// non-positive or when every pass comes up empty (for example a video shorter
// than the interval with no chapters and no transcript); callers treat that
// as "no frames requested", not as an error.
func Select(durationSeconds float64, chapters []entity.Chapter, transcript []entity.TranscriptSegment, maxFrames, intervalSeconds int) []entity.TimestampCandidate {
	if durationSeconds <= 0 || maxFrames <= 0 {
		return nil
	}

	var candidates []entity.TimestampCandidate
	candidates = append(candidates, visualCueCandidates(transcript, chapters)...)
	candidates = append(candidates, chapterCandidates(durationSeconds, chapters, transcript)...)
	candidates = append(candidates, topicTransitionCandidates(transcript, chapters)...)
	candidates = append(candidates, intervalCandidates(durationSeconds, intervalSeconds, chapters, transcript)...)

	kept := dedupe(candidates)
	return sampleEvenly(kept, maxFrames)
}

func visualCueCandidates(transcript []entity.TranscriptSegment, chapters []entity.Chapter) []entity.TimestampCandidate {
	var out []entity.TimestampCandidate
	for _, seg := range transcript {
		for _, pat := range visualCuePatterns {
			if !pat.MatchString(seg.Text) {
				continue
			}
			out = append(out, entity.TimestampCandidate{
				Seconds:           seg.StartSeconds,
				Label:             truncateRunes(seg.Text, labelMaxRunes),
				Relevance:         entity.RelevanceVisualCue,
				TranscriptContext: truncateRunes(seg.Text, contextMaxRunes),
				ChapterTitle:      enclosingChapter(chapters, seg.StartSeconds),
			})
			break
		}
	}
	return out
}

func chapterCandidates(durationSeconds float64, chapters []entity.Chapter, transcript []entity.TranscriptSegment) []entity.TimestampCandidate {
	var out []entity.TimestampCandidate
	for _, ch := range chapters {
		at := math.Min(ch.StartSeconds+chapterSkipSeconds, durationSeconds-1)
		out = append(out, entity.TimestampCandidate{
			Seconds:           at,
			Label:             ch.Title,
			Relevance:         entity.RelevanceChapterStart,
			TranscriptContext: contextAt(transcript, at),
			ChapterTitle:      ch.Title,
		})
	}
	return out
}

func topicTransitionCandidates(transcript []entity.TranscriptSegment, chapters []entity.Chapter) []entity.TimestampCandidate {
	var out []entity.TimestampCandidate
	for i := 1; i < len(transcript); i++ {
		prev, next := transcript[i-1], transcript[i]
		gap := next.StartSeconds - (prev.StartSeconds + prev.DurationSeconds)
		if gap <= topicGapSeconds {
			continue
		}
		out = append(out, entity.TimestampCandidate{
			Seconds:           next.StartSeconds,
			Label:             fmt.Sprintf("Topic transition at %s", entity.FormatTimestamp(next.StartSeconds)),
			Relevance:         entity.RelevanceTopicTransition,
			TranscriptContext: truncateRunes(next.Text, contextMaxRunes),
			ChapterTitle:      enclosingChapter(chapters, next.StartSeconds),
		})
	}
	return out
}

// intervalCandidates is the safety net: a fixed cadence from one interval in
// to endMarginSeconds before the end, generated regardless of how many
// higher-priority candidates exist.
func intervalCandidates(durationSeconds float64, intervalSeconds int, chapters []entity.Chapter, transcript []entity.TranscriptSegment) []entity.TimestampCandidate {
	step := float64(intervalSeconds)
	if step < minIntervalSeconds {
		step = minIntervalSeconds
	}
	var out []entity.TimestampCandidate
	for at := step; at <= durationSeconds-endMarginSeconds; at += step {
		out = append(out, entity.TimestampCandidate{
			Seconds:           at,
			Label:             fmt.Sprintf("Interval frame at %s", entity.FormatTimestamp(at)),
			Relevance:         entity.RelevanceInterval,
			TranscriptContext: contextAt(transcript, at),
			ChapterTitle:      enclosingChapter(chapters, at),
		})
	}
	return out
}

// dedupe sorts by (priority asc, seconds asc) and greedily keeps a candidate
// only if no already-kept candidate lies within the dedup radius, so nearby
// lower-priority candidates lose to higher-priority ones. The survivors come
// back in chronological order.
func dedupe(candidates []entity.TimestampCandidate) []entity.TimestampCandidate {
	sorted := make([]entity.TimestampCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := sorted[i].Relevance.Priority(), sorted[j].Relevance.Priority()
		if pi != pj {
			return pi < pj
		}
		return sorted[i].Seconds < sorted[j].Seconds
	})

	var kept []entity.TimestampCandidate
	for _, c := range sorted {
		collides := false
		for _, k := range kept {
			if math.Abs(c.Seconds-k.Seconds) < dedupRadiusSeconds {
				collides = true
				break
			}
		}
		if !collides {
			kept = append(kept, c)
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Seconds < kept[j].Seconds })
	return kept
}

// sampleEvenly reduces an over-budget list by even index sampling, preserving
// temporal spread instead of truncating. With step > 1 the picked indices are
// strictly increasing, so ordering survives.
func sampleEvenly(candidates []entity.TimestampCandidate, maxFrames int) []entity.TimestampCandidate {
	if len(candidates) <= maxFrames {
		return candidates
	}
	step := float64(len(candidates)) / float64(maxFrames)
	out := make([]entity.TimestampCandidate, 0, maxFrames)
	for i := 0; i < maxFrames; i++ {
		out = append(out, candidates[int(float64(i)*step)])
	}
	return out
}

// enclosingChapter returns the title of the last chapter starting at or
// before the timestamp, or "" when there is none.
func enclosingChapter(chapters []entity.Chapter, seconds float64) string {
	title := ""
	for _, ch := range chapters {
		if ch.StartSeconds > seconds {
			break
		}
		title = ch.Title
	}
	return title
}

// contextAt finds spoken content near a timestamp: the segment covering it,
// or failing that the segment whose start is nearest within the context
// window.
func contextAt(transcript []entity.TranscriptSegment, seconds float64) string {
	best := ""
	bestDist := math.Inf(1)
	for _, seg := range transcript {
		if seg.StartSeconds <= seconds && seconds < seg.StartSeconds+seg.DurationSeconds {
			return truncateRunes(seg.Text, contextMaxRunes)
		}
		dist := math.Abs(seg.StartSeconds - seconds)
		if dist <= contextWindowSeconds && dist < bestDist {
			best = seg.Text
			bestDist = dist
		}
	}
	return truncateRunes(best, contextMaxRunes)
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
