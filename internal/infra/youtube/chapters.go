package youtube

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/framesift/framesift-service/internal/domain/entity"
)

var chapterLinePattern = regexp.MustCompile(`^\s*(?:[-*\x{2022}]\s*)?(?:\[)?(\d{1,2}:)?(\d{1,2}):(\d{2})(?:\])?\s*[-\x{2013}\x{2014}]?\s*(.+?)\s*$`)

// ParseChapters pulls chapter markers out of a video description. YouTube
// only treats a description as chaptered when the list starts at 0:00 and
// the timestamps ascend, so the same rules apply here. Markers past the
// video duration invalidate the list.
func ParseChapters(description string, durationSeconds float64) []entity.Chapter {
	var chapters []entity.Chapter

	for _, line := range strings.Split(description, "\n") {
		m := chapterLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		minutes, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		secs, err := strconv.Atoi(m[3])
		if err != nil || secs > 59 {
			continue
		}
		start := float64(minutes*60 + secs)
		if m[1] != "" {
			hours, err := strconv.Atoi(strings.TrimSuffix(m[1], ":"))
			if err != nil {
				continue
			}
			if minutes > 59 {
				continue
			}
			start += float64(hours * 3600)
		}

		title := strings.TrimSpace(m[4])
		if title == "" {
			continue
		}

		chapters = append(chapters, entity.Chapter{Title: title, StartSeconds: start})
	}

	if len(chapters) < 2 || chapters[0].StartSeconds != 0 {
		return nil
	}
	for i := 1; i < len(chapters); i++ {
		if chapters[i].StartSeconds <= chapters[i-1].StartSeconds {
			return nil
		}
	}
	if durationSeconds > 0 && chapters[len(chapters)-1].StartSeconds >= durationSeconds {
		return nil
	}

	return chapters
}
