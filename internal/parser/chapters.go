package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// Chapter is a parsed chapter marker. EndSeconds is 0 for the final chapter
// when the video duration is unknown; callers fill it in once they know it.
type Chapter struct {
	Title        string
	StartSeconds int
	EndSeconds   int
}

// Chapter lines look like "0:00 Intro", "1:23:45 - Deep dive", or
// "- 12:34 Results". Timestamp first, optional separator, then the title.
var chapterLineRegex = regexp.MustCompile(`^\s*(?:[-*•]\s*)?(?:(\d{1,2}):)?(\d{1,2}):(\d{2})\s*[-–:.]?\s*(\S.*)$`)

// ParseDescriptionChapters extracts a chapter list from a video description,
// following the platform convention: the list counts only when it has at
// least three entries and the first starts at 0:00. Each chapter's end is the
// next chapter's start; the last end is left at 0 for the caller to resolve.
func ParseDescriptionChapters(description string) []Chapter {
	var chapters []Chapter

	for _, line := range strings.Split(description, "\n") {
		m := chapterLineRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		hours := 0
		if m[1] != "" {
			hours, _ = strconv.Atoi(m[1])
		}
		minutes, _ := strconv.Atoi(m[2])
		seconds, _ := strconv.Atoi(m[3])
		if seconds > 59 || (m[1] != "" && minutes > 59) {
			continue
		}

		start := hours*3600 + minutes*60 + seconds
		title := strings.TrimSpace(m[4])

		// Timestamps must be strictly increasing to form a chapter list.
		if len(chapters) > 0 && start <= chapters[len(chapters)-1].StartSeconds {
			continue
		}

		chapters = append(chapters, Chapter{Title: title, StartSeconds: start})
	}

	if len(chapters) < 3 || chapters[0].StartSeconds != 0 {
		return nil
	}

	for i := range chapters[:len(chapters)-1] {
		chapters[i].EndSeconds = chapters[i+1].StartSeconds
	}

	return chapters
}
