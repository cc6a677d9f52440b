package captions

import (
	"html"
	"strings"
)

// Transcript flattens a WebVTT document into plain text: headers, cue ids,
// timing lines, and inline tags are dropped, and consecutive duplicate lines
// (rolling auto-caption windows repeat text) are collapsed.
func Transcript(vtt string) string {
	var b strings.Builder
	var last string
	inBlock := false

	for _, line := range strings.Split(vtt, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			inBlock = false
			continue
		case strings.HasPrefix(line, "WEBVTT"):
			continue
		case strings.HasPrefix(line, "NOTE"), strings.HasPrefix(line, "STYLE"), strings.HasPrefix(line, "REGION"):
			inBlock = true
			continue
		case inBlock:
			continue
		case strings.Contains(line, "-->"):
			continue
		case isCueID(line):
			continue
		}

		text := html.UnescapeString(stripTags(line))
		if text == "" || text == last {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(text)
		last = text
	}

	return b.String()
}

// isCueID reports whether a line is a purely numeric cue identifier.
func isCueID(line string) bool {
	if line == "" {
		return false
	}
	for _, r := range line {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// stripTags removes <...> spans (voice tags, inline timestamps, <c> classes).
func stripTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return strings.TrimSpace(s)
	}

	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
