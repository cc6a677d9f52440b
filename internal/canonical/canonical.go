// Package canonical extracts canonical YouTube video ids from user-supplied URLs.
// The 11-character id is the sole deduplication key for ingestion.
package canonical

import (
	"net/url"
	"regexp"
	"strings"
)

var videoIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// IsVideoID reports whether s is exactly an 11-character YouTube video id.
func IsVideoID(s string) bool {
	return videoIDRegex.MatchString(s)
}

// ExtractVideoID extracts the canonical video id from a YouTube URL.
// Supported forms: youtube.com/watch?v=ID, youtu.be/ID, youtube.com/embed/ID,
// youtube.com/v/ID, youtube.com/shorts/ID. Channel, playlist, and search URLs
// are rejected, as are non-http(s) schemes and ids of the wrong length.
// Returns the id and true on success.
func ExtractVideoID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	// Pasted links frequently omit the scheme ("youtube.com/watch?v=..."),
	// so prepend one before parsing. An explicit non-http(s) scheme rejects.
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case host == "youtu.be":
		return validateID(firstPathSegment(u.Path))
	case host == "youtube.com" || strings.HasSuffix(host, ".youtube.com"):
		return extractFromYouTubePath(u)
	default:
		return "", false
	}
}

// CanonicalURL returns the normalized watch URL for a video id.
func CanonicalURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

func extractFromYouTubePath(u *url.URL) (string, bool) {
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "", false
	}

	switch segments[0] {
	case "watch":
		return validateID(u.Query().Get("v"))
	case "embed", "v", "shorts":
		if len(segments) < 2 {
			return "", false
		}
		// embed/videoseries is a playlist embed, not a video.
		if segments[1] == "videoseries" {
			return "", false
		}
		return validateID(segments[1])
	default:
		// channel/, playlist, results (search), user/, @handle, live pages.
		return "", false
	}
}

func firstPathSegment(path string) string {
	path = strings.Trim(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}

func validateID(id string) (string, bool) {
	if !videoIDRegex.MatchString(id) {
		return "", false
	}
	return id, true
}
