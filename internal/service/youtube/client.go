// Package youtube wraps the YouTube Data API v3 for the metadata stage of the
// enrichment pipeline.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// ErrVideoNotFound is returned when a video is deleted, private, or otherwise
// not visible to an API-key client.
var ErrVideoNotFound = errors.New("video not found")

// Metadata is the slice of the API response the pipeline consumes. The full
// description is kept because the chapters stage parses timestamps out of it.
type Metadata struct {
	YouTubeID       string
	Title           string
	ChannelTitle    string
	Description     string
	ThumbnailURL    string
	DurationSeconds int
	PublishedAt     *time.Time
	HasCaptions     bool
	ViewCount       uint64
}

// Client wraps the YouTube Data API v3 client.
type Client struct {
	service *youtube.Service
}

// NewClient creates a new YouTube API client.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{service: service}, nil
}

// FetchVideo retrieves metadata for a single video. Deleted and private
// videos return ErrVideoNotFound.
func (c *Client) FetchVideo(ctx context.Context, videoID string) (*Metadata, error) {
	items, err := c.FetchVideos(ctx, []string{videoID})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrVideoNotFound
	}
	return items[0], nil
}

// FetchVideos retrieves metadata for up to 50 videos in a single batch.
// Videos the API omits (deleted, private) are simply absent from the result.
func (c *Client) FetchVideos(ctx context.Context, videoIDs []string) ([]*Metadata, error) {
	if len(videoIDs) == 0 {
		return nil, fmt.Errorf("no video IDs provided")
	}

	if len(videoIDs) > 50 {
		return nil, fmt.Errorf("too many video IDs (max 50, got %d)", len(videoIDs))
	}

	parts := []string{"snippet", "contentDetails", "statistics"}

	call := c.service.Videos.List(parts).Id(videoIDs...).Context(ctx)

	response, err := call.Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == 404 {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to fetch videos from YouTube API: %w", err)
	}

	metas := make([]*Metadata, 0, len(response.Items))
	for _, item := range response.Items {
		metas = append(metas, mapVideo(item))
	}

	return metas, nil
}

// mapVideo converts a YouTube API video response to the pipeline metadata model.
func mapVideo(video *youtube.Video) *Metadata {
	meta := &Metadata{
		YouTubeID: video.Id,
	}

	if video.Snippet != nil {
		meta.Title = video.Snippet.Title
		meta.ChannelTitle = video.Snippet.ChannelTitle
		meta.Description = video.Snippet.Description
		meta.ThumbnailURL = bestThumbnail(video.Snippet.Thumbnails)

		if video.Snippet.PublishedAt != "" {
			if t, err := parseYouTubeTime(video.Snippet.PublishedAt); err == nil {
				meta.PublishedAt = &t
			}
		}
	}

	if video.ContentDetails != nil {
		if secs, err := ParseVideoDuration(video.ContentDetails.Duration); err == nil {
			meta.DurationSeconds = secs
		}
		meta.HasCaptions = video.ContentDetails.Caption == "true"
	}

	if video.Statistics != nil {
		meta.ViewCount = video.Statistics.ViewCount
	}

	return meta
}

// bestThumbnail picks the largest thumbnail the API returned.
func bestThumbnail(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	switch {
	case t.Maxres != nil:
		return t.Maxres.Url
	case t.Standard != nil:
		return t.Standard.Url
	case t.High != nil:
		return t.High.Url
	case t.Medium != nil:
		return t.Medium.Url
	case t.Default != nil:
		return t.Default.Url
	}
	return ""
}

// parseYouTubeTime parses RFC3339 timestamps from YouTube API
func parseYouTubeTime(s string) (time.Time, error) {
	// YouTube API returns RFC3339 format
	return time.Parse(time.RFC3339, s)
}

// BatchVideoIDs splits a large list of video IDs into batches of 50
func BatchVideoIDs(videoIDs []string, batchSize int) [][]string {
	if batchSize <= 0 || batchSize > 50 {
		batchSize = 50
	}

	var batches [][]string
	for i := 0; i < len(videoIDs); i += batchSize {
		end := i + batchSize
		if end > len(videoIDs) {
			end = len(videoIDs)
		}
		batches = append(batches, videoIDs[i:end])
	}

	return batches
}

// ParseVideoDuration converts ISO 8601 duration to seconds
// Example: "PT4M13S" -> 253 seconds
func ParseVideoDuration(duration string) (int, error) {
	if !strings.HasPrefix(duration, "PT") {
		return 0, fmt.Errorf("invalid duration format: %s", duration)
	}

	// Remove PT prefix
	duration = strings.TrimPrefix(duration, "PT")

	var hours, minutes, seconds int

	// Parse hours
	if hIdx := strings.Index(duration, "H"); hIdx != -1 {
		h, err := strconv.Atoi(duration[:hIdx])
		if err != nil {
			return 0, err
		}
		hours = h
		duration = duration[hIdx+1:]
	}

	// Parse minutes
	if mIdx := strings.Index(duration, "M"); mIdx != -1 {
		m, err := strconv.Atoi(duration[:mIdx])
		if err != nil {
			return 0, err
		}
		minutes = m
		duration = duration[mIdx+1:]
	}

	// Parse seconds
	if sIdx := strings.Index(duration, "S"); sIdx != -1 {
		s, err := strconv.Atoi(duration[:sIdx])
		if err != nil {
			return 0, err
		}
		seconds = s
	}

	return hours*3600 + minutes*60 + seconds, nil
}
