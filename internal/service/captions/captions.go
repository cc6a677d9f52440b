// Package captions extracts caption tracks and platform chapters for the
// captions and chapters stages, shelling out to yt-dlp for metadata probes.
package captions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/config"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
)

// ErrSourceUnavailable is returned when the video is gone, private, or
// region-blocked and no amount of retrying will help.
var ErrSourceUnavailable = errors.New("source unavailable")

// CommandRunner abstracts yt-dlp invocation for tests.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Probe is everything one --dump-json call yields that the pipeline cares
// about: which caption tracks exist, platform chapters, and an audio URL for
// the speech-to-text fallback.
type Probe struct {
	ManualTrackURL string
	AutoTrackURL   string
	AudioURL       string
	Chapters       []models.Chapter
	Duration       int
}

// Client probes videos with yt-dlp and downloads caption tracks.
type Client struct {
	ytdlpPath string
	languages []string
	runner    CommandRunner
	http      *http.Client
}

// NewClient builds a Client from config. The binary path defaults to yt-dlp
// on PATH and the language list to English.
func NewClient(cfg config.CaptionsConfig) *Client {
	return NewClientWithRunner(cfg, execRunner{})
}

// NewClientWithRunner is NewClient with an injected runner for tests.
func NewClientWithRunner(cfg config.CaptionsConfig, runner CommandRunner) *Client {
	path := cfg.YtdlpPath
	if path == "" {
		path = "yt-dlp"
	}
	langs := cfg.Languages
	if len(langs) == 0 {
		langs = []string{"en"}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 55 * time.Second
	}

	return &Client{
		ytdlpPath: path,
		languages: langs,
		runner:    runner,
		http:      &http.Client{Timeout: timeout},
	}
}

// dump-json output, reduced to the fields we read.
type dumpOutput struct {
	Duration          float64                `json:"duration"`
	Subtitles         map[string][]dumpTrack `json:"subtitles"`
	AutomaticCaptions map[string][]dumpTrack `json:"automatic_captions"`
	Chapters          []dumpChapter          `json:"chapters"`
	Formats           []dumpFormat           `json:"formats"`
}

type dumpTrack struct {
	Ext string `json:"ext"`
	URL string `json:"url"`
}

type dumpChapter struct {
	Title     string  `json:"title"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

type dumpFormat struct {
	URL    string  `json:"url"`
	ACodec string  `json:"acodec"`
	VCodec string  `json:"vcodec"`
	ABR    float64 `json:"abr"`
}

// Probe runs yt-dlp --dump-json for the video and extracts caption track
// URLs, platform chapters, and the best audio-only format URL.
func (c *Client) Probe(ctx context.Context, youtubeID string) (*Probe, error) {
	args := []string{
		"--skip-download",
		"--dump-json",
		"--no-warnings",
		fmt.Sprintf("https://www.youtube.com/watch?v=%s", youtubeID),
	}

	output, err := c.runner.Run(ctx, c.ytdlpPath, args...)
	if err != nil {
		return nil, classifyRunError(err, youtubeID)
	}

	var dump dumpOutput
	if err := json.Unmarshal(output, &dump); err != nil {
		return nil, fmt.Errorf("parse yt-dlp output for %s: %w", youtubeID, err)
	}

	probe := &Probe{
		ManualTrackURL: c.pickTrack(dump.Subtitles),
		AutoTrackURL:   c.pickTrack(dump.AutomaticCaptions),
		AudioURL:       bestAudioURL(dump.Formats),
		Duration:       int(dump.Duration),
	}

	for _, ch := range dump.Chapters {
		probe.Chapters = append(probe.Chapters, models.Chapter{
			Title:        ch.Title,
			StartSeconds: int(ch.StartTime),
			EndSeconds:   int(ch.EndTime),
		})
	}

	return probe, nil
}

// FetchTrack downloads a caption track and returns its body.
func (c *Client) FetchTrack(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create track request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch caption track: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("caption track returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("read caption track: %w", err)
	}

	return string(body), nil
}

// pickTrack selects a VTT track for the first configured language with one.
// Language keys are matched exactly first, then by prefix ("en" matches
// "en-US" and "en-orig").
func (c *Client) pickTrack(tracks map[string][]dumpTrack) string {
	if len(tracks) == 0 {
		return ""
	}

	for _, lang := range c.languages {
		if url := vttURL(tracks[lang]); url != "" {
			return url
		}
		for key, list := range tracks {
			if strings.HasPrefix(key, lang+"-") {
				if url := vttURL(list); url != "" {
					return url
				}
			}
		}
	}
	return ""
}

func vttURL(tracks []dumpTrack) string {
	for _, t := range tracks {
		if t.Ext == "vtt" {
			return t.URL
		}
	}
	return ""
}

// bestAudioURL picks the highest-bitrate audio-only format.
func bestAudioURL(formats []dumpFormat) string {
	var best dumpFormat
	for _, f := range formats {
		if f.ACodec == "" || f.ACodec == "none" || (f.VCodec != "" && f.VCodec != "none") {
			continue
		}
		if f.URL != "" && f.ABR >= best.ABR {
			best = f
		}
	}
	return best.URL
}

// classifyRunError maps yt-dlp failures onto the pipeline's taxonomy: gone or
// private videos are terminal, everything else stays retryable.
func classifyRunError(err error, youtubeID string) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := string(exitErr.Stderr)
		if isUnavailable(stderr) {
			return fmt.Errorf("%w: %s", ErrSourceUnavailable, firstLine(stderr))
		}
		if stderr != "" {
			return fmt.Errorf("yt-dlp failed for %s (exit %d): %s", youtubeID, exitErr.ExitCode(), firstLine(stderr))
		}
	}
	return fmt.Errorf("yt-dlp failed for %s: %w", youtubeID, err)
}

func isUnavailable(stderr string) bool {
	for _, marker := range []string{
		"Video unavailable",
		"Private video",
		"This video is not available",
		"account associated with this video has been terminated",
	} {
		if strings.Contains(stderr, marker) {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
