package captions

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/config"
)

type fakeRunner struct {
	output []byte
	err    error
	args   []string
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	f.args = args
	return f.output, f.err
}

func testConfig() config.CaptionsConfig {
	return config.CaptionsConfig{
		YtdlpPath: "yt-dlp",
		Languages: []string{"en"},
		Timeout:   10 * time.Second,
	}
}

const dumpWithEverything = `{
	"duration": 610.5,
	"subtitles": {
		"en": [{"ext": "srv1", "url": "https://captions/manual.srv1"},
		       {"ext": "vtt", "url": "https://captions/manual.vtt"}]
	},
	"automatic_captions": {
		"en-orig": [{"ext": "vtt", "url": "https://captions/auto-orig.vtt"}],
		"en": [{"ext": "vtt", "url": "https://captions/auto.vtt"}]
	},
	"chapters": [
		{"title": "Intro", "start_time": 0.0, "end_time": 90.0},
		{"title": "Main", "start_time": 90.0, "end_time": 610.0}
	],
	"formats": [
		{"url": "https://media/video.mp4", "acodec": "mp4a", "vcodec": "avc1", "abr": 128},
		{"url": "https://media/audio-low.m4a", "acodec": "mp4a", "vcodec": "none", "abr": 48},
		{"url": "https://media/audio-high.m4a", "acodec": "opus", "vcodec": "none", "abr": 160}
	]
}`

func TestClient_Probe(t *testing.T) {
	runner := &fakeRunner{output: []byte(dumpWithEverything)}
	client := NewClientWithRunner(testConfig(), runner)

	probe, err := client.Probe(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}

	if probe.ManualTrackURL != "https://captions/manual.vtt" {
		t.Errorf("ManualTrackURL = %s", probe.ManualTrackURL)
	}
	if probe.AutoTrackURL != "https://captions/auto.vtt" {
		t.Errorf("AutoTrackURL = %s", probe.AutoTrackURL)
	}
	if probe.AudioURL != "https://media/audio-high.m4a" {
		t.Errorf("AudioURL = %s", probe.AudioURL)
	}
	if probe.Duration != 610 {
		t.Errorf("Duration = %d, want 610", probe.Duration)
	}

	if len(probe.Chapters) != 2 {
		t.Fatalf("len(Chapters) = %d, want 2", len(probe.Chapters))
	}
	if probe.Chapters[0].Title != "Intro" || probe.Chapters[0].StartSeconds != 0 || probe.Chapters[0].EndSeconds != 90 {
		t.Errorf("Chapters[0] = %+v", probe.Chapters[0])
	}

	// The probe must not download media.
	for _, arg := range runner.args {
		if arg == "--skip-download" {
			return
		}
	}
	t.Error("yt-dlp was not invoked with --skip-download")
}

func TestClient_Probe_LanguageFallbacks(t *testing.T) {
	tests := []struct {
		name       string
		dump       string
		wantManual string
		wantAuto   string
	}{
		{
			name:       "prefix match when exact language missing",
			dump:       `{"subtitles": {"en-US": [{"ext": "vtt", "url": "https://captions/en-us.vtt"}]}}`,
			wantManual: "https://captions/en-us.vtt",
		},
		{
			name:     "auto captions only",
			dump:     `{"automatic_captions": {"en": [{"ext": "vtt", "url": "https://captions/auto.vtt"}]}}`,
			wantAuto: "https://captions/auto.vtt",
		},
		{
			name: "no vtt track means no captions",
			dump: `{"subtitles": {"en": [{"ext": "srv1", "url": "https://captions/manual.srv1"}]}}`,
		},
		{
			name: "unconfigured language ignored",
			dump: `{"subtitles": {"de": [{"ext": "vtt", "url": "https://captions/de.vtt"}]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClientWithRunner(testConfig(), &fakeRunner{output: []byte(tt.dump)})

			probe, err := client.Probe(context.Background(), "dQw4w9WgXcQ")
			if err != nil {
				t.Fatalf("Probe() error = %v", err)
			}
			if probe.ManualTrackURL != tt.wantManual {
				t.Errorf("ManualTrackURL = %q, want %q", probe.ManualTrackURL, tt.wantManual)
			}
			if probe.AutoTrackURL != tt.wantAuto {
				t.Errorf("AutoTrackURL = %q, want %q", probe.AutoTrackURL, tt.wantAuto)
			}
		})
	}
}

func TestClient_Probe_Unavailable(t *testing.T) {
	runner := &fakeRunner{
		err: &exec.ExitError{Stderr: []byte("ERROR: [youtube] dQw4w9WgXcQ: Video unavailable")},
	}
	client := NewClientWithRunner(testConfig(), runner)

	_, err := client.Probe(context.Background(), "dQw4w9WgXcQ")
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("Probe() error = %v, want ErrSourceUnavailable", err)
	}
}

func TestClient_Probe_TransientFailureStaysRetryable(t *testing.T) {
	runner := &fakeRunner{
		err: &exec.ExitError{Stderr: []byte("ERROR: unable to download webpage: timed out")},
	}
	client := NewClientWithRunner(testConfig(), runner)

	_, err := client.Probe(context.Background(), "dQw4w9WgXcQ")
	if err == nil {
		t.Fatal("Probe() succeeded, want error")
	}
	if errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("transient failure classified as unavailable: %v", err)
	}
}
