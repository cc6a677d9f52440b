// Package worker runs the enrichment side of ingestion: a supervisor claims
// pending video jobs from the store, a bounded pool of workers drives each
// video through metadata, captions, and chapters, and every transition is
// reported through the progress sink.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/config"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/repository"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/metrics"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/parser"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/service/captions"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/service/youtube"
	"github.com/vidshelf/youtube-list-ingestion-go/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Terminal failure reasons, carried on the error event and the job's
// last_error so clients can tell a dead video from a flaky backend.
const (
	ReasonMetadataFailed    = "metadata_failed"
	ReasonSourceUnavailable = "source_unavailable"
	ReasonTimeout           = "timeout"
	ReasonCanceled          = "canceled"
)

// stageProgress is the percent reported when a video enters each stage.
var stageProgress = map[string]int{
	models.StageCreated:  0,
	models.StageMetadata: 10,
	models.StageCaptions: 40,
	models.StageChapters: 75,
	models.StageComplete: 100,
}

// errCanceled aborts a run when the job's cancellation flag is set.
var errCanceled = errors.New("video job canceled")

// MetadataFetcher fetches platform metadata for one video.
type MetadataFetcher interface {
	FetchVideo(ctx context.Context, videoID string) (*youtube.Metadata, error)
}

// CaptionSource probes available tracks and downloads caption files.
type CaptionSource interface {
	Probe(ctx context.Context, youtubeID string) (*captions.Probe, error)
	FetchTrack(ctx context.Context, url string) (string, error)
}

// Transcriber is the speech-to-text fallback for videos without captions.
type Transcriber interface {
	TranscribeURL(ctx context.Context, audioURL, language string) (string, error)
}

// ProgressSink receives every progress event the pipeline emits.
type ProgressSink interface {
	Record(ctx context.Context, event *models.ProgressEvent) error
}

// Pipeline drives one claimed video job through the enrichment stages.
// Completed stages leave artifacts behind (metadata on the video row,
// captions and chapters on the enrichment row), so a re-run after a retry or
// a reclaim skips straight to the first stage that still needs work.
type Pipeline struct {
	jobs        repository.IngestionJobRepository
	videos      repository.VideoRepository
	enrichments repository.EnrichmentRepository
	metadata    MetadataFetcher
	captions    CaptionSource
	stt         Transcriber
	progress    ProgressSink
	throttle    *throttle

	language        string
	maxAttempts     int
	metadataTimeout time.Duration
	captionsTimeout time.Duration
	chaptersTimeout time.Duration

	// Retry pacing, shrunk in tests.
	backoffBase time.Duration
	backoffCap  time.Duration
}

// NewPipeline creates a Pipeline. transcriber may be nil when the
// speech-to-text fallback is disabled; language is the caption language the
// fallback transcribes in.
func NewPipeline(
	jobs repository.IngestionJobRepository,
	videos repository.VideoRepository,
	enrichments repository.EnrichmentRepository,
	metadata MetadataFetcher,
	captionSource CaptionSource,
	transcriber Transcriber,
	progress ProgressSink,
	cfg config.EnrichmentConfig,
	language string,
) *Pipeline {
	maxAttempts := cfg.MaxRetries
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	metadataTimeout := cfg.MetadataTimeout
	if metadataTimeout <= 0 {
		metadataTimeout = 20 * time.Second
	}
	captionsTimeout := cfg.CaptionsTimeout
	if captionsTimeout <= 0 {
		captionsTimeout = 60 * time.Second
	}
	chaptersTimeout := cfg.ChaptersTimeout
	if chaptersTimeout <= 0 {
		chaptersTimeout = 20 * time.Second
	}
	progressThrottle := cfg.ProgressThrottle
	if progressThrottle <= 0 {
		progressThrottle = 250 * time.Millisecond
	}
	if language == "" {
		language = "en"
	}

	return &Pipeline{
		jobs:            jobs,
		videos:          videos,
		enrichments:     enrichments,
		metadata:        metadata,
		captions:        captionSource,
		stt:             transcriber,
		progress:        progress,
		throttle:        newThrottle(progressThrottle),
		language:        language,
		maxAttempts:     maxAttempts,
		metadataTimeout: metadataTimeout,
		captionsTimeout: captionsTimeout,
		chaptersTimeout: chaptersTimeout,
		backoffBase:     2 * time.Second,
		backoffCap:      30 * time.Second,
	}
}

// videoRun is the mutable state of one pipeline run.
type videoRun struct {
	job        *models.VideoJob
	parent     *models.IngestionJob
	video      *models.Video
	enrichment *models.Enrichment
	meta       *youtube.Metadata
	probe      *captions.Probe
}

// stageError is a run that exhausted its options in one stage.
type stageError struct {
	stage  string
	reason string
	cause  error
}

func (e *stageError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%s stage: %s", e.stage, e.reason)
	}
	return fmt.Sprintf("%s stage: %s: %v", e.stage, e.reason, e.cause)
}

func (e *stageError) Unwrap() error { return e.cause }

// Process runs the full pipeline for one claimed job. The job's own
// cancellation flag (video or list deleted) finalizes the run to canceled; a
// context cancellation means process shutdown and aborts mid-run without
// finalizing, leaving the claim for the stall reaper to re-queue.
func (p *Pipeline) Process(ctx context.Context, job *models.VideoJob) error {
	defer p.throttle.forget(job.VideoID)

	video, err := p.videos.GetVideoByID(ctx, job.VideoID)
	if err != nil {
		if db.IsNotFound(err) {
			// Deleted between claim and run.
			return p.finalizeCanceled(ctx, &videoRun{job: job})
		}
		return fmt.Errorf("load video %s: %w", job.VideoID, err)
	}

	parent, err := p.jobs.GetJobByID(ctx, job.JobID)
	if err != nil {
		if db.IsNotFound(err) {
			return p.finalizeCanceled(ctx, &videoRun{job: job})
		}
		return fmt.Errorf("load job %s: %w", job.JobID, err)
	}

	run := &videoRun{job: job, parent: parent, video: video}

	if p.jobCanceled(ctx, job.ID) {
		return p.finalizeCanceled(ctx, run)
	}

	// A duplicate enqueue of an already-enriched video completes immediately.
	if video.ProcessingStatus == models.ProcessingStatusCompleted {
		return p.finishDone(ctx, run)
	}

	if err := p.enrichments.EnsureEnrichment(ctx, job.VideoID); err != nil {
		return fmt.Errorf("ensure enrichment: %w", err)
	}
	enrichment, err := p.enrichments.GetEnrichmentByVideoID(ctx, job.VideoID)
	if err != nil {
		return fmt.Errorf("load enrichment: %w", err)
	}
	run.enrichment = enrichment

	if err := p.videos.UpdateProcessingStatus(ctx, job.VideoID, models.ProcessingStatusProcessing); err != nil {
		return fmt.Errorf("mark video processing: %w", err)
	}
	if err := p.enrichments.SetStatus(ctx, job.VideoID, models.EnrichmentStatusProcessing, nil); err != nil {
		return fmt.Errorf("mark enrichment processing: %w", err)
	}

	if job.Stage == models.StageCreated {
		p.emit(ctx, run, models.StageCreated, stageProgress[models.StageCreated], nil, true)
	}

	err = p.runStages(ctx, run)
	switch {
	case err == nil:
		return p.complete(ctx, run)
	case errors.Is(err, errCanceled):
		return p.finalizeCanceled(ctx, run)
	case ctx.Err() != nil:
		return err
	default:
		var se *stageError
		if errors.As(err, &se) {
			return p.fail(ctx, run, se)
		}
		// Transient store failure: leave the claim in place. The artifacts
		// written so far make the eventual re-run cheap.
		return err
	}
}

func (p *Pipeline) runStages(ctx context.Context, run *videoRun) error {
	if err := p.stageMetadata(ctx, run); err != nil {
		return err
	}
	if err := p.stageCaptions(ctx, run); err != nil {
		return err
	}
	return p.stageChapters(ctx, run)
}

// stageMetadata fetches title, channel, thumbnail, duration, and published
// time from the platform API. This is the only stage whose failure is fatal
// for the video.
func (p *Pipeline) stageMetadata(ctx context.Context, run *videoRun) error {
	if run.video.Title != nil {
		// Metadata survived a previous run.
		return nil
	}
	if err := p.enterStage(ctx, run, models.StageMetadata); err != nil {
		return err
	}

	var meta *youtube.Metadata
	err := p.attempt(ctx, run, models.StageMetadata, p.metadataTimeout, func(ctx context.Context) error {
		fetched, err := p.metadata.FetchVideo(ctx, run.video.YouTubeID)
		if err != nil {
			return err
		}
		meta = fetched
		return nil
	})
	if err != nil {
		if errors.Is(err, errCanceled) || ctx.Err() != nil {
			return err
		}
		return &stageError{stage: models.StageMetadata, reason: metadataReason(err), cause: err}
	}

	run.video.Title = &meta.Title
	run.video.Channel = &meta.ChannelTitle
	if meta.ThumbnailURL != "" {
		run.video.ThumbnailURL = &meta.ThumbnailURL
	}
	if meta.DurationSeconds > 0 {
		run.video.DurationSeconds = &meta.DurationSeconds
	}
	run.video.PublishedAt = meta.PublishedAt
	if err := p.videos.UpdateVideoMetadata(ctx, run.video); err != nil {
		return fmt.Errorf("store metadata: %w", err)
	}

	if meta.Description != "" {
		if err := p.enrichments.SetDescription(ctx, run.video.ID, &meta.Description); err != nil {
			return fmt.Errorf("store description: %w", err)
		}
		run.enrichment.Description = &meta.Description
	}
	run.meta = meta
	return nil
}

func metadataReason(err error) string {
	switch {
	case isFatal(err):
		return ReasonSourceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	default:
		return ReasonMetadataFailed
	}
}

// stageCaptions tries the caption chain. Only a vanished video fails the run
// here; every other outcome, including having no captions at all, continues
// to chapters and at worst downgrades the enrichment to partial.
func (p *Pipeline) stageCaptions(ctx context.Context, run *videoRun) error {
	if run.enrichment.CaptionSource != nil {
		return nil
	}
	if err := p.enterStage(ctx, run, models.StageCaptions); err != nil {
		return err
	}

	err := p.attempt(ctx, run, models.StageCaptions, p.captionsTimeout, func(ctx context.Context) error {
		if run.probe == nil {
			probe, err := p.captions.Probe(ctx, run.video.YouTubeID)
			if err != nil {
				return err
			}
			run.probe = probe
		}
		return p.fetchCaptions(ctx, run)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, errCanceled) || ctx.Err() != nil {
		return err
	}
	if isFatal(err) {
		// The video disappeared mid-run.
		return &stageError{stage: models.StageCaptions, reason: ReasonSourceUnavailable, cause: err}
	}

	logger.Log.Warn("Captions unavailable, continuing without",
		zap.String("videoId", run.video.ID.String()),
		zap.String("youtubeId", run.video.YouTubeID),
		zap.Error(err))
	return nil
}

// fetchCaptions walks the source order: manual track, auto track, then
// speech-to-text when enabled. Absence of every source is not an error; the
// enrichment just stays caption-less.
func (p *Pipeline) fetchCaptions(ctx context.Context, run *videoRun) error {
	var lastErr error

	tracks := []struct {
		url    string
		source string
	}{
		{run.probe.ManualTrackURL, models.CaptionSourceManual},
		{run.probe.AutoTrackURL, models.CaptionSourceAuto},
	}
	for _, track := range tracks {
		if track.url == "" {
			continue
		}
		vtt, err := p.captions.FetchTrack(ctx, track.url)
		if err != nil {
			lastErr = err
			continue
		}
		transcript := captions.Transcript(vtt)
		return p.storeCaptions(ctx, run, &vtt, &transcript, track.source)
	}

	if p.stt != nil && run.probe.AudioURL != "" {
		message := "transcribing audio"
		p.emit(ctx, run, models.StageCaptions, stageProgress[models.StageCaptions], &message, false)

		transcript, err := p.stt.TranscribeURL(ctx, run.probe.AudioURL, p.language)
		if err != nil {
			lastErr = err
		} else {
			// The fallback yields plain text only; captions_vtt stays null.
			return p.storeCaptions(ctx, run, nil, &transcript, models.CaptionSourceSTT)
		}
	}

	return lastErr
}

func (p *Pipeline) storeCaptions(ctx context.Context, run *videoRun, vtt, transcript *string, source string) error {
	if err := p.enrichments.SetCaptions(ctx, run.video.ID, vtt, transcript, source); err != nil {
		return fmt.Errorf("store captions: %w", err)
	}
	run.enrichment.CaptionsVTT = vtt
	run.enrichment.Transcript = transcript
	run.enrichment.CaptionSource = &source
	return nil
}

// stageChapters resolves chapters from platform markers or the description.
// Never fatal: whatever goes wrong, the video still completes.
func (p *Pipeline) stageChapters(ctx context.Context, run *videoRun) error {
	if run.enrichment.ChapterSource != nil {
		return nil
	}
	if err := p.enterStage(ctx, run, models.StageChapters); err != nil {
		return err
	}

	start := time.Now()
	chapters, source := p.resolveChapters(ctx, run)
	if len(chapters) == 0 {
		metrics.ObserveStage(models.StageChapters, "success", start)
		return nil
	}

	if err := p.enrichments.SetChapters(ctx, run.video.ID, chapters, source); err != nil {
		metrics.ObserveStage(models.StageChapters, "failure", start)
		logger.Log.Warn("Failed to store chapters",
			zap.String("videoId", run.video.ID.String()),
			zap.Error(err))
		return nil
	}
	run.enrichment.Chapters = chapters
	run.enrichment.ChapterSource = &source
	metrics.ObserveStage(models.StageChapters, "success", start)
	return nil
}

// resolveChapters prefers platform chapter markers and falls back to parsing
// timestamp lines out of the description.
func (p *Pipeline) resolveChapters(ctx context.Context, run *videoRun) ([]models.Chapter, string) {
	if run.probe == nil {
		// Captions were skipped on this run; probe just for chapters.
		probeCtx, cancel := context.WithTimeout(ctx, p.chaptersTimeout)
		probe, err := p.captions.Probe(probeCtx, run.video.YouTubeID)
		cancel()
		if err != nil {
			logger.Log.Debug("Chapter probe failed, falling back to description",
				zap.String("youtubeId", run.video.YouTubeID),
				zap.Error(err))
		} else {
			run.probe = probe
		}
	}
	if run.probe != nil && len(run.probe.Chapters) > 0 {
		return run.probe.Chapters, models.ChapterSourcePlatform
	}

	description := ""
	switch {
	case run.meta != nil:
		description = run.meta.Description
	case run.enrichment.Description != nil:
		description = *run.enrichment.Description
	}
	parsed := parser.ParseDescriptionChapters(description)
	if len(parsed) == 0 {
		return nil, ""
	}

	chapters := make([]models.Chapter, len(parsed))
	for i, ch := range parsed {
		chapters[i] = models.Chapter{Title: ch.Title, StartSeconds: ch.StartSeconds, EndSeconds: ch.EndSeconds}
	}
	// The parser leaves the last end open; close it with the video duration.
	if last := len(chapters) - 1; chapters[last].EndSeconds == 0 && run.video.DurationSeconds != nil {
		chapters[last].EndSeconds = *run.video.DurationSeconds
	}
	return chapters, models.ChapterSourceDescription
}

// complete finalizes a successful run. Missing captions or chapters downgrade
// the enrichment to partial; the video itself still completes.
func (p *Pipeline) complete(ctx context.Context, run *videoRun) error {
	if err := p.enterStage(ctx, run, models.StageComplete); err != nil {
		if errors.Is(err, errCanceled) {
			return p.finalizeCanceled(ctx, run)
		}
		return err
	}

	status := models.EnrichmentStatusCompleted
	if run.enrichment.Degraded() {
		status = models.EnrichmentStatusPartial
	}
	if err := p.enrichments.SetStatus(ctx, run.video.ID, status, nil); err != nil {
		return fmt.Errorf("finalize enrichment: %w", err)
	}
	if err := p.enrichments.SetProgressMessage(ctx, run.video.ID, nil); err != nil {
		logger.Log.Warn("Failed to clear progress message",
			zap.String("videoId", run.video.ID.String()),
			zap.Error(err))
	}
	if err := p.videos.UpdateProcessingStatus(ctx, run.video.ID, models.ProcessingStatusCompleted); err != nil {
		return fmt.Errorf("mark video completed: %w", err)
	}

	logger.Log.Info("Video enriched",
		zap.String("videoId", run.video.ID.String()),
		zap.String("youtubeId", run.video.YouTubeID),
		zap.String("status", status))
	return p.finishDone(ctx, run)
}

// finishDone closes out the job row and parent counters for a done video and
// emits the terminal event.
func (p *Pipeline) finishDone(ctx context.Context, run *videoRun) error {
	err := p.jobs.FinishVideoJob(ctx, run.job.ID, models.VideoJobStatusDone, models.StageComplete, nil)
	if err != nil && !db.IsNotFound(err) {
		return fmt.Errorf("finish video job: %w", err)
	}
	p.accountJob(ctx, run, 1, 0)
	metrics.VideoJobsTotal.WithLabelValues("done").Inc()
	p.emit(ctx, run, models.StageComplete, stageProgress[models.StageComplete], nil, true)
	return nil
}

// fail finalizes a run that exhausted its options.
func (p *Pipeline) fail(ctx context.Context, run *videoRun, se *stageError) error {
	message := se.reason
	if se.cause != nil {
		message = fmt.Sprintf("%s: %v", se.reason, se.cause)
	}

	if err := p.enrichments.SetStatus(ctx, run.video.ID, models.EnrichmentStatusFailed, &message); err != nil {
		logger.Log.Warn("Failed to mark enrichment failed",
			zap.String("videoId", run.video.ID.String()),
			zap.Error(err))
	}
	if err := p.enrichments.IncrementRetryCount(ctx, run.video.ID); err != nil {
		logger.Log.Warn("Failed to bump retry count",
			zap.String("videoId", run.video.ID.String()),
			zap.Error(err))
	}
	if err := p.videos.UpdateProcessingStatus(ctx, run.video.ID, models.ProcessingStatusFailed); err != nil {
		logger.Log.Warn("Failed to mark video failed",
			zap.String("videoId", run.video.ID.String()),
			zap.Error(err))
	}
	err := p.jobs.FinishVideoJob(ctx, run.job.ID, models.VideoJobStatusError, models.StageError, &message)
	if err != nil && !db.IsNotFound(err) {
		return fmt.Errorf("finish failed video job: %w", err)
	}
	p.accountJob(ctx, run, 0, 1)
	metrics.VideoJobsTotal.WithLabelValues("error").Inc()
	p.emit(ctx, run, models.StageError, stageProgress[se.stage], &message, true)

	logger.Log.Warn("Video enrichment failed",
		zap.String("videoId", run.job.VideoID.String()),
		zap.String("stage", se.stage),
		zap.String("reason", se.reason),
		zap.Error(se.cause))
	return nil
}

// finalizeCanceled closes out a run whose cancellation flag was set or whose
// video vanished underneath it. Only the job row and parent counters are
// touched; the video may already be gone.
func (p *Pipeline) finalizeCanceled(ctx context.Context, run *videoRun) error {
	message := ReasonCanceled
	err := p.jobs.FinishVideoJob(ctx, run.job.ID, models.VideoJobStatusCanceled, run.job.Stage, &message)
	if err != nil && !db.IsNotFound(err) {
		logger.Log.Warn("Failed to finalize canceled job",
			zap.String("videoJobId", run.job.ID.String()),
			zap.Error(err))
	}
	p.accountJob(ctx, run, 0, 1)
	metrics.VideoJobsTotal.WithLabelValues("canceled").Inc()
	p.emit(ctx, run, models.StageError, stageProgress[run.job.Stage], &message, true)

	logger.Log.Info("Video job canceled",
		zap.String("videoJobId", run.job.ID.String()),
		zap.String("videoId", run.job.VideoID.String()))
	return nil
}

// enterStage checks the cancellation flag, advances the job's stage column,
// and announces the transition. Stage updates are monotonic: a re-run that
// revisits an earlier stage keeps the further-along column value.
func (p *Pipeline) enterStage(ctx context.Context, run *videoRun, stage string) error {
	if p.jobCanceled(ctx, run.job.ID) {
		return errCanceled
	}
	if models.StageRank(stage) > models.StageRank(run.job.Stage) {
		if err := p.jobs.UpdateVideoJobStage(ctx, run.job.ID, stage); err != nil {
			if db.IsNotFound(err) {
				return errCanceled
			}
			return fmt.Errorf("update stage to %s: %w", stage, err)
		}
		run.job.Stage = stage
	}
	if stage != models.StageComplete {
		p.emit(ctx, run, stage, stageProgress[stage], nil, true)
	}
	return nil
}

// attempt runs one stage body under the stage timeout, retrying with
// exponential backoff. Fatal errors and cancellation cut the loop short; a
// timeout counts as one failed attempt.
func (p *Pipeline) attempt(ctx context.Context, run *videoRun, stage string, timeout time.Duration, fn func(context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.backoffBase
	bo.RandomizationFactor = 0.25
	bo.Multiplier = 2
	bo.MaxInterval = p.backoffCap
	bo.MaxElapsedTime = 0
	bo.Reset()

	var lastErr error
	for attemptN := 1; ; attemptN++ {
		start := time.Now()
		stageCtx, cancel := context.WithTimeout(ctx, timeout)
		err := fn(stageCtx)
		cancel()

		if err == nil {
			metrics.ObserveStage(stage, "success", start)
			return nil
		}
		if ctx.Err() != nil {
			metrics.ObserveStage(stage, "canceled", start)
			return ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			metrics.ObserveStage(stage, "timeout", start)
		} else {
			metrics.ObserveStage(stage, "failure", start)
		}
		lastErr = err

		if isFatal(err) || attemptN >= p.maxAttempts {
			return lastErr
		}

		if recErr := p.jobs.RecordVideoJobAttempt(ctx, run.job.ID, err.Error()); recErr != nil {
			logger.Log.Warn("Failed to record job attempt",
				zap.String("videoJobId", run.job.ID.String()),
				zap.Error(recErr))
		}
		metrics.StageRetriesTotal.WithLabelValues(stage).Inc()

		message := fmt.Sprintf("%s failed, retrying (%d/%d)", stage, attemptN+1, p.maxAttempts)
		p.emit(ctx, run, stage, stageProgress[stage], &message, false)

		timer := time.NewTimer(bo.NextBackOff())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if p.jobCanceled(ctx, run.job.ID) {
			return errCanceled
		}
	}
}

// isFatal reports whether retrying can't help: the video is gone, private, or
// region-blocked.
func isFatal(err error) bool {
	return errors.Is(err, youtube.ErrVideoNotFound) || errors.Is(err, captions.ErrSourceUnavailable)
}

// jobCanceled reads the cancellation flag. A missing row means the video was
// deleted and its jobs cascaded away with it.
func (p *Pipeline) jobCanceled(ctx context.Context, id uuid.UUID) bool {
	status, err := p.jobs.GetVideoJobStatus(ctx, id)
	if err != nil {
		return db.IsNotFound(err)
	}
	return status == models.VideoJobStatusCanceled
}

// emit reports progress. Transitions and terminals always go out; everything
// else is throttled per video. Delivery is the sink's problem; the pipeline
// only logs failures.
func (p *Pipeline) emit(ctx context.Context, run *videoRun, stage string, progress int, message *string, immediate bool) {
	if run.parent == nil {
		return
	}
	if !immediate && !p.throttle.allow(run.job.VideoID) {
		return
	}

	event := &models.ProgressEvent{
		JobID:     run.job.JobID,
		VideoID:   run.job.VideoID,
		UserID:    run.parent.UserID,
		Stage:     stage,
		Progress:  progress,
		Message:   message,
		Timestamp: time.Now(),
	}
	if err := p.progress.Record(ctx, event); err != nil {
		logger.Log.Warn("Failed to record progress event",
			zap.String("videoId", run.job.VideoID.String()),
			zap.String("stage", stage),
			zap.Error(err))
	}
}

// accountJob rolls this video into the parent job's counters. The parent row
// disappears when its list does, which is fine to ignore.
func (p *Pipeline) accountJob(ctx context.Context, run *videoRun, completed, failed int) {
	job, err := p.jobs.IncrementJobProgress(ctx, run.job.JobID, completed, failed)
	if err != nil {
		if !db.IsNotFound(err) {
			logger.Log.Warn("Failed to update job counters",
				zap.String("jobId", run.job.JobID.String()),
				zap.Error(err))
		}
		return
	}
	if job.Status == models.JobStatusCompleted {
		logger.Log.Info("Ingestion job finished",
			zap.String("jobId", job.ID.String()),
			zap.Int("total", job.Total),
			zap.Int("completed", job.Completed),
			zap.Int("failed", job.Failed))
	}
}
