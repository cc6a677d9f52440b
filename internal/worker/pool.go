package worker

import (
	"context"
	"time"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/config"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/repository"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/metrics"
	"github.com/vidshelf/youtube-list-ingestion-go/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pool runs the enrichment workers: one supervisor claiming pending video
// jobs in FIFO order, a bounded hand-off channel, and a fixed set of workers
// draining it. The database is the queue; claims use SKIP LOCKED so several
// enricher processes can share the backlog.
type Pool struct {
	jobs     repository.IngestionJobRepository
	pipeline *Pipeline

	workers       int
	claimBatch    int
	claimInterval time.Duration
	stallTimeout  time.Duration

	nudge chan struct{}
}

// NewPool creates a Pool sized from config.
func NewPool(jobs repository.IngestionJobRepository, pipeline *Pipeline, cfg config.EnrichmentConfig) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 8
	}
	claimBatch := cfg.ClaimBatch
	if claimBatch <= 0 {
		claimBatch = 2 * workers
	}
	claimInterval := cfg.ClaimInterval
	if claimInterval <= 0 {
		claimInterval = time.Second
	}
	stallTimeout := cfg.StallTimeout
	if stallTimeout <= 0 {
		stallTimeout = 5 * time.Minute
	}

	return &Pool{
		jobs:          jobs,
		pipeline:      pipeline,
		workers:       workers,
		claimBatch:    claimBatch,
		claimInterval: claimInterval,
		stallTimeout:  stallTimeout,
		nudge:         make(chan struct{}, 1),
	}
}

// Nudge wakes the supervisor ahead of its next poll. The MQ ingest consumer
// calls this after a submission to cut claim latency; safe from any
// goroutine, never blocks.
func (p *Pool) Nudge() {
	select {
	case p.nudge <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is canceled. In-flight videos are abandoned mid-stage
// on shutdown; their claims go back to pending through the stall reaper, and
// stored artifacts keep the re-run cheap.
func (p *Pool) Run(ctx context.Context) error {
	queue := make(chan *models.VideoJob, p.claimBatch)

	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			p.work(ctx, queue)
			return nil
		})
	}

	g.Go(func() error {
		defer close(queue)
		return p.supervise(ctx, queue)
	})

	g.Go(func() error {
		return p.reap(ctx)
	})

	logger.Log.Info("Enrichment pool started",
		zap.Int("workers", p.workers),
		zap.Int("claimBatch", p.claimBatch),
		zap.Duration("claimInterval", p.claimInterval))

	return g.Wait()
}

// supervise claims work on every tick and on every nudge.
func (p *Pool) supervise(ctx context.Context, queue chan<- *models.VideoJob) error {
	ticker := time.NewTicker(p.claimInterval)
	defer ticker.Stop()

	for {
		if err := p.claim(ctx, queue); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Log.Error("Claiming video jobs failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-p.nudge:
		}
	}
}

// claim pulls pending jobs until the store runs dry.
func (p *Pool) claim(ctx context.Context, queue chan<- *models.VideoJob) error {
	for {
		claimed, err := p.jobs.ClaimPendingVideoJobs(ctx, p.claimBatch)
		if err != nil {
			return err
		}
		for _, job := range claimed {
			select {
			case queue <- job:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if len(claimed) < p.claimBatch {
			return nil
		}
	}
}

func (p *Pool) work(ctx context.Context, queue <-chan *models.VideoJob) {
	for job := range queue {
		metrics.VideoJobsInflight.Inc()
		if err := p.pipeline.Process(ctx, job); err != nil && ctx.Err() == nil {
			logger.Log.Error("Video job processing failed",
				zap.String("videoJobId", job.ID.String()),
				zap.String("videoId", job.VideoID.String()),
				zap.Error(err))
		}
		metrics.VideoJobsInflight.Dec()
	}
}

// reap returns stalled claims to the pending pool. A claim stalls when its
// worker died mid-run or the process was shut down before finishing.
func (p *Pool) reap(ctx context.Context) error {
	ticker := time.NewTicker(p.stallTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		reclaimed, err := p.jobs.ReclaimStalledVideoJobs(ctx, p.stallTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Log.Error("Reclaiming stalled jobs failed", zap.Error(err))
			continue
		}
		if reclaimed > 0 {
			metrics.StalledJobsReclaimedTotal.Add(float64(reclaimed))
			logger.Log.Warn("Re-queued stalled video jobs", zap.Int("count", reclaimed))
			p.Nudge()
		}
	}
}
