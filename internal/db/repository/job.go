package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/db"
	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IngestionJobRepository defines operations for ingestion jobs and their
// per-video sub-jobs.
type IngestionJobRepository interface {
	// CreateJobWithVideoJobs creates the parent job and all its sub-jobs in
	// one transaction.
	CreateJobWithVideoJobs(ctx context.Context, job *models.IngestionJob, videoJobs []*models.VideoJob) error

	// GetJobByID retrieves a single job by ID.
	GetJobByID(ctx context.Context, id uuid.UUID) (*models.IngestionJob, error)

	// GetVideoJobByID retrieves a single sub-job by ID.
	GetVideoJobByID(ctx context.Context, id uuid.UUID) (*models.VideoJob, error)

	// GetVideoJobByVideoID retrieves the most recent sub-job for a video.
	GetVideoJobByVideoID(ctx context.Context, videoID uuid.UUID) (*models.VideoJob, error)

	// ClaimPendingVideoJobs atomically claims up to limit pending sub-jobs
	// in FIFO order and marks their parent jobs running. Claimed jobs are
	// skipped by concurrent claimers.
	ClaimPendingVideoJobs(ctx context.Context, limit int) ([]*models.VideoJob, error)

	// UpdateVideoJobStage advances the sub-job's stage.
	UpdateVideoJobStage(ctx context.Context, id uuid.UUID, stage string) error

	// RecordVideoJobAttempt increments attempts and stores the error that
	// caused the retry.
	RecordVideoJobAttempt(ctx context.Context, id uuid.UUID, lastError string) error

	// FinishVideoJob finalizes a sub-job and releases its claim.
	FinishVideoJob(ctx context.Context, id uuid.UUID, status, stage string, lastError *string) error

	// GetVideoJobStatus reads just the status column, used as the
	// cancellation check between pipeline stages.
	GetVideoJobStatus(ctx context.Context, id uuid.UUID) (string, error)

	// CancelVideoJobsForVideo cancels outstanding sub-jobs for a video.
	CancelVideoJobsForVideo(ctx context.Context, videoID uuid.UUID) error

	// CancelVideoJobsForList cancels outstanding sub-jobs for every video in
	// a list.
	CancelVideoJobsForList(ctx context.Context, listID uuid.UUID) error

	// IncrementJobProgress adds to the parent job's completed/failed
	// counters and transitions it to completed once every sub-job is
	// accounted for. Returns the updated job.
	IncrementJobProgress(ctx context.Context, jobID uuid.UUID, completedDelta, failedDelta int) (*models.IngestionJob, error)

	// ResetVideoJobForRetry re-queues an errored or canceled sub-job from
	// the beginning. Completed stages are skipped by the pipeline because
	// their artifacts are already stored.
	ResetVideoJobForRetry(ctx context.Context, videoID uuid.UUID) (*models.VideoJob, error)

	// ReclaimStalledVideoJobs re-queues running sub-jobs whose claim is
	// older than the given age, returning how many were reclaimed.
	ReclaimStalledVideoJobs(ctx context.Context, olderThan time.Duration) (int, error)
}

type ingestionJobRepository struct {
	pool *pgxpool.Pool
}

// NewIngestionJobRepository creates a new IngestionJobRepository.
func NewIngestionJobRepository(pool *pgxpool.Pool) IngestionJobRepository {
	return &ingestionJobRepository{pool: pool}
}

func (r *ingestionJobRepository) CreateJobWithVideoJobs(ctx context.Context, job *models.IngestionJob, videoJobs []*models.VideoJob) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		jobInsert := `
			INSERT INTO ingestion_jobs (id, list_id, user_id, status, total, completed, failed, rejected_count, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING created_at, updated_at
		`
		err := tx.QueryRow(ctx, jobInsert,
			job.ID,
			job.ListID,
			job.UserID,
			job.Status,
			job.Total,
			job.Completed,
			job.Failed,
			job.RejectedCount,
			job.CreatedAt,
			job.UpdatedAt,
		).Scan(&job.CreatedAt, &job.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert ingestion job: %w", err)
		}

		videoJobInsert := `
			INSERT INTO video_jobs (id, job_id, video_id, status, stage, attempts, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		for _, vj := range videoJobs {
			if _, err := tx.Exec(ctx, videoJobInsert,
				vj.ID, vj.JobID, vj.VideoID, vj.Status, vj.Stage, vj.Attempts, vj.CreatedAt, vj.UpdatedAt); err != nil {
				return fmt.Errorf("insert video job: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		return db.WrapError(err, "create job with video jobs")
	}

	return nil
}

func (r *ingestionJobRepository) GetJobByID(ctx context.Context, id uuid.UUID) (*models.IngestionJob, error) {
	query := `
		SELECT id, list_id, user_id, status, total, completed, failed, rejected_count, created_at, updated_at
		FROM ingestion_jobs
		WHERE id = $1
	`

	job := &models.IngestionJob{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID,
		&job.ListID,
		&job.UserID,
		&job.Status,
		&job.Total,
		&job.Completed,
		&job.Failed,
		&job.RejectedCount,
		&job.CreatedAt,
		&job.UpdatedAt,
	)

	if err != nil {
		return nil, db.WrapError(err, "get job by id")
	}

	return job, nil
}

func (r *ingestionJobRepository) GetVideoJobByID(ctx context.Context, id uuid.UUID) (*models.VideoJob, error) {
	query := `
		SELECT id, job_id, video_id, status, stage, attempts, last_error, claimed_at, created_at, updated_at
		FROM video_jobs
		WHERE id = $1
	`

	return r.getVideoJob(ctx, query, id)
}

func (r *ingestionJobRepository) GetVideoJobByVideoID(ctx context.Context, videoID uuid.UUID) (*models.VideoJob, error) {
	query := `
		SELECT id, job_id, video_id, status, stage, attempts, last_error, claimed_at, created_at, updated_at
		FROM video_jobs
		WHERE video_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	return r.getVideoJob(ctx, query, videoID)
}

func (r *ingestionJobRepository) getVideoJob(ctx context.Context, query string, args ...any) (*models.VideoJob, error) {
	vj := &models.VideoJob{}
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&vj.ID,
		&vj.JobID,
		&vj.VideoID,
		&vj.Status,
		&vj.Stage,
		&vj.Attempts,
		&vj.LastError,
		&vj.ClaimedAt,
		&vj.CreatedAt,
		&vj.UpdatedAt,
	)

	if err != nil {
		return nil, db.WrapError(err, "get video job")
	}

	return vj, nil
}

func (r *ingestionJobRepository) ClaimPendingVideoJobs(ctx context.Context, limit int) ([]*models.VideoJob, error) {
	if limit <= 0 {
		return nil, nil
	}

	var claimed []*models.VideoJob

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		claim := `
			UPDATE video_jobs
			SET status = 'running', claimed_at = NOW(), updated_at = NOW()
			WHERE id IN (
				SELECT id FROM video_jobs
				WHERE status = 'pending'
				ORDER BY created_at, id
				LIMIT $1
				FOR UPDATE SKIP LOCKED
			)
			RETURNING id, job_id, video_id, status, stage, attempts, last_error, claimed_at, created_at, updated_at
		`

		rows, err := tx.Query(ctx, claim, limit)
		if err != nil {
			return fmt.Errorf("claim video jobs: %w", err)
		}

		claimed, err = scanVideoJobs(rows)
		rows.Close()
		if err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}

		jobIDs := make([]uuid.UUID, 0, len(claimed))
		for _, vj := range claimed {
			jobIDs = append(jobIDs, vj.JobID)
		}

		markRunning := `
			UPDATE ingestion_jobs
			SET status = 'running', updated_at = NOW()
			WHERE id = ANY($1) AND status = 'pending'
		`
		if _, err := tx.Exec(ctx, markRunning, jobIDs); err != nil {
			return fmt.Errorf("mark jobs running: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, db.WrapError(err, "claim pending video jobs")
	}

	return claimed, nil
}

func (r *ingestionJobRepository) UpdateVideoJobStage(ctx context.Context, id uuid.UUID, stage string) error {
	query := `
		UPDATE video_jobs
		SET stage = $2, updated_at = NOW()
		WHERE id = $1
	`

	cmd, err := r.pool.Exec(ctx, query, id, stage)
	if err != nil {
		return db.WrapError(err, "update video job stage")
	}
	if cmd.RowsAffected() == 0 {
		return db.ErrNotFound
	}

	return nil
}

func (r *ingestionJobRepository) RecordVideoJobAttempt(ctx context.Context, id uuid.UUID, lastError string) error {
	query := `
		UPDATE video_jobs
		SET attempts = attempts + 1, last_error = $2, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, id, lastError)
	if err != nil {
		return db.WrapError(err, "record video job attempt")
	}

	return nil
}

func (r *ingestionJobRepository) FinishVideoJob(ctx context.Context, id uuid.UUID, status, stage string, lastError *string) error {
	query := `
		UPDATE video_jobs
		SET status = $2, stage = $3, last_error = $4, claimed_at = NULL, updated_at = NOW()
		WHERE id = $1
	`

	cmd, err := r.pool.Exec(ctx, query, id, status, stage, lastError)
	if err != nil {
		return db.WrapError(err, "finish video job")
	}
	if cmd.RowsAffected() == 0 {
		return db.ErrNotFound
	}

	return nil
}

func (r *ingestionJobRepository) GetVideoJobStatus(ctx context.Context, id uuid.UUID) (string, error) {
	query := `SELECT status FROM video_jobs WHERE id = $1`

	var status string
	if err := r.pool.QueryRow(ctx, query, id).Scan(&status); err != nil {
		return "", db.WrapError(err, "get video job status")
	}

	return status, nil
}

func (r *ingestionJobRepository) CancelVideoJobsForVideo(ctx context.Context, videoID uuid.UUID) error {
	query := `
		UPDATE video_jobs
		SET status = 'canceled', updated_at = NOW()
		WHERE video_id = $1 AND status IN ('pending', 'running')
	`

	_, err := r.pool.Exec(ctx, query, videoID)
	if err != nil {
		return db.WrapError(err, "cancel video jobs for video")
	}

	return nil
}

func (r *ingestionJobRepository) CancelVideoJobsForList(ctx context.Context, listID uuid.UUID) error {
	query := `
		UPDATE video_jobs
		SET status = 'canceled', updated_at = NOW()
		WHERE status IN ('pending', 'running')
		  AND video_id IN (SELECT id FROM videos WHERE list_id = $1)
	`

	_, err := r.pool.Exec(ctx, query, listID)
	if err != nil {
		return db.WrapError(err, "cancel video jobs for list")
	}

	return nil
}

func (r *ingestionJobRepository) IncrementJobProgress(ctx context.Context, jobID uuid.UUID, completedDelta, failedDelta int) (*models.IngestionJob, error) {
	query := `
		UPDATE ingestion_jobs
		SET completed = completed + $2,
		    failed = failed + $3,
		    status = CASE
		        WHEN status = 'canceled' THEN status
		        WHEN completed + $2 + failed + $3 >= total THEN 'completed'
		        ELSE status
		    END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, list_id, user_id, status, total, completed, failed, rejected_count, created_at, updated_at
	`

	job := &models.IngestionJob{}
	err := r.pool.QueryRow(ctx, query, jobID, completedDelta, failedDelta).Scan(
		&job.ID,
		&job.ListID,
		&job.UserID,
		&job.Status,
		&job.Total,
		&job.Completed,
		&job.Failed,
		&job.RejectedCount,
		&job.CreatedAt,
		&job.UpdatedAt,
	)

	if err != nil {
		return nil, db.WrapError(err, "increment job progress")
	}

	return job, nil
}

func (r *ingestionJobRepository) ResetVideoJobForRetry(ctx context.Context, videoID uuid.UUID) (*models.VideoJob, error) {
	var vj *models.VideoJob

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		reset := `
			UPDATE video_jobs
			SET status = 'pending', stage = 'created', attempts = 0,
			    last_error = NULL, claimed_at = NULL, updated_at = NOW()
			WHERE id = (
				SELECT id FROM video_jobs
				WHERE video_id = $1 AND status IN ('error', 'canceled')
				ORDER BY created_at DESC
				LIMIT 1
			)
			RETURNING id, job_id, video_id, status, stage, attempts, last_error, claimed_at, created_at, updated_at
		`

		vj = &models.VideoJob{}
		err := tx.QueryRow(ctx, reset, videoID).Scan(
			&vj.ID,
			&vj.JobID,
			&vj.VideoID,
			&vj.Status,
			&vj.Stage,
			&vj.Attempts,
			&vj.LastError,
			&vj.ClaimedAt,
			&vj.CreatedAt,
			&vj.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("reset video job: %w", err)
		}

		// The sub-job was counted as failed; give the parent its slot back.
		reopen := `
			UPDATE ingestion_jobs
			SET failed = GREATEST(failed - 1, 0),
			    status = CASE WHEN status = 'completed' THEN 'running' ELSE status END,
			    updated_at = NOW()
			WHERE id = $1
		`
		if _, err := tx.Exec(ctx, reopen, vj.JobID); err != nil {
			return fmt.Errorf("reopen ingestion job: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, db.WrapError(err, "reset video job for retry")
	}

	return vj, nil
}

func (r *ingestionJobRepository) ReclaimStalledVideoJobs(ctx context.Context, olderThan time.Duration) (int, error) {
	query := `
		UPDATE video_jobs
		SET status = 'pending', claimed_at = NULL, updated_at = NOW()
		WHERE status = 'running' AND claimed_at < NOW() - make_interval(secs => $1)
	`

	cmd, err := r.pool.Exec(ctx, query, olderThan.Seconds())
	if err != nil {
		return 0, db.WrapError(err, "reclaim stalled video jobs")
	}

	return int(cmd.RowsAffected()), nil
}

func scanVideoJobs(rows pgx.Rows) ([]*models.VideoJob, error) {
	var jobs []*models.VideoJob

	for rows.Next() {
		vj := &models.VideoJob{}
		err := rows.Scan(
			&vj.ID,
			&vj.JobID,
			&vj.VideoID,
			&vj.Status,
			&vj.Stage,
			&vj.Attempts,
			&vj.LastError,
			&vj.ClaimedAt,
			&vj.CreatedAt,
			&vj.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan video job: %w", err)
		}
		jobs = append(jobs, vj)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate video jobs: %w", err)
	}

	return jobs, nil
}
