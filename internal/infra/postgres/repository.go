package postgres

import (
	"context"
	"fmt"

	"github.com/framesift/framesift-service/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// JobRepository persists capture jobs in the capture_jobs table. The worker
// is the only writer while a job is PROCESSING.
type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

const jobColumns = `id, video_id, video_url, report_key, status, frame_count,
	fallback_count, video_duration, attempt, max_attempts,
	error_message, created_at, updated_at, completed_at`

func (r *JobRepository) Create(ctx context.Context, job *entity.CaptureJob) error {
	query := `INSERT INTO capture_jobs (` + jobColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.VideoID, job.VideoURL, job.ReportKey, string(job.Status),
		job.FrameCount, job.FallbackCount, job.VideoDuration,
		job.Attempt, job.MaxAttempts, job.ErrorMessage,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.CaptureJob) error {
	query := `UPDATE capture_jobs SET
		video_id=$2, status=$3, report_key=$4, frame_count=$5,
		fallback_count=$6, video_duration=$7, attempt=$8,
		error_message=$9, updated_at=$10, completed_at=$11
	WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.VideoID, string(job.Status), job.ReportKey, job.FrameCount,
		job.FallbackCount, job.VideoDuration, job.Attempt,
		job.ErrorMessage, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.CaptureJob, error) {
	query := `SELECT ` + jobColumns + ` FROM capture_jobs WHERE id=$1`

	job, err := scanJob(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	return job, nil
}

func scanJob(row pgx.Row) (*entity.CaptureJob, error) {
	var (
		job    entity.CaptureJob
		status string
	)
	if err := row.Scan(
		&job.ID, &job.VideoID, &job.VideoURL, &job.ReportKey, &status,
		&job.FrameCount, &job.FallbackCount, &job.VideoDuration,
		&job.Attempt, &job.MaxAttempts, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	); err != nil {
		return nil, err
	}
	job.Status = entity.JobStatus(status)
	return &job, nil
}
