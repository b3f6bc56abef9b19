package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shaiso/seoagent/internal/domain"
)

// JobRepo — репозиторий для работы с jobs.
type JobRepo struct {
	db DB
}

// NewJobRepo создаёт новый JobRepo.
func NewJobRepo(db DB) *JobRepo {
	return &JobRepo{db: db}
}

const jobColumns = `id, job_type, status, payload, result, error_message, started_at, finished_at, created_at`

// Create создаёт новый job.
func (r *JobRepo) Create(ctx context.Context, job *domain.Job) error {
	payloadJSON, err := marshalMap(job.Payload)
	if err != nil {
		return fmt.Errorf("payload: %w", err)
	}
	resultJSON, err := marshalMap(job.Result)
	if err != nil {
		return fmt.Errorf("result: %w", err)
	}

	query := `
		INSERT INTO jobs (id, job_type, status, payload, result, error_message, started_at, finished_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.Exec(ctx, query,
		job.ID,
		string(job.Type),
		string(job.Status),
		payloadJSON,
		resultJSON,
		nullString(job.ErrorMessage),
		job.StartedAt,
		job.FinishedAt,
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// GetByID возвращает job по ID.
func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	return scanJob(r.db.QueryRow(ctx, query, id))
}

// Finalize сохраняет финальный статус job.
//
// Обновляет только job в статусе running: повторная финализация
// возвращает ErrInvalidState и ничего не меняет.
func (r *JobRepo) Finalize(ctx context.Context, job *domain.Job) error {
	return finalizeJob(ctx, r.db, job)
}

// List возвращает список jobs с фильтрацией.
func (r *JobRepo) List(ctx context.Context, filter JobFilter) ([]domain.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query,
		nullString(string(filter.Status)),
		normalizeLimit(filter.Limit),
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// ListStale возвращает jobs, застрявшие в running дольше заданного времени.
// Такие jobs остались от упавшего процесса и требуют ручной сверки.
func (r *JobRepo) ListStale(ctx context.Context, startedBefore time.Time) ([]domain.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE status = 'running' AND finished_at IS NULL AND started_at < $1
		ORDER BY started_at ASC
	`
	rows, err := r.db.Query(ctx, query, startedBefore)
	if err != nil {
		return nil, fmt.Errorf("list stale jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// --- Helpers ---

// JobFilter — параметры фильтрации jobs.
type JobFilter struct {
	Status domain.JobStatus
	Limit  int
	Offset int
}

// finalizeJob обновляет running job до финального статуса.
func finalizeJob(ctx context.Context, db execer, job *domain.Job) error {
	if !job.Status.IsTerminal() {
		return fmt.Errorf("%w: job %s has non-terminal status %s", ErrInvalidState, job.ID, job.Status)
	}
	resultJSON, err := marshalMap(job.Result)
	if err != nil {
		return fmt.Errorf("result: %w", err)
	}

	query := `
		UPDATE jobs
		SET status = $2, result = $3, error_message = $4, finished_at = $5
		WHERE id = $1 AND status = 'running'
	`
	tag, err := db.Exec(ctx, query,
		job.ID,
		string(job.Status),
		resultJSON,
		nullString(job.ErrorMessage),
		job.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("finalize job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: job %s is not running", ErrInvalidState, job.ID)
	}
	return nil
}

// scanJob сканирует одну строку в Job.
func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	var jobType, status string
	var payloadJSON, resultJSON []byte
	var errMsg *string

	err := row.Scan(
		&job.ID,
		&jobType,
		&status,
		&payloadJSON,
		&resultJSON,
		&errMsg,
		&job.StartedAt,
		&job.FinishedAt,
		&job.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}

	job.Type = domain.JobType(jobType)
	job.Status = domain.JobStatus(status)
	job.ErrorMessage = derefString(errMsg)

	if job.Payload, err = unmarshalMap(payloadJSON); err != nil {
		return nil, fmt.Errorf("payload: %w", err)
	}
	if job.Result, err = unmarshalMap(resultJSON); err != nil {
		return nil, fmt.Errorf("result: %w", err)
	}
	return &job, nil
}
