package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Job — запись об одном запуске пайплайна.
//
// Job создаётся в начале запуска и изменяется только оркестратором.
// Каждый созданный job должен получить ровно один финальный статус.
type Job struct {
	// ID — уникальный идентификатор job.
	ID uuid.UUID `json:"id"`

	// Type — тип job (пока только daily_run).
	Type JobType `json:"job_type"`

	// Status — текущий статус.
	Status JobStatus `json:"status"`

	// Payload — входные параметры (dry_run).
	Payload map[string]any `json:"payload,omitempty"`

	// Result — результат: article_id + published, либо error + scores.
	Result map[string]any `json:"result,omitempty"`

	// ErrorMessage — текст ошибки, если job завершился с FAILED.
	ErrorMessage string `json:"error_message,omitempty"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	// Nil у RUNNING job: такой job без процесса считается упавшим и требует ручной сверки.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CreatedAt — время создания записи.
	CreatedAt time.Time `json:"created_at"`
}

// NewDailyRunJob создаёт job ежедневного запуска сразу в статусе RUNNING.
func NewDailyRunJob(dryRun bool, now time.Time) *Job {
	return &Job{
		ID:        uuid.New(),
		Type:      JobTypeDailyRun,
		Status:    JobStatusRunning,
		Payload:   map[string]any{"dry_run": dryRun},
		StartedAt: &now,
		CreatedAt: now,
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если job ещё не завершён.
func (j *Job) Duration() time.Duration {
	if j.StartedAt == nil || j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(*j.StartedAt)
}

// IsFinished возвращает true, если job завершён (в любом статусе).
func (j *Job) IsFinished() bool {
	return j.Status.IsTerminal()
}

// MarkCompleted переводит job в статус COMPLETED с результатом.
// at — время завершения, из того же источника, что и StartedAt.
func (j *Job) MarkCompleted(result map[string]any, at time.Time) error {
	return j.finish(JobStatusCompleted, result, "", at)
}

// MarkFailed переводит job в статус FAILED с ошибкой.
func (j *Job) MarkFailed(errMsg string, at time.Time) error {
	return j.finish(JobStatusFailed, nil, errMsg, at)
}

// MarkCancelled переводит job в статус CANCELLED.
func (j *Job) MarkCancelled(reason string, at time.Time) error {
	return j.finish(JobStatusCancelled, nil, reason, at)
}

func (j *Job) finish(status JobStatus, result map[string]any, errMsg string, at time.Time) error {
	if j.Status.IsTerminal() {
		return fmt.Errorf("%w: %s is %s", ErrJobFinalized, j.ID, j.Status)
	}
	at = at.UTC()
	j.Status = status
	j.FinishedAt = &at
	if result != nil {
		j.Result = result
	}
	j.ErrorMessage = errMsg
	return nil
}
