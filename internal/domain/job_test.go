package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDailyRunJob(t *testing.T) {
	now := time.Date(2026, 10, 17, 6, 0, 0, 0, time.UTC)

	job := NewDailyRunJob(true, now)

	assert.Equal(t, JobTypeDailyRun, job.Type)
	assert.Equal(t, JobStatusRunning, job.Status)
	assert.Equal(t, true, job.Payload["dry_run"])
	require.NotNil(t, job.StartedAt)
	assert.True(t, job.StartedAt.Equal(now))
	assert.Nil(t, job.FinishedAt)
	assert.False(t, job.IsFinished())
}

func TestJob_MarkCompleted(t *testing.T) {
	start := time.Date(2026, 10, 17, 6, 0, 0, 0, time.UTC)
	job := NewDailyRunJob(false, start)

	err := job.MarkCompleted(map[string]any{"published": true}, start.Add(90*time.Second))

	require.NoError(t, err)
	assert.Equal(t, JobStatusCompleted, job.Status)
	require.NotNil(t, job.FinishedAt)
	assert.Equal(t, 90*time.Second, job.Duration())
	assert.Equal(t, true, job.Result["published"])
	assert.True(t, job.IsFinished())
}

func TestJob_MarkFailed(t *testing.T) {
	start := time.Date(2026, 10, 17, 6, 0, 0, 0, time.UTC)
	job := NewDailyRunJob(false, start)

	require.NoError(t, job.MarkFailed("boom", start.Add(time.Minute)))

	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "boom", job.ErrorMessage)
	require.NotNil(t, job.FinishedAt)
	assert.True(t, job.FinishedAt.Equal(start.Add(time.Minute)))
}

func TestJob_FinishedAtStoredInUTC(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	start := time.Date(2026, 10, 17, 9, 0, 0, 0, msk)
	job := NewDailyRunJob(false, start)

	require.NoError(t, job.MarkCancelled("ctx", start.Add(time.Second)))

	assert.Equal(t, time.UTC, job.FinishedAt.Location())
	assert.Equal(t, time.Second, job.Duration())
}

func TestJob_FinalizeOnlyOnce(t *testing.T) {
	tests := []struct {
		name   string
		first  func(*Job) error
		second func(*Job) error
		want   JobStatus
	}{
		{
			name:   "completed then failed",
			first:  func(j *Job) error { return j.MarkCompleted(nil, time.Now()) },
			second: func(j *Job) error { return j.MarkFailed("late", time.Now()) },
			want:   JobStatusCompleted,
		},
		{
			name:   "failed then completed",
			first:  func(j *Job) error { return j.MarkFailed("boom", time.Now()) },
			second: func(j *Job) error { return j.MarkCompleted(nil, time.Now()) },
			want:   JobStatusFailed,
		},
		{
			name:   "cancelled then failed",
			first:  func(j *Job) error { return j.MarkCancelled("ctx", time.Now()) },
			second: func(j *Job) error { return j.MarkFailed("late", time.Now()) },
			want:   JobStatusCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewDailyRunJob(false, time.Now())
			require.NoError(t, tt.first(job))

			err := tt.second(job)

			assert.True(t, errors.Is(err, ErrJobFinalized))
			assert.Equal(t, tt.want, job.Status)
		})
	}
}

func TestJobStatus_IsTerminal(t *testing.T) {
	assert.False(t, JobStatusPending.IsTerminal())
	assert.False(t, JobStatusRunning.IsTerminal())
	assert.True(t, JobStatusCompleted.IsTerminal())
	assert.True(t, JobStatusFailed.IsTerminal())
	assert.True(t, JobStatusCancelled.IsTerminal())
}

func TestParsePublishMode(t *testing.T) {
	mode, ok := ParsePublishMode("auto")
	assert.True(t, ok)
	assert.Equal(t, PublishModeAuto, mode)

	_, ok = ParsePublishMode("AUTO")
	assert.False(t, ok)

	_, ok = ParsePublishMode("")
	assert.False(t, ok)
}

func TestParseRegion(t *testing.T) {
	r, ok := ParseRegion("rf")
	assert.True(t, ok)
	assert.Equal(t, RegionRF, r)

	_, ok = ParseRegion("spb")
	assert.False(t, ok)
}
