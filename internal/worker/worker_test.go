package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/seoagent/internal/domain"
	"github.com/shaiso/seoagent/internal/mq"
	"github.com/shaiso/seoagent/internal/orchestrator"
	"github.com/shaiso/seoagent/internal/repo"
	"github.com/shaiso/seoagent/internal/selector"
	"github.com/shaiso/seoagent/internal/telemetry"
)

// --- Fakes ---

type fakeRunner struct {
	mu       sync.Mutex
	calls    []bool
	err      error
	deadline bool
}

func (f *fakeRunner) RunDailyPipeline(ctx context.Context, dryRun bool) (*orchestrator.RunResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dryRun)
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return &orchestrator.RunResult{JobID: uuid.New(), Error: f.err.Error()}, f.err
	}
	return &orchestrator.RunResult{JobID: uuid.New(), DryRun: dryRun}, nil
}

type fakeJobs struct {
	mu          sync.Mutex
	stale       []domain.Job
	listErr     error
	finalizeErr map[uuid.UUID]error
	finalized   []domain.Job
	before      time.Time
}

func (f *fakeJobs) ListStale(_ context.Context, startedBefore time.Time) ([]domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.before = startedBefore
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Job, len(f.stale))
	copy(out, f.stale)
	return out, nil
}

func (f *fakeJobs) Finalize(_ context.Context, job *domain.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.finalizeErr[job.ID]; err != nil {
		return err
	}
	f.finalized = append(f.finalized, *job)
	return nil
}

func (f *fakeJobs) finalizedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.finalized)
}

func newDailyRunMessage(t *testing.T, payload mq.DailyRunPayload) *mq.Message {
	t.Helper()
	msg, err := mq.NewMessage(mq.MessageTypeDailyRun, payload, time.Now())
	require.NoError(t, err)
	return msg
}

// --- handleDailyRun ---

func TestHandleDailyRun_Success(t *testing.T) {
	runner := &fakeRunner{}
	w := New(Config{Runner: runner, Logger: telemetry.Discard()})

	msg := newDailyRunMessage(t, mq.DailyRunPayload{DryRun: true, TriggeredBy: "cron"})
	require.NoError(t, w.handleDailyRun(context.Background(), msg))

	assert.Equal(t, []bool{true}, runner.calls)
	assert.True(t, runner.deadline, "запуск выполняется с таймаутом")
}

func TestHandleDailyRun_NoActiveClustersAcked(t *testing.T) {
	runner := &fakeRunner{err: selector.ErrNoActiveClusters}
	w := New(Config{Runner: runner, Logger: telemetry.Discard()})

	msg := newDailyRunMessage(t, mq.DailyRunPayload{})
	assert.NoError(t, w.handleDailyRun(context.Background(), msg))
	assert.Equal(t, []bool{false}, runner.calls)
}

func TestHandleDailyRun_FailureNacked(t *testing.T) {
	boom := errors.New("db down")
	w := New(Config{Runner: &fakeRunner{err: boom}, Logger: telemetry.Discard()})

	msg := newDailyRunMessage(t, mq.DailyRunPayload{})
	err := w.handleDailyRun(context.Background(), msg)
	assert.ErrorIs(t, err, boom)
}

func TestHandleDailyRun_UnexpectedType(t *testing.T) {
	runner := &fakeRunner{}
	w := New(Config{Runner: runner, Logger: telemetry.Discard()})

	msg := &mq.Message{ID: "m-1", Type: "job.unknown", Payload: json.RawMessage(`{}`)}
	err := w.handleDailyRun(context.Background(), msg)
	assert.ErrorIs(t, err, mq.ErrUnexpectedType)
	assert.Empty(t, runner.calls)
}

func TestHandleDailyRun_BadPayload(t *testing.T) {
	runner := &fakeRunner{}
	w := New(Config{Runner: runner, Logger: telemetry.Discard()})

	msg := &mq.Message{ID: "m-2", Type: mq.MessageTypeDailyRun, Payload: json.RawMessage(`"oops"`)}
	assert.Error(t, w.handleDailyRun(context.Background(), msg))
	assert.Empty(t, runner.calls)
}

// --- reapStale ---

func TestReapStale(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	started := now.Add(-3 * time.Hour)

	stuck := domain.NewDailyRunJob(false, started)
	raced := domain.NewDailyRunJob(false, started)
	broken := domain.NewDailyRunJob(false, started)

	jobs := &fakeJobs{
		stale: []domain.Job{*stuck, *raced, *broken},
		finalizeErr: map[uuid.UUID]error{
			raced.ID:  fmt.Errorf("finalize job: %w", repo.ErrInvalidState),
			broken.ID: errors.New("connection reset"),
		},
	}

	w := New(Config{
		Runner:     &fakeRunner{},
		Jobs:       jobs,
		StaleAfter: time.Hour,
		Now:        func() time.Time { return now },
		Logger:     telemetry.Discard(),
	})

	assert.Equal(t, 1, w.reapStale(context.Background()))
	assert.Equal(t, now.Add(-time.Hour), jobs.before)

	require.Len(t, jobs.finalized, 1)
	got := jobs.finalized[0]
	assert.Equal(t, stuck.ID, got.ID)
	assert.Equal(t, domain.JobStatusFailed, got.Status)
	assert.Equal(t, ErrStaleJob.Error(), got.ErrorMessage)
	assert.NotNil(t, got.FinishedAt)
}

func TestReapStale_ListError(t *testing.T) {
	w := New(Config{
		Runner: &fakeRunner{},
		Jobs:   &fakeJobs{listErr: errors.New("timeout")},
		Logger: telemetry.Discard(),
	})
	assert.Equal(t, 0, w.reapStale(context.Background()))
}

// --- Lifecycle ---

func TestWorker_StartStop(t *testing.T) {
	stuck := domain.NewDailyRunJob(true, time.Now().Add(-5*time.Hour))
	jobs := &fakeJobs{stale: []domain.Job{*stuck}}

	w := New(Config{Runner: &fakeRunner{}, Jobs: jobs, Logger: telemetry.Discard()})
	require.NoError(t, w.Start(context.Background()))

	// первый проход выполняется сразу при старте
	assert.Eventually(t, func() bool { return jobs.finalizedCount() == 1 }, time.Second, 5*time.Millisecond)

	w.Stop()
	assert.True(t, w.IsStopped())
}

func TestWorker_StartRequiresRunner(t *testing.T) {
	w := New(Config{Logger: telemetry.Discard()})
	assert.Error(t, w.Start(context.Background()))
}
