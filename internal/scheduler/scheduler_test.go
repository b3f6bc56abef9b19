package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/seoagent/internal/mq"
	"github.com/shaiso/seoagent/internal/orchestrator"
	"github.com/shaiso/seoagent/internal/telemetry"
)

var msk = time.FixedZone("MSK", 3*60*60)

type fakeEnqueuer struct {
	payloads []mq.DailyRunPayload
	err      error
}

func (f *fakeEnqueuer) PublishDailyRun(_ context.Context, payload mq.DailyRunPayload) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

type fakeRunner struct {
	calls []bool
	err   error
}

func (f *fakeRunner) RunDailyPipeline(_ context.Context, dryRun bool) (*orchestrator.RunResult, error) {
	f.calls = append(f.calls, dryRun)
	if f.err != nil {
		return nil, f.err
	}
	return &orchestrator.RunResult{JobID: uuid.New(), DryRun: dryRun}, nil
}

type fakeQuota struct {
	allowed bool
	limits  []int
}

func (f *fakeQuota) Acquire(_ context.Context, limit int) (bool, int64) {
	f.limits = append(f.limits, limit)
	return f.allowed, int64(len(f.limits))
}

type fixedLimit int

func (l fixedLimit) ArticlesPerDay(context.Context) int { return int(l) }

func TestNextFire(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{
			name: "same day before 06:00 MSK",
			from: time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC), // 05:00 MSK
			want: time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC),
		},
		{
			name: "next day after 06:00 MSK",
			from: time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC), // 07:00 MSK
			want: time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextFire(DefaultSpec, msk, tt.from)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextFire_InvalidExpr(t *testing.T) {
	_, err := NextFire("not a cron", time.UTC, time.Now())
	assert.Error(t, err)
	assert.Error(t, ValidateCronExpr("* * *"))
	assert.NoError(t, ValidateCronExpr("*/15 * * * 1-5"))
}

func TestLoadLocation(t *testing.T) {
	assert.Equal(t, time.UTC, LoadLocation(""))
	assert.Equal(t, time.UTC, LoadLocation("Nowhere/Unknown"))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Spec: "bad", Runner: &fakeRunner{}})
	assert.Error(t, err)

	_, err = New(Config{})
	assert.Error(t, err)

	_, err = New(Config{Runner: &fakeRunner{}, Quota: &fakeQuota{}})
	assert.Error(t, err)

	s, err := New(Config{Runner: &fakeRunner{}, Location: msk})
	require.NoError(t, err)
	from := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC), s.Next(from))
}

func TestFire_Enqueues(t *testing.T) {
	enq := &fakeEnqueuer{}
	runner := &fakeRunner{}
	q := &fakeQuota{allowed: true}

	s, err := New(Config{
		DryRun:   true,
		Enqueuer: enq,
		Runner:   runner,
		Quota:    q,
		Limits:   fixedLimit(3),
		Logger:   telemetry.Discard(),
	})
	require.NoError(t, err)

	require.NoError(t, s.Fire(context.Background()))

	require.Len(t, enq.payloads, 1)
	assert.Equal(t, mq.DailyRunPayload{DryRun: true, TriggeredBy: "cron"}, enq.payloads[0])
	assert.Equal(t, []int{3}, q.limits)
	assert.Empty(t, runner.calls, "с очередью пайплайн в процессе не выполняется")
}

func TestFire_QuotaReached(t *testing.T) {
	enq := &fakeEnqueuer{}

	s, err := New(Config{
		Enqueuer: enq,
		Quota:    &fakeQuota{allowed: false},
		Limits:   fixedLimit(1),
		Logger:   telemetry.Discard(),
	})
	require.NoError(t, err)

	err = s.Fire(context.Background())
	assert.ErrorIs(t, err, ErrQuotaReached)
	assert.Empty(t, enq.payloads)
}

func TestFire_EnqueueError(t *testing.T) {
	boom := errors.New("channel closed")
	s, err := New(Config{Enqueuer: &fakeEnqueuer{err: boom}, Logger: telemetry.Discard()})
	require.NoError(t, err)

	err = s.Fire(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestFire_InProcess(t *testing.T) {
	runner := &fakeRunner{}

	s, err := New(Config{Runner: runner, Logger: telemetry.Discard()})
	require.NoError(t, err)

	require.NoError(t, s.Fire(context.Background()))
	assert.Equal(t, []bool{false}, runner.calls)

	runner.err = errors.New("no active clusters")
	assert.ErrorIs(t, s.Fire(context.Background()), runner.err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s, err := New(Config{Runner: &fakeRunner{}, Logger: telemetry.Discard()})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestLeader_AcquireRelease(t *testing.T) {
	mock, err := pgxmock.NewConn()
	require.NoError(t, err)
	defer mock.Close(context.Background())

	mock.ExpectQuery("select pg_try_advisory_lock").
		WithArgs(LockKey).
		WillReturnRows(pgxmock.NewRows([]string{"ok"}).AddRow(true))
	mock.ExpectExec("select pg_advisory_unlock").
		WithArgs(LockKey).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))

	leader := NewLeader(mock, LockKey, telemetry.Discard())
	ctx := context.Background()

	ok, err := leader.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// лидер не обращается к БД повторно
	ok, err = leader.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, leader.Release(ctx))
	require.NoError(t, leader.Release(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeader_Wait(t *testing.T) {
	mock, err := pgxmock.NewConn()
	require.NoError(t, err)
	defer mock.Close(context.Background())

	mock.ExpectQuery("select pg_try_advisory_lock").
		WithArgs(LockKey).
		WillReturnRows(pgxmock.NewRows([]string{"ok"}).AddRow(false))
	mock.ExpectQuery("select pg_try_advisory_lock").
		WithArgs(LockKey).
		WillReturnRows(pgxmock.NewRows([]string{"ok"}).AddRow(true))

	leader := NewLeader(mock, LockKey, telemetry.Discard())
	require.NoError(t, leader.Wait(context.Background(), time.Millisecond))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeader_WaitCancelled(t *testing.T) {
	mock, err := pgxmock.NewConn()
	require.NoError(t, err)
	defer mock.Close(context.Background())

	mock.ExpectQuery("select pg_try_advisory_lock").
		WithArgs(LockKey).
		WillReturnRows(pgxmock.NewRows([]string{"ok"}).AddRow(false))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	leader := NewLeader(mock, LockKey, telemetry.Discard())
	assert.ErrorIs(t, leader.Wait(ctx, time.Hour), context.Canceled)
}
