package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/seoagent/internal/mq"
	"github.com/shaiso/seoagent/internal/orchestrator"
	"github.com/shaiso/seoagent/internal/telemetry"
)

// ErrQuotaReached — суточный лимит запусков исчерпан, срабатывание пропущено.
var ErrQuotaReached = errors.New("daily quota reached")

// Enqueuer ставит запуск в очередь (mq.Publisher).
type Enqueuer interface {
	PublishDailyRun(ctx context.Context, payload mq.DailyRunPayload) error
}

// Runner выполняет запуск в текущем процессе (orchestrator.Orchestrator).
type Runner interface {
	RunDailyPipeline(ctx context.Context, dryRun bool) (*orchestrator.RunResult, error)
}

// Quota — суточный счётчик запусков (quota.Quota).
type Quota interface {
	Acquire(ctx context.Context, limit int) (allowed bool, used int64)
}

// LimitResolver — источник articles_per_day (config.Resolver).
type LimitResolver interface {
	ArticlesPerDay(ctx context.Context) int
}

// Config — конфигурация Scheduler.
type Config struct {
	// Spec — cron-выражение (default: DefaultSpec).
	Spec string

	// Location — часовой пояс расписания (default: UTC).
	Location *time.Location

	// DryRun — значение dry_run для запусков по расписанию.
	DryRun bool

	// Enqueuer — очередь; если nil, запуск выполняется через Runner.
	Enqueuer Enqueuer
	Runner   Runner

	// Quota — опционально; без неё лимит не проверяется.
	Quota  Quota
	Limits LimitResolver

	Logger *slog.Logger
}

// Scheduler по расписанию запускает ежедневный пайплайн.
type Scheduler struct {
	spec     string
	loc      *time.Location
	dryRun   bool
	enqueuer Enqueuer
	runner   Runner
	quota    Quota
	limits   LimitResolver
	logger   *slog.Logger
}

// New создаёт Scheduler. Нужен Enqueuer или Runner.
func New(cfg Config) (*Scheduler, error) {
	spec := cfg.Spec
	if spec == "" {
		spec = DefaultSpec
	}
	if err := ValidateCronExpr(spec); err != nil {
		return nil, err
	}
	if cfg.Enqueuer == nil && cfg.Runner == nil {
		return nil, errors.New("scheduler: enqueuer or runner is required")
	}
	if cfg.Quota != nil && cfg.Limits == nil {
		return nil, errors.New("scheduler: quota requires a limit resolver")
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		spec:     spec,
		loc:      loc,
		dryRun:   cfg.DryRun,
		enqueuer: cfg.Enqueuer,
		runner:   cfg.Runner,
		quota:    cfg.Quota,
		limits:   cfg.Limits,
		logger:   logger,
	}, nil
}

// Fire обрабатывает одно срабатывание расписания.
//
// 1. Проверяет суточную квоту (articles_per_day)
// 2. Публикует job.daily_run в RabbitMQ
// 3. Без очереди выполняет пайплайн в текущем процессе
//
// Возвращает ErrQuotaReached, если срабатывание пропущено.
func (s *Scheduler) Fire(ctx context.Context) error {
	if s.quota != nil {
		limit := s.limits.ArticlesPerDay(ctx)
		allowed, used := s.quota.Acquire(ctx, limit)
		if !allowed {
			telemetry.TriggersSkipped.Inc()
			telemetry.PipelineRuns.WithLabelValues(telemetry.OutcomeQuotaReached).Inc()
			s.logger.Info("trigger skipped, daily quota reached",
				"used", used,
				"limit", limit,
			)
			return ErrQuotaReached
		}
		s.logger.Debug("quota acquired", "used", used, "limit", limit)
	}

	if s.enqueuer != nil {
		payload := mq.DailyRunPayload{DryRun: s.dryRun, TriggeredBy: "cron"}
		if err := s.enqueuer.PublishDailyRun(ctx, payload); err != nil {
			return fmt.Errorf("enqueue daily run: %w", err)
		}
		s.logger.Info("daily run enqueued", "dry_run", s.dryRun)
		return nil
	}

	result, err := s.runner.RunDailyPipeline(ctx, s.dryRun)
	if err != nil {
		return fmt.Errorf("run daily pipeline: %w", err)
	}
	s.logger.Info("daily run completed",
		"job_id", result.JobID,
		"published", result.Published,
		"error", result.Error,
	)
	return nil
}

// Next возвращает ближайшее срабатывание после from.
func (s *Scheduler) Next(from time.Time) time.Time {
	next, _ := NextFire(s.spec, s.loc, from)
	return next
}

// Run запускает cron и блокируется до отмены ctx.
// Срабатывание, пришедшее во время незавершённого запуска, пропускается.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithLocation(s.loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	_, err := c.AddFunc(s.spec, func() {
		if err := s.Fire(ctx); err != nil && !errors.Is(err, ErrQuotaReached) {
			s.logger.Error("scheduled trigger failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}

	c.Start()
	s.logger.Info("scheduler started",
		"spec", s.spec,
		"timezone", s.loc.String(),
		"next", s.Next(time.Now()),
	)

	<-ctx.Done()

	// ждём завершения текущего срабатывания
	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}
