package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/seoagent/internal/domain"
	"github.com/shaiso/seoagent/internal/mq"
	"github.com/shaiso/seoagent/internal/orchestrator"
)

// Default configuration values.
const (
	defaultPollInterval = 10 * time.Minute
	defaultStaleAfter   = 2 * time.Hour
	defaultRunTimeout   = 30 * time.Minute
	defaultPrefetch     = 1
)

// Runner выполняет пайплайн (orchestrator.Orchestrator).
type Runner interface {
	RunDailyPipeline(ctx context.Context, dryRun bool) (*orchestrator.RunResult, error)
}

// StaleJobStore — поиск и закрытие зависших jobs (repo.JobRepo).
type StaleJobStore interface {
	ListStale(ctx context.Context, startedBefore time.Time) ([]domain.Job, error)
	Finalize(ctx context.Context, job *domain.Job) error
}

// Worker выполняет ежедневные запуски из очереди.
//
// Worker:
//   - Получает job.daily_run из очереди jobs.daily_run
//   - Выполняет RunDailyPipeline на каждое сообщение
//   - Периодически закрывает jobs, зависшие в running (упавший процесс)
//
// Несколько экземпляров могут потреблять из одной очереди;
// prefetch=1 ограничивает каждый одним запуском за раз.
type Worker struct {
	runner Runner
	jobs   StaleJobStore
	conn   *mq.Connection

	consumer *mq.Consumer

	// Configuration
	prefetch     int
	runTimeout   time.Duration
	pollInterval time.Duration
	staleAfter   time.Duration
	now          func() time.Time

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	Runner Runner

	// Jobs — опционально; без него зависшие jobs не закрываются.
	Jobs StaleJobStore

	// Conn — опционально; без него воркер не потребляет очередь.
	Conn *mq.Connection

	Prefetch     int           // default: 1
	RunTimeout   time.Duration // таймаут одного запуска (default: 30m)
	PollInterval time.Duration // интервал проверки зависших jobs (default: 10m)
	StaleAfter   time.Duration // job в running дольше — зависший (default: 2h)

	// Now — источник времени (default: time.Now).
	Now func() time.Time

	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}
	runTimeout := cfg.RunTimeout
	if runTimeout <= 0 {
		runTimeout = defaultRunTimeout
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	staleAfter := cfg.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		runner:       cfg.Runner,
		jobs:         cfg.Jobs,
		conn:         cfg.Conn,
		prefetch:     prefetch,
		runTimeout:   runTimeout,
		pollInterval: pollInterval,
		staleAfter:   staleAfter,
		now:          now,
		logger:       logger,
	}
}

// Start запускает Worker.
//
// Запускает:
//   - Consumer для jobs.daily_run (если есть соединение)
//   - Горутину закрытия зависших jobs (если есть хранилище)
func (w *Worker) Start(ctx context.Context) error {
	if w.runner == nil {
		return errors.New("worker: runner is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker",
		"prefetch", w.prefetch,
		"run_timeout", w.runTimeout,
		"stale_after", w.staleAfter,
	)

	if w.conn != nil {
		w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
			Queue:    mq.QueueDailyRun,
			Handler:  w.handleDailyRun,
			Prefetch: w.prefetch,
			Requeue:  false,
		})

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("daily run consumer error", "error", err)
			}
		}()
	} else {
		w.logger.Warn("no RabbitMQ connection, queue consumption disabled")
	}

	if w.jobs != nil {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.pollLoop(ctx)
		}()
	}

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker и ждёт завершения текущего запуска.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}

	if w.consumer != nil {
		w.consumer.Stop()
	}

	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}

// pollLoop — цикл закрытия зависших jobs.
func (w *Worker) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// первый проход сразу: jobs могли зависнуть, пока воркер был выключен
	w.reapStale(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.reapStale(ctx)
		}
	}
}
