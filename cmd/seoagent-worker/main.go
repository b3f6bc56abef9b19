// seoagent-worker — выполняет ежедневные запуски пайплайна.
//
// Worker:
//   - Получает job.daily_run из RabbitMQ (jobs.daily_run)
//   - Выполняет RunDailyPipeline на каждое сообщение
//   - Закрывает jobs, зависшие в running после падения процесса
//
// Workers масштабируются горизонтально.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/seoagent/internal/config"
	"github.com/shaiso/seoagent/internal/mq"
	"github.com/shaiso/seoagent/internal/orchestrator"
	"github.com/shaiso/seoagent/internal/repo"
	"github.com/shaiso/seoagent/internal/telemetry"
	"github.com/shaiso/seoagent/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		telemetry.SetupLogger("ERROR", "json").Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.LogLevel, cfg.LogFormat).With("service", "worker")
	logger.Info("starting seoagent-worker", "dry_run", cfg.DryRun)

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx, cfg.DBURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	deps := orchestrator.Wire(cfg, pool, logger)

	// RabbitMQ
	mqConn, err := mq.NewConnection(cfg.RabbitMQURL, "worker", logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, queue consumption disabled", "error", err)
		mqConn = nil
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
	}

	w := worker.New(worker.Config{
		Runner: deps.Orchestrator,
		Jobs:   deps.Jobs,
		Conn:   mqConn,
		Logger: logger,
	})

	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// /healthz + /metrics
	go func() {
		if err := telemetry.Serve(ctx, cfg.WorkerPort, logger); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	w.Stop()
	logger.Info("seoagent-worker stopped")
}
