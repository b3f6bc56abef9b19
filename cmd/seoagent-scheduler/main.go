// seoagent-scheduler — ставит ежедневный запуск в очередь по cron.
//
// Несколько экземпляров безопасны: расписание исполняет только
// лидер (pg_try_advisory_lock). Без RabbitMQ лидер выполняет пайплайн сам.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/shaiso/seoagent/internal/config"
	"github.com/shaiso/seoagent/internal/mq"
	"github.com/shaiso/seoagent/internal/orchestrator"
	"github.com/shaiso/seoagent/internal/quota"
	"github.com/shaiso/seoagent/internal/repo"
	"github.com/shaiso/seoagent/internal/scheduler"
	"github.com/shaiso/seoagent/internal/telemetry"
)

const leaderPollInterval = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		telemetry.SetupLogger("ERROR", "json").Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.LogLevel, cfg.LogFormat).With("service", "scheduler")
	logger.Info("starting seoagent-scheduler", "spec", cfg.DailyCron, "timezone", cfg.CronTimezone)

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
	loc := scheduler.LoadLocation(cfg.CronTimezone)

	schedCfg := scheduler.Config{
		Spec:     cfg.DailyCron,
		Location: loc,
		DryRun:   cfg.DryRun,
		Runner:   deps.Orchestrator,
		Limits:   deps.Resolver,
		Logger:   logger,
	}

	// RabbitMQ
	mqConn, err := mq.NewConnection(cfg.RabbitMQURL, "scheduler", logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running pipeline in-process", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		schedCfg.Enqueuer = mq.NewPublisher(mqConn, logger)
	}

	// Redis quota
	rdb, err := quota.NewClient(cfg.RedisURL)
	if err != nil {
		logger.Warn("invalid REDIS_URL, daily quota disabled", "error", err)
	} else {
		defer rdb.Close()
		schedCfg.Quota = quota.New(rdb, quota.Config{Location: loc, Logger: logger})
	}

	sched, err := scheduler.New(schedCfg)
	if err != nil {
		logger.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}

	// /healthz + /metrics
	go func() {
		if err := telemetry.Serve(ctx, cfg.SchedPort, logger); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// advisory lock держится на выделенном соединении
	conn, err := pool.Acquire(ctx)
	if err != nil {
		logger.Error("failed to acquire lock connection", "error", err)
		os.Exit(1)
	}
	defer conn.Release()

	leader := scheduler.NewLeader(conn, scheduler.LockKey, logger)
	defer func() {
		if err := leader.Release(context.Background()); err != nil {
			logger.Warn("failed to release leadership", "error", err)
		}
	}()

	if err := leader.Wait(ctx, leaderPollInterval); err != nil {
		logger.Info("seoagent-scheduler stopped before becoming leader")
		return
	}

	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler failed", "error", err)
	}
	logger.Info("seoagent-scheduler stopped")
}
