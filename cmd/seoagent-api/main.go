// seoagent-api — HTTP API для операторов.
//
// API:
//   - Просмотр jobs и статей, одобрение статей
//   - Управление кластерами и runtime settings
//   - Постановка ежедневного запуска в очередь (POST /api/v1/jobs/run_daily)
//
// Пайплайн сам не выполняет, только публикует job.daily_run.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shaiso/seoagent/internal/api"
	"github.com/shaiso/seoagent/internal/config"
	"github.com/shaiso/seoagent/internal/mq"
	"github.com/shaiso/seoagent/internal/orchestrator"
	"github.com/shaiso/seoagent/internal/repo"
	"github.com/shaiso/seoagent/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		telemetry.SetupLogger("ERROR", "json").Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.LogLevel, cfg.LogFormat).With("service", "api")
	logger.Info("starting seoagent-api")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := repo.NewPool(ctx, cfg.DBURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	deps := orchestrator.Wire(cfg, pool, logger)

	apiCfg := api.Config{
		Jobs:     deps.Jobs,
		Articles: deps.Articles,
		Clusters: deps.Clusters,
		Settings: deps.Settings,
		Logger:   logger,
	}

	// RabbitMQ нужен только для run_daily
	mqConn, err := mq.NewConnection(cfg.RabbitMQURL, "api", logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, run_daily disabled", "error", err)
	} else {
		defer mqConn.Close()
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		apiCfg.Publisher = mq.NewPublisher(mqConn, logger)
	}

	mux := telemetry.NewMux()
	api.NewHandler(apiCfg).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("seoagent-api stopped")
}
