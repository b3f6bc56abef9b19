// seoagent — инструмент командной строки: синхронный запуск пайплайна,
// просмотр jobs и статей, кластеры, runtime overrides, миграции.
//
// Использование:
//
//	seoagent [--json] <command> [subcommand] [flags]
//
// Команды:
//
//	run       Запуск пайплайна
//	job       Просмотр jobs
//	article   Просмотр статей
//	cluster   Управление кластерами
//	setting   Runtime overrides
//	migrate   Применение схемы БД
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/seoagent/internal/cli"
	"github.com/shaiso/seoagent/internal/config"
	"github.com/shaiso/seoagent/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var app *cli.App
	appFn := func(ctx context.Context) (*cli.App, error) {
		if app != nil {
			return app, nil
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		// логи в stderr, чтобы не мешать --json
		logger := telemetry.NewLogger(os.Stderr, cfg.LogLevel, "text")
		app, err = cli.Open(ctx, cfg, logger)
		return app, err
	}

	rootCmd := cli.NewRootCmd(version, appFn, os.Stdout, os.Stderr)
	err := rootCmd.ExecuteContext(ctx)
	if app != nil {
		app.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
