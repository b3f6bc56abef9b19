package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/seoagent/internal/config"
	"github.com/shaiso/seoagent/internal/domain"
	"github.com/shaiso/seoagent/internal/orchestrator"
	"github.com/shaiso/seoagent/internal/repo"
)

// JobReader — чтение jobs (repo.JobRepo).
type JobReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	List(ctx context.Context, filter repo.JobFilter) ([]domain.Job, error)
}

// ArticleReader — чтение статей (repo.ArticleRepo).
type ArticleReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Article, error)
	List(ctx context.Context, filter repo.ArticleFilter) ([]domain.Article, error)
}

// ClusterStore — кластеры и ключевые слова (repo.ClusterRepo).
type ClusterStore interface {
	List(ctx context.Context) ([]domain.Cluster, error)
	Create(ctx context.Context, c *domain.Cluster) error
	AddKeyword(ctx context.Context, k *domain.Keyword) error
}

// SettingStore — runtime overrides (repo.SettingRepo).
type SettingStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Pipeline — синхронный запуск пайплайна (orchestrator.Orchestrator).
type Pipeline interface {
	RunDailyPipeline(ctx context.Context, dryRun bool) (*orchestrator.RunResult, error)
}

// App — зависимости, с которыми работают команды.
type App struct {
	Jobs     JobReader
	Articles ArticleReader
	Clusters ClusterStore
	Settings SettingStore
	Pipeline Pipeline

	// Migrate применяет схему БД.
	Migrate func(ctx context.Context) error

	close func()
}

// Close освобождает ресурсы App.
func (a *App) Close() {
	if a.close != nil {
		a.close()
	}
}

// Open подключается к БД и собирает App из конфигурации.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pool, err := repo.NewPool(ctx, cfg.DBURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	deps := orchestrator.Wire(cfg, pool, logger)

	return &App{
		Jobs:     deps.Jobs,
		Articles: deps.Articles,
		Clusters: deps.Clusters,
		Settings: deps.Settings,
		Pipeline: deps.Orchestrator,
		Migrate: func(ctx context.Context) error {
			return repo.Migrate(ctx, pool)
		},
		close: pool.Close,
	}, nil
}

// AppFunc лениво создаёт App после парсинга флагов.
type AppFunc func(ctx context.Context) (*App, error)

// parseID разбирает UUID из аргумента команды.
func parseID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", arg, err)
	}
	return id, nil
}
