package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/seoagent/internal/domain"
	"github.com/shaiso/seoagent/internal/mq"
	"github.com/shaiso/seoagent/internal/repo"
)

// JobStore — чтение jobs (repo.JobRepo).
type JobStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	List(ctx context.Context, filter repo.JobFilter) ([]domain.Job, error)
}

// ArticleStore — статьи и их одобрение (repo.ArticleRepo).
type ArticleStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Article, error)
	List(ctx context.Context, filter repo.ArticleFilter) ([]domain.Article, error)
	Approve(ctx context.Context, id uuid.UUID, publish bool) (*domain.Article, error)
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

// Enqueuer ставит ежедневный запуск в очередь (mq.Publisher).
type Enqueuer interface {
	PublishDailyRun(ctx context.Context, payload mq.DailyRunPayload) error
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	jobs      JobStore
	articles  ArticleStore
	clusters  ClusterStore
	settings  SettingStore
	publisher Enqueuer
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Jobs     JobStore
	Articles ArticleStore
	Clusters ClusterStore
	Settings SettingStore

	// Publisher — опционально; без него POST /jobs/run_daily отвечает 503.
	Publisher Enqueuer

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		jobs:      cfg.Jobs,
		articles:  cfg.Articles,
		clusters:  cfg.Clusters,
		settings:  cfg.Settings,
		publisher: cfg.Publisher,
		logger:    logger,
	}
}
