package orchestrator

import (
	"log/slog"

	"github.com/shaiso/seoagent/internal/config"
	"github.com/shaiso/seoagent/internal/repo"
	"github.com/shaiso/seoagent/internal/selector"
	"github.com/shaiso/seoagent/internal/stages"
)

// Deps — зависимости процесса, собранные из конфигурации.
type Deps struct {
	Orchestrator *Orchestrator
	Resolver     *config.Resolver

	Jobs     *repo.JobRepo
	Articles *repo.ArticleRepo
	Clusters *repo.ClusterRepo
	Settings *repo.SettingRepo
}

// Wire собирает Orchestrator поверх БД и HTTP-клиентов стадий.
func Wire(cfg *config.Config, db repo.DB, logger *slog.Logger) *Deps {
	if logger == nil {
		logger = slog.Default()
	}

	jobs := repo.NewJobRepo(db)
	articles := repo.NewArticleRepo(db)
	clusters := repo.NewClusterRepo(db)
	settings := repo.NewSettingRepo(db)

	resolver := config.NewResolver(settings, cfg.Defaults(), logger)

	remote := stages.NewClient(stages.ClientConfig{
		SerpIntelURL:    cfg.SerpIntelURL,
		ContentGenURL:   cfg.ContentGenURL,
		SEOOptimizerURL: cfg.SEOOptimizerURL,
		QualityGateURL:  cfg.QualityGateURL,
		PublisherURL:    cfg.PublisherURL,
		IntentTimeout:   cfg.IntentTimeout,
		DraftTimeout:    cfg.DraftTimeout,
		OptimizeTimeout: cfg.OptimizeTimeout,
		QualityTimeout:  cfg.QualityTimeout,
		PublishTimeout:  cfg.PublishTimeout,
	})

	orch := New(Config{
		Jobs:            jobs,
		Articles:        articles,
		Selector:        selector.New(clusters, nil),
		Stages:          stages.NewGateway(remote, stages.Fallback{}, logger),
		Resolver:        resolver,
		GlobalDryRun:    cfg.DryRun,
		FallbackPolicy:  cfg.FallbackPolicy(),
		DailyTokenQuota: cfg.DailyTokenQuota,
		StoreTimeout:    cfg.StoreTimeout,
		Logger:          logger,
	})

	return &Deps{
		Orchestrator: orch,
		Resolver:     resolver,
		Jobs:         jobs,
		Articles:     articles,
		Clusters:     clusters,
		Settings:     settings,
	}
}
