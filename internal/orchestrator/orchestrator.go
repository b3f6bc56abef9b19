package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/seoagent/internal/config"
	"github.com/shaiso/seoagent/internal/domain"
	"github.com/shaiso/seoagent/internal/policy"
	"github.com/shaiso/seoagent/internal/selector"
	"github.com/shaiso/seoagent/internal/stages"
	"github.com/shaiso/seoagent/internal/telemetry"
)

const defaultStoreTimeout = 10 * time.Second

// JobStore — запись jobs (repo.JobRepo).
type JobStore interface {
	Create(ctx context.Context, job *domain.Job) error
	Finalize(ctx context.Context, job *domain.Job) error
}

// ArticleStore — запись статьи вместе с завершением job (repo.ArticleRepo).
type ArticleStore interface {
	CreateAndCompleteJob(ctx context.Context, article *domain.Article, job *domain.Job) error
}

// WorkSelector — выбор кластера (selector.Selector).
type WorkSelector interface {
	Select(ctx context.Context, moscowShare float64) (*selector.Selection, error)
}

// StageGateway — стадии пайплайна без ошибок (stages.Gateway).
type StageGateway interface {
	AnalyzeIntent(ctx context.Context, req stages.IntentRequest) *stages.IntentResult
	GenerateDraft(ctx context.Context, req stages.DraftRequest) *stages.DraftResult
	Optimize(ctx context.Context, req stages.OptimizeRequest) *stages.OptimizeResult
	CheckQuality(ctx context.Context, req stages.QualityRequest) *stages.QualityResult
	Publish(ctx context.Context, req stages.PublishRequest) *stages.PublishResult
}

// SettingsResolver — настройки запуска (config.Resolver).
type SettingsResolver interface {
	Resolve(ctx context.Context) config.RunConfig
}

// Config — конфигурация Orchestrator.
type Config struct {
	Jobs     JobStore
	Articles ArticleStore
	Selector WorkSelector
	Stages   StageGateway
	Resolver SettingsResolver

	// GlobalDryRun — глобальный предохранитель DRY_RUN.
	GlobalDryRun bool

	// FallbackPolicy — как записывать live-публикацию, выполненную заглушкой
	// (default: strict).
	FallbackPolicy config.FallbackPolicy

	// DailyTokenQuota — только логируется при старте запуска.
	DailyTokenQuota int

	// StoreTimeout — таймаут каждой операции с хранилищем (default: 10s).
	StoreTimeout time.Duration

	// Now — источник времени (default: time.Now).
	Now func() time.Time

	Logger *slog.Logger
}

// Orchestrator выполняет ежедневный пайплайн.
// Рассчитан на один запуск за раз в пределах процесса.
type Orchestrator struct {
	jobs     JobStore
	articles ArticleStore
	selector WorkSelector
	stages   StageGateway
	resolver SettingsResolver

	globalDryRun    bool
	fallbackPolicy  config.FallbackPolicy
	dailyTokenQuota int
	storeTimeout    time.Duration
	now             func() time.Time
	logger          *slog.Logger
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	storeTimeout := cfg.StoreTimeout
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}

	fallbackPolicy := cfg.FallbackPolicy
	if fallbackPolicy != config.FallbackOptimistic {
		fallbackPolicy = config.FallbackStrict
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		jobs:            cfg.Jobs,
		articles:        cfg.Articles,
		selector:        cfg.Selector,
		stages:          cfg.Stages,
		resolver:        cfg.Resolver,
		globalDryRun:    cfg.GlobalDryRun,
		fallbackPolicy:  fallbackPolicy,
		dailyTokenQuota: cfg.DailyTokenQuota,
		storeTimeout:    storeTimeout,
		now:             now,
		logger:          logger,
	}
}

// RunResult — итог одного запуска.
type RunResult struct {
	JobID           uuid.UUID      `json:"job_id"`
	ArticleID       *uuid.UUID     `json:"article_id,omitempty"`
	ClusterID       *uuid.UUID     `json:"cluster_id,omitempty"`
	DryRun          bool           `json:"dry_run"`
	Published       bool           `json:"published"`
	PublishDegraded bool           `json:"publish_degraded"`
	Error           string         `json:"error,omitempty"`
	Scores          map[string]any `json:"scores,omitempty"`
}

// RunDailyPipeline выполняет один запуск пайплайна.
//
// Ошибка возвращается только при отсутствии активных кластеров
// (selector.ErrNoActiveClusters), ошибке хранилища или отмене ctx.
// Недоступность стадий и непрохождение quality gate — штатные исходы,
// они отражаются в RunResult. Если job был создан, RunResult возвращается
// и вместе с ошибкой.
func (o *Orchestrator) RunDailyPipeline(ctx context.Context, dryRun bool) (*RunResult, error) {
	rc := o.resolver.Resolve(ctx)
	o.logger.Info("daily pipeline started",
		"dry_run", dryRun,
		"daily_token_quota", o.dailyTokenQuota,
		"publish_mode", rc.PublishMode,
		"moscow_share", rc.MoscowShare,
	)

	job := domain.NewDailyRunJob(dryRun, o.now())
	if err := o.store(ctx, func(ctx context.Context) error { return o.jobs.Create(ctx, job) }); err != nil {
		telemetry.PipelineRuns.WithLabelValues(telemetry.OutcomeFailed).Inc()
		return nil, fmt.Errorf("create job: %w", err)
	}

	state := NewRunState(job)
	logger := telemetry.WithJobID(o.logger, job.ID.String())
	logger.Info("job.created", "dry_run", dryRun)

	result := &RunResult{JobID: job.ID, DryRun: dryRun}

	err := o.execute(ctx, state, rc, result, logger)
	switch {
	case err == nil:
		telemetry.PipelineRuns.WithLabelValues(outcomeOf(result)).Inc()
		return result, nil

	case ctx.Err() != nil:
		result.Error = ctx.Err().Error()
		o.cancel(ctx, state, logger)
		telemetry.PipelineRuns.WithLabelValues(telemetry.OutcomeCancelled).Inc()
		return result, fmt.Errorf("run cancelled: %w", ctx.Err())

	default:
		result.Error = err.Error()
		err = o.fail(ctx, state, err, logger)
		outcome := telemetry.OutcomeFailed
		if errors.Is(err, selector.ErrNoActiveClusters) {
			outcome = telemetry.OutcomeNoClusters
		}
		telemetry.PipelineRuns.WithLabelValues(outcome).Inc()
		return result, err
	}
}

// execute проходит фазы от выбора кластера до финализации.
func (o *Orchestrator) execute(ctx context.Context, state *RunState, rc config.RunConfig, result *RunResult, logger *slog.Logger) error {
	// Selecting
	if err := o.enter(ctx, state, PhaseSelecting); err != nil {
		return err
	}
	sel, err := o.selector.Select(ctx, rc.MoscowShare)
	if err != nil {
		return fmt.Errorf("select cluster: %w", err)
	}
	cluster := sel.Cluster
	logger = telemetry.WithClusterID(logger, cluster.ID.String())
	logger.Info("cluster.selected", "cluster", cluster.Name, "region", cluster.Region, "keyword", sel.Keyword)

	// Analyzing
	if err := o.enter(ctx, state, PhaseAnalyzing); err != nil {
		return err
	}
	intent := o.stages.AnalyzeIntent(ctx, stages.IntentRequest{
		Keyword: sel.Keyword,
		Region:  string(cluster.Region),
	})
	logger.Info("intent.analyzed", "keyword", sel.Keyword, "degraded", intent.Degraded)

	// Drafting
	if err := o.enter(ctx, state, PhaseDrafting); err != nil {
		return err
	}
	draft := o.stages.GenerateDraft(ctx, stages.DraftRequest{
		Topic:              cluster.Name,
		Keyword:            sel.Keyword,
		Region:             string(cluster.Region),
		SuggestedStructure: intent.SuggestedStructure,
		IntentSummary:      intent.IntentSummary,
	})
	logger.Info("draft.generated", "length", len(draft.Markdown), "degraded", draft.Degraded)

	// Optimizing
	if err := o.enter(ctx, state, PhaseOptimizing); err != nil {
		return err
	}
	opt := o.stages.Optimize(ctx, stages.OptimizeRequest{Draft: draft.Markdown, Keyword: sel.Keyword})
	finalText := opt.FinalMarkdown
	if finalText == "" {
		finalText = draft.Markdown
	}
	logger.Info("content.optimized", "degraded", opt.Degraded)

	// Gating
	if err := o.enter(ctx, state, PhaseGating); err != nil {
		return err
	}
	quality := o.stages.CheckQuality(ctx, stages.QualityRequest{Text: finalText})
	scores := quality.Scores()
	result.Scores = scores
	if !quality.Pass {
		logger.Warn("quality.failed", "scores", scores)
		return o.completeRejected(ctx, state, result)
	}
	logger.Info("quality.passed", "uniqueness", quality.Uniqueness, "degraded", quality.Degraded)

	// Publishing
	if err := o.enter(ctx, state, PhasePublishing); err != nil {
		return err
	}
	now := o.now()
	live := policy.ShouldPublishLive(result.DryRun, rc.PublishMode, o.globalDryRun)
	slug := cluster.Slug + "-" + now.UTC().Format("2006-01-02")
	pub := o.stages.Publish(ctx, stages.PublishRequest{
		Title:           cluster.Name,
		Slug:            slug,
		Content:         finalText,
		MetaTitle:       opt.MetaTitle,
		MetaDescription: opt.MetaDescription,
		AsDraft:         !live,
	})

	published := live
	if pub.Degraded {
		result.PublishDegraded = true
		if live && o.fallbackPolicy == config.FallbackStrict {
			published = false
			logger.Warn("publish stage degraded, article kept for approval", "policy", o.fallbackPolicy)
		} else if live {
			logger.Warn("publish stage degraded, recording local publish", "policy", o.fallbackPolicy)
		}
	}
	if published {
		logger.Info("publish.live", "url", pub.URL)
	} else {
		logger.Info("publish.draft", "page_id", pub.PageID)
	}

	// Finalizing
	if err := o.enter(ctx, state, PhaseFinalizing); err != nil {
		return err
	}
	status := domain.ArticleStatusPendingApproval
	if published {
		status = domain.ArticleStatusPublished
	}
	article := &domain.Article{
		ID:              uuid.New(),
		ClusterID:       cluster.ID,
		JobID:           state.Job.ID,
		Title:           cluster.Name,
		Slug:            slug,
		Status:          status,
		TargetKeyword:   sel.Keyword,
		DraftMarkdown:   draft.Markdown,
		FinalMarkdown:   finalText,
		MetaTitle:       opt.MetaTitle,
		MetaDescription: opt.MetaDescription,
		FAQ:             opt.FAQ,
		StructuredData:  opt.StructuredData,
		PublisherPageID: pub.PageID,
		PublisherURL:    pub.URL,
		QualityScores:   scores,
		CreatedAt:       now.UTC(),
	}
	if trimmed := article.FitColumns(); len(trimmed) > 0 {
		logger.Warn("article fields trimmed to column width", "fields", trimmed)
	}

	result.ArticleID = &article.ID
	result.ClusterID = &cluster.ID
	result.Published = published

	return o.completeWithArticle(ctx, state, article, result)
}

// enter проверяет отмену и переводит запуск в следующую фазу.
func (o *Orchestrator) enter(ctx context.Context, state *RunState, next Phase) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return state.Advance(next)
}

// completeRejected завершает job без статьи: quality gate не пройден.
func (o *Orchestrator) completeRejected(ctx context.Context, state *RunState, result *RunResult) error {
	result.Error = ErrQualityGateFailed.Error()

	job := *state.Job
	if err := job.MarkCompleted(map[string]any{
		"error":  ErrQualityGateFailed.Error(),
		"scores": result.Scores,
	}, o.now()); err != nil {
		return err
	}

	return state.finalize(PhaseCompleted, func() error {
		if err := o.store(ctx, func(ctx context.Context) error { return o.jobs.Finalize(ctx, &job) }); err != nil {
			return fmt.Errorf("finalize job: %w", err)
		}
		*state.Job = job
		return nil
	})
}

// completeWithArticle сохраняет статью и завершает job одной транзакцией.
func (o *Orchestrator) completeWithArticle(ctx context.Context, state *RunState, article *domain.Article, result *RunResult) error {
	job := *state.Job
	if err := job.MarkCompleted(map[string]any{
		"article_id":       article.ID.String(),
		"cluster_id":       article.ClusterID.String(),
		"published":        result.Published,
		"publish_degraded": result.PublishDegraded,
	}, o.now()); err != nil {
		return err
	}

	return state.finalize(PhaseCompleted, func() error {
		err := o.store(ctx, func(ctx context.Context) error {
			return o.articles.CreateAndCompleteJob(ctx, article, &job)
		})
		if err != nil {
			return fmt.Errorf("save article: %w", err)
		}
		*state.Job = job
		return nil
	})
}

// fail финализирует job как failed и возвращает исходную ошибку.
func (o *Orchestrator) fail(ctx context.Context, state *RunState, cause error, logger *slog.Logger) error {
	logger.Error("job.failed", "error", cause, "phase", state.Phase())

	if err := state.Job.MarkFailed(cause.Error(), o.now()); err != nil {
		return errors.Join(cause, err)
	}
	ferr := state.finalize(PhaseFailed, func() error {
		return o.detachedStore(ctx, func(ctx context.Context) error { return o.jobs.Finalize(ctx, state.Job) })
	})
	if ferr != nil {
		logger.Error("failed to finalize job", "error", ferr)
		return errors.Join(cause, ferr)
	}
	return cause
}

// cancel финализирует job как cancelled. ctx уже отменён,
// поэтому запись идёт через отвязанный контекст с таймаутом.
func (o *Orchestrator) cancel(ctx context.Context, state *RunState, logger *slog.Logger) {
	reason := ctx.Err().Error()
	logger.Warn("job.cancelled", "reason", reason, "phase", state.Phase())

	if err := state.Job.MarkCancelled(reason, o.now()); err != nil {
		logger.Error("failed to mark job cancelled", "error", err)
		return
	}
	err := state.finalize(PhaseCancelled, func() error {
		return o.detachedStore(ctx, func(ctx context.Context) error { return o.jobs.Finalize(ctx, state.Job) })
	})
	if err != nil {
		logger.Error("failed to finalize cancelled job", "error", err)
	}
}

// store выполняет операцию с хранилищем с таймаутом.
func (o *Orchestrator) store(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, o.storeTimeout)
	defer cancel()
	return fn(ctx)
}

// detachedStore — store, переживающий отмену родительского ctx.
func (o *Orchestrator) detachedStore(ctx context.Context, fn func(context.Context) error) error {
	return o.store(context.WithoutCancel(ctx), fn)
}

// outcomeOf возвращает label исхода успешного запуска.
func outcomeOf(r *RunResult) string {
	switch {
	case r.Error == ErrQualityGateFailed.Error():
		return telemetry.OutcomeQualityGate
	case r.Published:
		return telemetry.OutcomePublished
	default:
		return telemetry.OutcomePending
	}
}
