package stages

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/seoagent/internal/telemetry"
)

// Gateway — устойчивая обёртка над удалённой и локальной реализациями.
//
// Каждый вызов сначала идёт в remote; при любой ошибке возвращается
// результат local с Degraded=true. Методы Gateway не возвращают ошибок.
type Gateway struct {
	remote Stages
	local  Stages
	logger *slog.Logger
}

// NewGateway создаёт Gateway. local == nil означает Fallback{}.
func NewGateway(remote, local Stages, logger *slog.Logger) *Gateway {
	if local == nil {
		local = Fallback{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{remote: remote, local: local, logger: logger}
}

// AnalyzeIntent — стадия intent.
func (g *Gateway) AnalyzeIntent(ctx context.Context, req IntentRequest) *IntentResult {
	res := resilient(g, ctx, StageIntent,
		func(ctx context.Context) (*IntentResult, error) { return g.remote.AnalyzeIntent(ctx, req) },
		func(ctx context.Context) (*IntentResult, error) { return g.local.AnalyzeIntent(ctx, req) },
		func(r *IntentResult) { r.Degraded = true },
	)
	if res.SuggestedStructure == nil {
		res.SuggestedStructure = map[string]any{}
	}
	return res
}

// GenerateDraft — стадия draft.
func (g *Gateway) GenerateDraft(ctx context.Context, req DraftRequest) *DraftResult {
	return resilient(g, ctx, StageDraft,
		func(ctx context.Context) (*DraftResult, error) { return g.remote.GenerateDraft(ctx, req) },
		func(ctx context.Context) (*DraftResult, error) { return g.local.GenerateDraft(ctx, req) },
		func(r *DraftResult) { r.Degraded = true },
	)
}

// Optimize — стадия optimize.
func (g *Gateway) Optimize(ctx context.Context, req OptimizeRequest) *OptimizeResult {
	return resilient(g, ctx, StageOptimize,
		func(ctx context.Context) (*OptimizeResult, error) { return g.remote.Optimize(ctx, req) },
		func(ctx context.Context) (*OptimizeResult, error) { return g.local.Optimize(ctx, req) },
		func(r *OptimizeResult) { r.Degraded = true },
	)
}

// CheckQuality — стадия quality.
func (g *Gateway) CheckQuality(ctx context.Context, req QualityRequest) *QualityResult {
	return resilient(g, ctx, StageQuality,
		func(ctx context.Context) (*QualityResult, error) { return g.remote.CheckQuality(ctx, req) },
		func(ctx context.Context) (*QualityResult, error) { return g.local.CheckQuality(ctx, req) },
		func(r *QualityResult) { r.Degraded = true },
	)
}

// Publish — стадия publish.
func (g *Gateway) Publish(ctx context.Context, req PublishRequest) *PublishResult {
	return resilient(g, ctx, StagePublish,
		func(ctx context.Context) (*PublishResult, error) { return g.remote.Publish(ctx, req) },
		func(ctx context.Context) (*PublishResult, error) { return g.local.Publish(ctx, req) },
		func(r *PublishResult) { r.Degraded = true },
	)
}

// resilient вызывает remote, при ошибке — local, и помечает результат.
// remote == nil в Gateway означает работу только на заглушках.
func resilient[T any](
	g *Gateway,
	ctx context.Context,
	stage Stage,
	remote, local func(context.Context) (*T, error),
	markDegraded func(*T),
) *T {
	start := time.Now()
	defer func() {
		telemetry.StageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
	}()

	var remoteErr error
	if g.remote != nil {
		res, err := remote(ctx)
		if err == nil && res != nil {
			return res
		}
		remoteErr = err
	}

	logger := telemetry.WithStage(g.logger, string(stage))
	logger.Warn("stage.degraded", "error", remoteErr)
	telemetry.StageFallbacks.WithLabelValues(string(stage)).Inc()

	res, err := local(ctx)
	if err != nil || res == nil {
		logger.Error("stage fallback failed", "error", err)
		res = new(T)
	}
	markDegraded(res)
	return res
}
