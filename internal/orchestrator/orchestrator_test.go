package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/seoagent/internal/config"
	"github.com/shaiso/seoagent/internal/domain"
	"github.com/shaiso/seoagent/internal/selector"
	"github.com/shaiso/seoagent/internal/stages"
	"github.com/shaiso/seoagent/internal/telemetry"
)

// --- Fakes ---

type fakeJobs struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]domain.Job
	finalized []domain.Job
	createErr error
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: make(map[uuid.UUID]domain.Job)}
}

func (f *fakeJobs) Create(_ context.Context, job *domain.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.jobs[job.ID] = *job
	return nil
}

func (f *fakeJobs) Finalize(ctx context.Context, job *domain.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.finalizeLocked(job)
}

func (f *fakeJobs) finalizeLocked(job *domain.Job) error {
	stored, ok := f.jobs[job.ID]
	if !ok || stored.Status != domain.JobStatusRunning {
		return errors.New("job is not running")
	}
	f.jobs[job.ID] = *job
	f.finalized = append(f.finalized, *job)
	return nil
}

func (f *fakeJobs) only(t *testing.T) domain.Job {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.jobs, 1)
	for _, j := range f.jobs {
		return j
	}
	return domain.Job{}
}

type fakeArticles struct {
	jobs     *fakeJobs
	articles []domain.Article
	calls    int
	err      error
}

func (f *fakeArticles) CreateAndCompleteJob(_ context.Context, article *domain.Article, job *domain.Job) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.jobs.mu.Lock()
	defer f.jobs.mu.Unlock()
	if err := f.jobs.finalizeLocked(job); err != nil {
		return err
	}
	f.articles = append(f.articles, *article)
	return nil
}

type fakeClusters struct {
	clusters map[domain.Region][]domain.Cluster
	keywords map[uuid.UUID][]domain.Keyword
}

func (f *fakeClusters) ListActiveByRegion(_ context.Context, region domain.Region) ([]domain.Cluster, error) {
	return f.clusters[region], nil
}

func (f *fakeClusters) Keywords(_ context.Context, id uuid.UUID) ([]domain.Keyword, error) {
	return f.keywords[id], nil
}

type mapSettings map[string]string

func (m mapSettings) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

// scriptedStages — удалённые стадии: по умолчанию недоступны.
type scriptedStages struct {
	optimize *stages.OptimizeResult
	quality  *stages.QualityResult
	publish *stages.PublishResult
	onDraft func()
}

var errUnreachable = errors.New("connection refused")

func (s *scriptedStages) AnalyzeIntent(context.Context, stages.IntentRequest) (*stages.IntentResult, error) {
	return nil, errUnreachable
}

func (s *scriptedStages) GenerateDraft(context.Context, stages.DraftRequest) (*stages.DraftResult, error) {
	if s.onDraft != nil {
		s.onDraft()
	}
	return nil, errUnreachable
}

func (s *scriptedStages) Optimize(context.Context, stages.OptimizeRequest) (*stages.OptimizeResult, error) {
	if s.optimize != nil {
		res := *s.optimize
		return &res, nil
	}
	return nil, errUnreachable
}

func (s *scriptedStages) CheckQuality(context.Context, stages.QualityRequest) (*stages.QualityResult, error) {
	if s.quality != nil {
		return s.quality, nil
	}
	return nil, errUnreachable
}

func (s *scriptedStages) Publish(_ context.Context, req stages.PublishRequest) (*stages.PublishResult, error) {
	if s.publish != nil {
		res := *s.publish
		res.AsDraft = req.AsDraft
		return &res, nil
	}
	return nil, errUnreachable
}

// --- Harness ---

var fixedNow = time.Date(2026, 10, 17, 6, 0, 0, 0, time.UTC)

type harness struct {
	jobs     *fakeJobs
	articles *fakeArticles
	clusters *fakeClusters
	remote   *scriptedStages
	settings mapSettings
	cfg      Config
}

func newHarness() *harness {
	jobs := newFakeJobs()
	buh := domain.Cluster{ID: uuid.New(), Name: "Бухгалтер", Region: domain.RegionMoscow, Slug: "buhgalter", IsActive: true}
	h := &harness{
		jobs:     jobs,
		articles: &fakeArticles{jobs: jobs},
		clusters: &fakeClusters{
			clusters: map[domain.Region][]domain.Cluster{domain.RegionMoscow: {buh}},
			keywords: map[uuid.UUID][]domain.Keyword{buh.ID: {{ClusterID: buh.ID, Keyword: "бухгалтер москва"}}},
		},
		remote:   &scriptedStages{},
		settings: mapSettings{config.KeyPublishMode: "semi"},
	}
	h.cfg = Config{GlobalDryRun: true, Now: func() time.Time { return fixedNow }}
	return h
}

func (h *harness) build() *Orchestrator {
	logger := telemetry.Discard()
	cfg := h.cfg
	cfg.Jobs = h.jobs
	cfg.Articles = h.articles
	cfg.Selector = selector.New(h.clusters, func() float64 { return 0.5 })
	cfg.Stages = stages.NewGateway(h.remote, nil, logger)
	cfg.Resolver = config.NewResolver(h.settings, config.Defaults{}, logger)
	cfg.Logger = logger
	return New(cfg)
}

// finalizeCount — сколько раз job получил финальный статус.
func (h *harness) finalizeCount() int {
	return len(h.jobs.finalized)
}

// --- RunDailyPipeline ---

func TestRunDailyPipeline_DryRunSemi(t *testing.T) {
	h := newHarness()

	res, err := h.build().RunDailyPipeline(context.Background(), true)
	require.NoError(t, err)

	require.Len(t, h.articles.articles, 1)
	article := h.articles.articles[0]
	assert.Equal(t, domain.ArticleStatusPendingApproval, article.Status)
	assert.Equal(t, "бухгалтер москва", article.TargetKeyword)
	assert.Equal(t, "Бухгалтер", article.Title)
	assert.Equal(t, "buhgalter-2026-10-17", article.Slug)
	assert.Equal(t, res.JobID, article.JobID)

	job := h.jobs.only(t)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, false, job.Result["published"])
	assert.Equal(t, article.ID.String(), job.Result["article_id"])
	assert.NotNil(t, job.FinishedAt)

	assert.False(t, res.Published)
	require.NotNil(t, res.ArticleID)
	assert.Equal(t, article.ID, *res.ArticleID)
	assert.Equal(t, 1, h.finalizeCount())
}

func TestRunDailyPipeline_OversizedRemoteFieldsTrimmed(t *testing.T) {
	h := newHarness()
	h.settings[config.KeyPublishMode] = "auto"
	h.cfg.GlobalDryRun = false
	h.remote.optimize = &stages.OptimizeResult{
		FinalMarkdown:   "# final",
		MetaTitle:       strings.Repeat("м", 300),
		MetaDescription: strings.Repeat("d", 600),
	}
	h.remote.publish = &stages.PublishResult{
		PageID: strings.Repeat("p", 100),
		URL:    "https://example.com/p",
	}

	res, err := h.build().RunDailyPipeline(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, res.Published)

	require.Len(t, h.articles.articles, 1)
	article := h.articles.articles[0]
	assert.Equal(t, domain.ArticleStatusPublished, article.Status)
	assert.Equal(t, domain.MaxMetaTitleLen, utf8.RuneCountInString(article.MetaTitle))
	assert.Len(t, article.MetaDescription, domain.MaxMetaDescriptionLen)
	assert.Len(t, article.PublisherPageID, domain.MaxPublisherPageIDLen)
	assert.Equal(t, domain.JobStatusCompleted, h.jobs.only(t).Status)
}

func TestRunDailyPipeline_LongClusterSlugWithPublisherDown(t *testing.T) {
	h := newHarness()
	h.clusters.clusters[domain.RegionMoscow][0].Slug = strings.Repeat("buhgalterskie-uslugi-", 12)

	_, err := h.build().RunDailyPipeline(context.Background(), true)
	require.NoError(t, err)

	require.Len(t, h.articles.articles, 1)
	assert.LessOrEqual(t, len(h.articles.articles[0].PublisherPageID), domain.MaxPublisherPageIDLen)
	assert.Empty(t, h.articles.articles[0].FitColumns())
	assert.Equal(t, domain.JobStatusCompleted, h.jobs.only(t).Status)
}

func TestRunDailyPipeline_FinishedAtFromInjectedClock(t *testing.T) {
	h := newHarness()
	var mu sync.Mutex
	clock := fixedNow
	h.cfg.Now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}

	_, err := h.build().RunDailyPipeline(context.Background(), true)
	require.NoError(t, err)

	job := h.jobs.only(t)
	require.NotNil(t, job.StartedAt)
	require.NotNil(t, job.FinishedAt)
	assert.True(t, job.FinishedAt.After(*job.StartedAt))
	assert.Less(t, job.Duration(), time.Minute)
}

func TestRunDailyPipeline_AutoPublishLive(t *testing.T) {
	h := newHarness()
	h.settings[config.KeyPublishMode] = "auto"
	h.cfg.GlobalDryRun = false
	h.remote.publish = &stages.PublishResult{PageID: "page-42", URL: "https://example.tilda.ws/buhgalter"}

	res, err := h.build().RunDailyPipeline(context.Background(), false)
	require.NoError(t, err)

	require.Len(t, h.articles.articles, 1)
	article := h.articles.articles[0]
	assert.Equal(t, domain.ArticleStatusPublished, article.Status)
	assert.Equal(t, "page-42", article.PublisherPageID)

	job := h.jobs.only(t)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, true, job.Result["published"])
	assert.True(t, res.Published)
	assert.False(t, res.PublishDegraded)
}

func TestRunDailyPipeline_PublishPolicyVetoes(t *testing.T) {
	tests := []struct {
		name         string
		dryRun       bool
		mode         string
		globalDryRun bool
	}{
		{"caller dry run", true, "auto", false},
		{"semi mode", false, "semi", false},
		{"global switch", false, "auto", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.settings[config.KeyPublishMode] = tt.mode
			h.cfg.GlobalDryRun = tt.globalDryRun
			h.remote.publish = &stages.PublishResult{PageID: "p"}

			res, err := h.build().RunDailyPipeline(context.Background(), tt.dryRun)
			require.NoError(t, err)
			assert.False(t, res.Published)
			require.Len(t, h.articles.articles, 1)
			assert.Equal(t, domain.ArticleStatusPendingApproval, h.articles.articles[0].Status)
		})
	}
}

func TestRunDailyPipeline_StrictDegradedPublish(t *testing.T) {
	h := newHarness()
	h.settings[config.KeyPublishMode] = "auto"
	h.cfg.GlobalDryRun = false

	res, err := h.build().RunDailyPipeline(context.Background(), false)
	require.NoError(t, err)

	assert.False(t, res.Published)
	assert.True(t, res.PublishDegraded)
	require.Len(t, h.articles.articles, 1)
	article := h.articles.articles[0]
	assert.Equal(t, domain.ArticleStatusPendingApproval, article.Status)
	assert.Equal(t, stages.FallbackPageID("buhgalter-2026-10-17"), article.PublisherPageID)

	job := h.jobs.only(t)
	assert.Equal(t, false, job.Result["published"])
	assert.Equal(t, true, job.Result["publish_degraded"])
}

func TestRunDailyPipeline_OptimisticDegradedPublish(t *testing.T) {
	h := newHarness()
	h.settings[config.KeyPublishMode] = "auto"
	h.cfg.GlobalDryRun = false
	h.cfg.FallbackPolicy = config.FallbackOptimistic

	res, err := h.build().RunDailyPipeline(context.Background(), false)
	require.NoError(t, err)

	assert.True(t, res.Published)
	assert.True(t, res.PublishDegraded)
	assert.Equal(t, domain.ArticleStatusPublished, h.articles.articles[0].Status)
}

func TestRunDailyPipeline_QualityGateFailed(t *testing.T) {
	h := newHarness()
	h.remote.quality = &stages.QualityResult{Pass: false, Uniqueness: 0.3, Details: "too short"}

	res, err := h.build().RunDailyPipeline(context.Background(), true)
	require.NoError(t, err)

	assert.Empty(t, h.articles.articles)
	assert.Equal(t, 0, h.articles.calls)

	job := h.jobs.only(t)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, "quality_gate_failed", job.Result["error"])
	scores, ok := job.Result["scores"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, scores["pass"])

	assert.Equal(t, "quality_gate_failed", res.Error)
	assert.Nil(t, res.ArticleID)
	assert.Equal(t, 1, h.finalizeCount())
}

func TestRunDailyPipeline_NoActiveClusters(t *testing.T) {
	h := newHarness()
	h.clusters.clusters = nil

	res, err := h.build().RunDailyPipeline(context.Background(), true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, selector.ErrNoActiveClusters))

	job := h.jobs.only(t)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Contains(t, job.ErrorMessage, "no active clusters")
	assert.NotNil(t, job.FinishedAt)

	require.NotNil(t, res)
	assert.Equal(t, job.ID, res.JobID)
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, h.articles.articles)
	assert.Equal(t, 1, h.finalizeCount())
}

func TestRunDailyPipeline_StorageErrorFailsJob(t *testing.T) {
	h := newHarness()
	storeErr := errors.New("connection reset by peer")
	h.articles.err = storeErr

	_, err := h.build().RunDailyPipeline(context.Background(), true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storeErr))

	job := h.jobs.only(t)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Contains(t, job.ErrorMessage, "connection reset by peer")
	assert.Empty(t, h.articles.articles)
	assert.Equal(t, 1, h.finalizeCount())
}

func TestRunDailyPipeline_CreateJobError(t *testing.T) {
	h := newHarness()
	h.jobs.createErr = errors.New("db down")

	res, err := h.build().RunDailyPipeline(context.Background(), true)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, 0, h.finalizeCount())
}

func TestRunDailyPipeline_CancelledBetweenStages(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.remote.onDraft = cancel

	res, err := h.build().RunDailyPipeline(ctx, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	job := h.jobs.only(t)
	assert.Equal(t, domain.JobStatusCancelled, job.Status)
	assert.NotNil(t, job.FinishedAt)
	assert.Empty(t, h.articles.articles)
	assert.Equal(t, 1, h.finalizeCount())
	assert.NotEmpty(t, res.Error)
}

func TestRunDailyPipeline_FinalizesExactlyOncePerPath(t *testing.T) {
	setups := map[string]func(h *harness){
		"completed":   func(h *harness) {},
		"quality":     func(h *harness) { h.remote.quality = &stages.QualityResult{Pass: false} },
		"no clusters": func(h *harness) { h.clusters.clusters = nil },
	}

	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			h := newHarness()
			setup(h)
			_, _ = h.build().RunDailyPipeline(context.Background(), true)
			assert.Equal(t, 1, h.finalizeCount())
			assert.True(t, h.jobs.only(t).Status.IsTerminal())
		})
	}
}

// --- RunState ---

func TestRunState_Advance(t *testing.T) {
	s := NewRunState(&domain.Job{ID: uuid.New()})
	assert.Equal(t, PhaseCreated, s.Phase())

	require.NoError(t, s.Advance(PhaseSelecting))
	require.NoError(t, s.Advance(PhaseAnalyzing))
	assert.Error(t, s.Advance(PhaseSelecting))
	assert.Error(t, s.Advance(PhaseAnalyzing))
	assert.Equal(t, "analyzing", s.Phase().String())
}

func TestRunState_FinalizeOnce(t *testing.T) {
	s := NewRunState(&domain.Job{ID: uuid.New()})
	writes := 0
	write := func() error { writes++; return nil }

	require.NoError(t, s.finalize(PhaseCompleted, write))
	assert.True(t, s.Finalized())
	assert.Equal(t, PhaseCompleted, s.Phase())

	err := s.finalize(PhaseFailed, write)
	assert.True(t, errors.Is(err, ErrAlreadyFinalized))
	assert.Equal(t, 1, writes)
	assert.Equal(t, PhaseCompleted, s.Phase())
	assert.Error(t, s.Advance(PhaseFinalizing))
}

func TestRunState_FailedWriteAllowsRetryPath(t *testing.T) {
	s := NewRunState(&domain.Job{ID: uuid.New()})

	err := s.finalize(PhaseCompleted, func() error { return errors.New("tx aborted") })
	require.Error(t, err)
	assert.False(t, s.Finalized())

	require.NoError(t, s.finalize(PhaseFailed, func() error { return nil }))
	assert.Equal(t, PhaseFailed, s.Phase())
	assert.Equal(t, 2, s.FinalizeAttempts())
}
