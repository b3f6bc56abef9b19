package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы запуска пайплайна (label outcome).
const (
	OutcomePublished    = "published"
	OutcomePending      = "pending_approval"
	OutcomeQualityGate  = "quality_gate_failed"
	OutcomeNoClusters   = "no_active_clusters"
	OutcomeFailed       = "failed"
	OutcomeCancelled    = "cancelled"
	OutcomeQuotaReached = "quota_reached"
)

var (
	// PipelineRuns — количество запусков пайплайна по исходу.
	PipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seoagent_pipeline_runs_total",
		Help: "Daily pipeline runs by outcome",
	}, []string{"outcome"})

	// StageFallbacks — сколько раз стадия ответила локальной заглушкой.
	StageFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seoagent_stage_fallbacks_total",
		Help: "Stage calls answered by the local fallback",
	}, []string{"stage"})

	// StageDuration — длительность вызова стадии, включая fallback.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "seoagent_stage_duration_seconds",
		Help:    "Stage call duration",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"stage"})

	// TriggersSkipped — срабатывания cron, пропущенные из-за квоты.
	TriggersSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seoagent_triggers_skipped_total",
		Help: "Scheduled triggers skipped because the daily quota is exhausted",
	})
)
