package stages

import (
	"context"
	"encoding/json"
)

// Stage — имя стадии (label метрик и логов).
type Stage string

const (
	StageIntent   Stage = "intent"
	StageDraft    Stage = "draft"
	StageOptimize Stage = "optimize"
	StageQuality  Stage = "quality"
	StagePublish  Stage = "publish"
)

// IntentRequest — запрос анализа поискового интента.
type IntentRequest struct {
	Keyword string
	Region  string
}

// IntentResult — структура и краткое описание интента.
type IntentResult struct {
	SuggestedStructure map[string]any `json:"suggested_structure"`
	IntentSummary      string         `json:"intent_summary"`
	Degraded           bool           `json:"-"`
}

// DraftRequest — бриф для генерации черновика.
type DraftRequest struct {
	Topic              string         `json:"topic"`
	Keyword            string         `json:"target_keyword"`
	Region             string         `json:"region"`
	SuggestedStructure map[string]any `json:"suggested_structure"`
	IntentSummary      string         `json:"intent_summary"`
}

// DraftResult — markdown черновика.
type DraftResult struct {
	Markdown string `json:"draft_markdown"`
	Degraded bool   `json:"-"`
}

// OptimizeRequest — запрос SEO-оптимизации.
type OptimizeRequest struct {
	Draft   string `json:"draft_markdown"`
	Keyword string `json:"target_keyword"`
}

// OptimizeResult — финальный текст и мета-данные.
type OptimizeResult struct {
	FinalMarkdown   string          `json:"final_markdown"`
	MetaTitle       string          `json:"meta_title"`
	MetaDescription string          `json:"meta_description"`
	FAQ             json.RawMessage `json:"faq_json,omitempty"`
	StructuredData  json.RawMessage `json:"schema_json,omitempty"`
	Degraded        bool            `json:"-"`
}

// QualityRequest — текст для проверки.
type QualityRequest struct {
	Text string `json:"text"`
}

// QualityResult — оценка качества.
type QualityResult struct {
	Pass            bool    `json:"pass"`
	Uniqueness      float64 `json:"uniqueness"`
	LengthOK        bool    `json:"length_ok"`
	KeywordStuffing bool    `json:"keyword_stuffing"`
	Details         string  `json:"details"`
	Degraded        bool    `json:"-"`
}

// Scores возвращает снимок оценок для job.result и article.quality_scores.
func (q *QualityResult) Scores() map[string]any {
	return map[string]any{
		"pass":             q.Pass,
		"uniqueness":       q.Uniqueness,
		"length_ok":        q.LengthOK,
		"keyword_stuffing": q.KeywordStuffing,
		"details":          q.Details,
		"degraded":         q.Degraded,
	}
}

// PublishRequest — запрос публикации.
type PublishRequest struct {
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	Content         string `json:"html_or_markdown"`
	MetaTitle       string `json:"meta_title"`
	MetaDescription string `json:"meta_description"`
	AsDraft         bool   `json:"as_draft"`
}

// PublishResult — страница у внешнего publisher.
type PublishResult struct {
	PageID   string `json:"page_id"`
	URL      string `json:"url"`
	Slug     string `json:"slug"`
	AsDraft  bool   `json:"is_draft"`
	Degraded bool   `json:"-"`
}

// Stages — порт ко всем пяти стадиям.
// Реализации: Client (удалённо) и Fallback (локально).
type Stages interface {
	AnalyzeIntent(ctx context.Context, req IntentRequest) (*IntentResult, error)
	GenerateDraft(ctx context.Context, req DraftRequest) (*DraftResult, error)
	Optimize(ctx context.Context, req OptimizeRequest) (*OptimizeResult, error)
	CheckQuality(ctx context.Context, req QualityRequest) (*QualityResult, error)
	Publish(ctx context.Context, req PublishRequest) (*PublishResult, error)
}
