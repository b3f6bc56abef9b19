package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/seoagent/internal/domain"
)

// Job DTOs

// JobResponse — ответ с job.
type JobResponse struct {
	ID           uuid.UUID      `json:"id"`
	Type         string         `json:"type"`
	Status       string         `json:"status"`
	Payload      map[string]any `json:"payload,omitempty"`
	Result       map[string]any `json:"result,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// JobFromDomain конвертирует domain.Job в JobResponse.
func JobFromDomain(j domain.Job) JobResponse {
	return JobResponse{
		ID:           j.ID,
		Type:         string(j.Type),
		Status:       string(j.Status),
		Payload:      j.Payload,
		Result:       j.Result,
		ErrorMessage: j.ErrorMessage,
		StartedAt:    j.StartedAt,
		FinishedAt:   j.FinishedAt,
		CreatedAt:    j.CreatedAt,
	}
}

// RunDailyRequest — запрос на постановку запуска в очередь.
// dry_run по умолчанию true.
type RunDailyRequest struct {
	DryRun *bool `json:"dry_run,omitempty"`
}

// RunDailyResponse — ответ о поставленном в очередь запуске.
type RunDailyResponse struct {
	Queued bool `json:"queued"`
	DryRun bool `json:"dry_run"`
}

// Article DTOs

// ArticleResponse — ответ со статьёй.
type ArticleResponse struct {
	ID              uuid.UUID       `json:"id"`
	ClusterID       uuid.UUID       `json:"cluster_id"`
	JobID           uuid.UUID       `json:"job_id"`
	Title           string          `json:"title"`
	Slug            string          `json:"slug"`
	Status          string          `json:"status"`
	TargetKeyword   string          `json:"target_keyword"`
	FinalMarkdown   string          `json:"final_markdown,omitempty"`
	MetaTitle       string          `json:"meta_title,omitempty"`
	MetaDescription string          `json:"meta_description,omitempty"`
	FAQ             json.RawMessage `json:"faq_json,omitempty"`
	StructuredData  json.RawMessage `json:"schema_json,omitempty"`
	PublisherPageID string          `json:"publisher_page_id,omitempty"`
	PublisherURL    string          `json:"publisher_url,omitempty"`
	QualityScores   map[string]any  `json:"quality_scores,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ArticleFromDomain конвертирует domain.Article в ArticleResponse.
// Черновик (draft_markdown) в ответ не попадает.
func ArticleFromDomain(a domain.Article) ArticleResponse {
	return ArticleResponse{
		ID:              a.ID,
		ClusterID:       a.ClusterID,
		JobID:           a.JobID,
		Title:           a.Title,
		Slug:            a.Slug,
		Status:          string(a.Status),
		TargetKeyword:   a.TargetKeyword,
		FinalMarkdown:   a.FinalMarkdown,
		MetaTitle:       a.MetaTitle,
		MetaDescription: a.MetaDescription,
		FAQ:             a.FAQ,
		StructuredData:  a.StructuredData,
		PublisherPageID: a.PublisherPageID,
		PublisherURL:    a.PublisherURL,
		QualityScores:   a.QualityScores,
		CreatedAt:       a.CreatedAt,
	}
}

// ApproveArticleRequest — одобрение статьи; publish=true сразу помечает published.
type ApproveArticleRequest struct {
	Publish bool `json:"publish"`
}

// Cluster DTOs

// KeywordInput — ключевое слово при создании кластера.
type KeywordInput struct {
	Keyword string `json:"keyword"`
	Volume  *int   `json:"volume,omitempty"`
}

// CreateClusterRequest — запрос на создание кластера.
type CreateClusterRequest struct {
	Name     string         `json:"name"`
	Region   string         `json:"region"`
	Slug     string         `json:"slug"`
	IsActive *bool          `json:"is_active,omitempty"`
	Priority int            `json:"priority"`
	Keywords []KeywordInput `json:"keywords,omitempty"`
}

// ClusterResponse — ответ с кластером.
type ClusterResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Region    string    `json:"region"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"is_active"`
	Priority  int       `json:"priority"`
	Keywords  []string  `json:"keywords,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ClusterFromDomain конвертирует domain.Cluster в ClusterResponse.
func ClusterFromDomain(c domain.Cluster) ClusterResponse {
	return ClusterResponse{
		ID:        c.ID,
		Name:      c.Name,
		Region:    string(c.Region),
		Slug:      c.Slug,
		IsActive:  c.IsActive,
		Priority:  c.Priority,
		CreatedAt: c.CreatedAt,
	}
}

// Setting DTOs

// PutSettingRequest — запрос на запись override.
type PutSettingRequest struct {
	Value string `json:"value"`
}

// SettingResponse — ответ с override.
type SettingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
	Set   bool   `json:"set"`
}
