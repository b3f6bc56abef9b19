package domain

import (
	"encoding/json"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Пределы длины полей статьи в символах, как в schema.sql.
const (
	MaxArticleTitleLen    = 512
	MaxArticleSlugLen     = 512
	MaxTargetKeywordLen   = 256
	MaxMetaTitleLen       = 256
	MaxMetaDescriptionLen = 512
	MaxPublisherPageIDLen = 64
	MaxPublisherURLLen    = 1024
)

// Article — артефакт успешного запуска пайплайна.
//
// Создаётся ровно один раз в конце запуска, вместе с финализацией job.
// Запуски, отклонённые quality gate или упавшие, статью не создают.
type Article struct {
	ID        uuid.UUID     `json:"id"`
	ClusterID uuid.UUID     `json:"cluster_id"`
	JobID     uuid.UUID     `json:"job_id"`
	Title     string        `json:"title"`
	Slug      string        `json:"slug"`
	Status    ArticleStatus `json:"status"`

	TargetKeyword   string `json:"target_keyword"`
	DraftMarkdown   string `json:"draft_markdown,omitempty"`
	FinalMarkdown   string `json:"final_markdown,omitempty"`
	MetaTitle       string `json:"meta_title,omitempty"`
	MetaDescription string `json:"meta_description,omitempty"`

	// FAQ и StructuredData — непрозрачные для пайплайна payload'ы SEO-оптимизатора.
	FAQ            json.RawMessage `json:"faq_json,omitempty"`
	StructuredData json.RawMessage `json:"schema_json,omitempty"`

	// PublisherPageID / PublisherURL — страница во внешнем паблишере.
	PublisherPageID string `json:"publisher_page_id,omitempty"`
	PublisherURL    string `json:"publisher_url,omitempty"`

	// QualityScores — снимок результата quality gate.
	QualityScores map[string]any `json:"quality_scores,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// IsPublished возвращает true, если статья опубликована.
func (a *Article) IsPublished() bool {
	return a.Status == ArticleStatusPublished
}

// FitColumns обрезает строковые поля до ширины колонок (по символам).
// Возвращает имена обрезанных полей.
func (a *Article) FitColumns() []string {
	fields := []struct {
		name string
		ptr  *string
		max  int
	}{
		{"title", &a.Title, MaxArticleTitleLen},
		{"slug", &a.Slug, MaxArticleSlugLen},
		{"target_keyword", &a.TargetKeyword, MaxTargetKeywordLen},
		{"meta_title", &a.MetaTitle, MaxMetaTitleLen},
		{"meta_description", &a.MetaDescription, MaxMetaDescriptionLen},
		{"publisher_page_id", &a.PublisherPageID, MaxPublisherPageIDLen},
		{"publisher_url", &a.PublisherURL, MaxPublisherURLLen},
	}

	var trimmed []string
	for _, f := range fields {
		if utf8.RuneCountInString(*f.ptr) <= f.max {
			continue
		}
		*f.ptr = string([]rune(*f.ptr)[:f.max])
		trimmed = append(trimmed, f.name)
	}
	return trimmed
}
