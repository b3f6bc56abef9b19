package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shaiso/seoagent/internal/domain"
)

// ArticleRepo — репозиторий для работы со статьями.
type ArticleRepo struct {
	db DB
}

// NewArticleRepo создаёт новый ArticleRepo.
func NewArticleRepo(db DB) *ArticleRepo {
	return &ArticleRepo{db: db}
}

const articleColumns = `id, cluster_id, job_id, title, slug, status, target_keyword,
	draft_markdown, final_markdown, meta_title, meta_description, faq_json, schema_json,
	publisher_page_id, publisher_url, quality_scores, created_at`

// CreateAndCompleteJob сохраняет статью и финализирует job одной транзакцией.
//
// Если job уже не running, транзакция откатывается и статья не создаётся.
func (r *ArticleRepo) CreateAndCompleteJob(ctx context.Context, article *domain.Article, job *domain.Job) error {
	if job.Status != domain.JobStatusCompleted {
		return fmt.Errorf("%w: job %s must be completed, got %s", ErrInvalidState, job.ID, job.Status)
	}

	scoresJSON, err := marshalMap(article.QualityScores)
	if err != nil {
		return fmt.Errorf("quality scores: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	query := `
		INSERT INTO articles (id, cluster_id, job_id, title, slug, status, target_keyword,
		                      draft_markdown, final_markdown, meta_title, meta_description,
		                      faq_json, schema_json, publisher_page_id, publisher_url,
		                      quality_scores, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err = tx.Exec(ctx, query,
		article.ID,
		article.ClusterID,
		article.JobID,
		article.Title,
		article.Slug,
		string(article.Status),
		article.TargetKeyword,
		article.DraftMarkdown,
		article.FinalMarkdown,
		article.MetaTitle,
		article.MetaDescription,
		rawOrNil(article.FAQ),
		rawOrNil(article.StructuredData),
		nullString(article.PublisherPageID),
		nullString(article.PublisherURL),
		scoresJSON,
		article.CreatedAt,
	)
	if err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("insert article: %w", err)
	}

	if err := finalizeJob(ctx, tx, job); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetByID возвращает статью по ID.
func (r *ArticleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1`
	return scanArticle(r.db.QueryRow(ctx, query, id))
}

// Approve переводит статью из draft/pending_approval в approved
// (publish=true — сразу в published). Для статьи в другом статусе
// возвращает ErrInvalidState.
func (r *ArticleRepo) Approve(ctx context.Context, id uuid.UUID, publish bool) (*domain.Article, error) {
	status := domain.ArticleStatusApproved
	if publish {
		status = domain.ArticleStatusPublished
	}

	query := `
		UPDATE articles SET status = $2
		WHERE id = $1 AND status IN ('draft', 'pending_approval')
		RETURNING ` + articleColumns
	a, err := scanArticle(r.db.QueryRow(ctx, query, id, string(status)))
	if !errors.Is(err, ErrNotFound) {
		return a, err
	}

	// строка не обновлена: статьи нет или статус не позволяет
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: article %s is %s", ErrInvalidState, id, current.Status)
}

// List возвращает список статей с фильтрацией.
func (r *ArticleRepo) List(ctx context.Context, filter ArticleFilter) ([]domain.Article, error) {
	query := `
		SELECT ` + articleColumns + `
		FROM articles
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query,
		nullString(string(filter.Status)),
		normalizeLimit(filter.Limit),
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

// ArticleFilter — параметры фильтрации статей.
type ArticleFilter struct {
	Status domain.ArticleStatus
	Limit  int
	Offset int
}

func scanArticle(row pgx.Row) (*domain.Article, error) {
	var a domain.Article
	var status string
	var faq, schema, scores []byte
	var pageID, url *string

	err := row.Scan(
		&a.ID,
		&a.ClusterID,
		&a.JobID,
		&a.Title,
		&a.Slug,
		&status,
		&a.TargetKeyword,
		&a.DraftMarkdown,
		&a.FinalMarkdown,
		&a.MetaTitle,
		&a.MetaDescription,
		&faq,
		&schema,
		&pageID,
		&url,
		&scores,
		&a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan article: %w", err)
	}

	a.Status = domain.ArticleStatus(status)
	a.PublisherPageID = derefString(pageID)
	a.PublisherURL = derefString(url)
	if faq != nil {
		a.FAQ = json.RawMessage(faq)
	}
	if schema != nil {
		a.StructuredData = json.RawMessage(schema)
	}
	if a.QualityScores, err = unmarshalMap(scores); err != nil {
		return nil, fmt.Errorf("quality scores: %w", err)
	}
	return &a, nil
}
