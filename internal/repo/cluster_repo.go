package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shaiso/seoagent/internal/domain"
)

// ClusterRepo — репозиторий кластеров и ключевых слов.
type ClusterRepo struct {
	db DB
}

// NewClusterRepo создаёт новый ClusterRepo.
func NewClusterRepo(db DB) *ClusterRepo {
	return &ClusterRepo{db: db}
}

const clusterColumns = `id, name, region, slug, is_active, priority, created_at`

// ListActiveByRegion возвращает активные кластеры региона.
// Порядок: priority по убыванию, затем порядок вставки.
func (r *ClusterRepo) ListActiveByRegion(ctx context.Context, region domain.Region) ([]domain.Cluster, error) {
	query := `
		SELECT ` + clusterColumns + `
		FROM clusters
		WHERE region = $1 AND is_active = true
		ORDER BY priority DESC, created_at ASC, id ASC
	`
	return r.queryClusters(ctx, query, string(region))
}

// List возвращает все кластеры.
func (r *ClusterRepo) List(ctx context.Context) ([]domain.Cluster, error) {
	query := `
		SELECT ` + clusterColumns + `
		FROM clusters
		ORDER BY region, priority DESC, created_at ASC, id ASC
	`
	return r.queryClusters(ctx, query)
}

// Keywords возвращает ключевые слова кластера в порядке вставки.
func (r *ClusterRepo) Keywords(ctx context.Context, clusterID uuid.UUID) ([]domain.Keyword, error) {
	query := `
		SELECT id, cluster_id, keyword, volume, created_at
		FROM keywords
		WHERE cluster_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, clusterID)
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}
	defer rows.Close()

	var keywords []domain.Keyword
	for rows.Next() {
		var k domain.Keyword
		if err := rows.Scan(&k.ID, &k.ClusterID, &k.Keyword, &k.Volume, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}

// Create создаёт кластер.
func (r *ClusterRepo) Create(ctx context.Context, c *domain.Cluster) error {
	query := `
		INSERT INTO clusters (id, name, region, slug, is_active, priority, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query, c.ID, c.Name, string(c.Region), c.Slug, c.IsActive, c.Priority, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: cluster slug %q", ErrAlreadyExists, c.Slug)
		}
		return fmt.Errorf("insert cluster: %w", err)
	}
	return nil
}

// AddKeyword добавляет ключевое слово в кластер.
func (r *ClusterRepo) AddKeyword(ctx context.Context, k *domain.Keyword) error {
	query := `
		INSERT INTO keywords (id, cluster_id, keyword, volume, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, k.ID, k.ClusterID, k.Keyword, k.Volume, k.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: keyword %q", ErrAlreadyExists, k.Keyword)
		}
		return fmt.Errorf("insert keyword: %w", err)
	}
	return nil
}

func (r *ClusterRepo) queryClusters(ctx context.Context, query string, args ...any) ([]domain.Cluster, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clusters: %w", err)
	}
	defer rows.Close()

	var clusters []domain.Cluster
	for rows.Next() {
		var c domain.Cluster
		var region string
		if err := rows.Scan(&c.ID, &c.Name, &region, &c.Slug, &c.IsActive, &c.Priority, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cluster: %w", err)
		}
		c.Region = domain.Region(region)
		clusters = append(clusters, c)
	}
	return clusters, rows.Err()
}

// isUniqueViolation проверяет код ошибки PostgreSQL 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

