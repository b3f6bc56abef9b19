package domain

import (
	"time"

	"github.com/google/uuid"
)

// Cluster — группа связанных ключевых слов, под которую пишется одна статья.
// Для пайплайна только читается.
type Cluster struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Region    Region    `json:"region"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"is_active"`
	Priority  int       `json:"priority"` // больше — раньше
	CreatedAt time.Time `json:"created_at"`
}

// Keyword — ключевое слово кластера.
type Keyword struct {
	ID        uuid.UUID `json:"id"`
	ClusterID uuid.UUID `json:"cluster_id"`
	Keyword   string    `json:"keyword"`
	Volume    *int      `json:"volume,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
