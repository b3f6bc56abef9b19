// Package selector выбирает кластер и целевое ключевое слово для запуска.
//
// Выбор — взвешенная монетка: с вероятностью moscow_share берётся лучший
// кластер Москвы, иначе лучший кластер РФ. Пустой регион уступает другому.
package selector

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/shaiso/seoagent/internal/domain"
)

// ErrNoActiveClusters — нет ни одного активного кластера.
var ErrNoActiveClusters = errors.New("no active clusters")

// ClusterSource — чтение кластеров и ключевых слов.
type ClusterSource interface {
	ListActiveByRegion(ctx context.Context, region domain.Region) ([]domain.Cluster, error)
	Keywords(ctx context.Context, clusterID uuid.UUID) ([]domain.Keyword, error)
}

// Selection — результат выбора.
type Selection struct {
	Cluster domain.Cluster
	Keyword string
}

// Selector выбирает работу для запуска.
type Selector struct {
	source ClusterSource
	rand   func() float64
}

// New создаёт Selector. rnd — источник равномерных чисел в [0,1);
// nil означает math/rand/v2.
func New(source ClusterSource, rnd func() float64) *Selector {
	if rnd == nil {
		rnd = rand.Float64
	}
	return &Selector{source: source, rand: rnd}
}

// Select выбирает кластер с учётом доли Москвы.
func (s *Selector) Select(ctx context.Context, moscowShare float64) (*Selection, error) {
	moscow, err := s.head(ctx, domain.RegionMoscow)
	if err != nil {
		return nil, err
	}
	rf, err := s.head(ctx, domain.RegionRF)
	if err != nil {
		return nil, err
	}

	chosen := choose(moscow, rf, moscowShare, s.rand())
	if chosen == nil {
		return nil, ErrNoActiveClusters
	}

	keywords, err := s.source.Keywords(ctx, chosen.ID)
	if err != nil {
		return nil, fmt.Errorf("load keywords: %w", err)
	}

	keyword := chosen.Name
	if len(keywords) > 0 {
		keyword = keywords[0].Keyword
	}
	return &Selection{Cluster: *chosen, Keyword: keyword}, nil
}

// head возвращает кандидата региона (первый по priority) или nil.
func (s *Selector) head(ctx context.Context, region domain.Region) (*domain.Cluster, error) {
	clusters, err := s.source.ListActiveByRegion(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("list %s clusters: %w", region, err)
	}
	if len(clusters) == 0 {
		return nil, nil
	}
	return &clusters[0], nil
}

// choose — чистая функция выбора по значению r из [0,1).
func choose(moscow, rf *domain.Cluster, share, r float64) *domain.Cluster {
	if moscow != nil && (rf == nil || r < share) {
		return moscow
	}
	return rf
}
