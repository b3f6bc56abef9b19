package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/seoagent/internal/domain"
)

// ListClusters возвращает все кластеры.
// GET /api/v1/clusters?region=...
func (h *Handler) ListClusters(w http.ResponseWriter, r *http.Request) {
	var region domain.Region
	if s := r.URL.Query().Get("region"); s != "" {
		reg, ok := domain.ParseRegion(s)
		if !ok {
			BadRequest(w, "region must be moscow or rf")
			return
		}
		region = reg
	}

	clusters, err := h.clusters.List(r.Context())
	if HandleRepoError(w, r, err, "") {
		return
	}

	result := make([]ClusterResponse, 0, len(clusters))
	for _, c := range clusters {
		if region != "" && c.Region != region {
			continue
		}
		result = append(result, ClusterFromDomain(c))
	}

	List(w, result)
}

// CreateCluster создаёт кластер вместе с ключевыми словами.
// POST /api/v1/clusters
func (h *Handler) CreateCluster(w http.ResponseWriter, r *http.Request) {
	var req CreateClusterRequest
	if err := decodeJSON(r, &req, false); err != nil {
		BadRequest(w, err.Error())
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		BadRequest(w, "name is required")
		return
	}
	if strings.TrimSpace(req.Slug) == "" {
		BadRequest(w, "slug is required")
		return
	}
	region, ok := domain.ParseRegion(req.Region)
	if !ok {
		BadRequest(w, "region must be moscow or rf")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := time.Now().UTC()
	cluster := &domain.Cluster{
		ID:        uuid.New(),
		Name:      req.Name,
		Region:    region,
		Slug:      req.Slug,
		IsActive:  isActive,
		Priority:  req.Priority,
		CreatedAt: now,
	}

	if err := h.clusters.Create(r.Context(), cluster); HandleRepoError(w, r, err, "") {
		return
	}

	resp := ClusterFromDomain(*cluster)
	for _, in := range req.Keywords {
		kw := strings.TrimSpace(in.Keyword)
		if kw == "" {
			continue
		}
		k := &domain.Keyword{
			ID:        uuid.New(),
			ClusterID: cluster.ID,
			Keyword:   kw,
			Volume:    in.Volume,
			CreatedAt: now,
		}
		if err := h.clusters.AddKeyword(r.Context(), k); HandleRepoError(w, r, err, "") {
			return
		}
		resp.Keywords = append(resp.Keywords, kw)
	}

	Created(w, resp)
}
