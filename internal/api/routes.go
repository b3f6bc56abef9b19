package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		RequestID(h.logger),
		Logging(h.logger),
	)

	// Jobs
	mux.Handle("GET /api/v1/jobs", chain(http.HandlerFunc(h.ListJobs)))
	mux.Handle("GET /api/v1/jobs/{id}", chain(http.HandlerFunc(h.GetJob)))
	mux.Handle("POST /api/v1/jobs/run_daily", chain(http.HandlerFunc(h.RunDaily)))

	// Articles
	mux.Handle("GET /api/v1/articles", chain(http.HandlerFunc(h.ListArticles)))
	mux.Handle("GET /api/v1/articles/{id}", chain(http.HandlerFunc(h.GetArticle)))
	mux.Handle("POST /api/v1/articles/{id}/approve", chain(http.HandlerFunc(h.ApproveArticle)))

	// Clusters
	mux.Handle("GET /api/v1/clusters", chain(http.HandlerFunc(h.ListClusters)))
	mux.Handle("POST /api/v1/clusters", chain(http.HandlerFunc(h.CreateCluster)))

	// Settings
	mux.Handle("GET /api/v1/settings/{key}", chain(http.HandlerFunc(h.GetSetting)))
	mux.Handle("PUT /api/v1/settings/{key}", chain(http.HandlerFunc(h.PutSetting)))
}
