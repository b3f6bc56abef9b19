package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/shaiso/seoagent/internal/domain"
	"github.com/shaiso/seoagent/internal/repo"
)

// ListArticles возвращает список статей.
// GET /api/v1/articles?status=...&limit=...&offset=...
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := parsePage(w, r)
	if !ok {
		return
	}

	filter := repo.ArticleFilter{Limit: limit, Offset: offset}
	if s := r.URL.Query().Get("status"); s != "" {
		status, ok := domain.ParseArticleStatus(s)
		if !ok {
			BadRequest(w, "unknown article status")
			return
		}
		filter.Status = status
	}

	articles, err := h.articles.List(r.Context(), filter)
	if HandleRepoError(w, r, err, "") {
		return
	}

	result := make([]ArticleResponse, len(articles))
	for i, a := range articles {
		result[i] = ArticleFromDomain(a)
	}

	List(w, result)
}

// GetArticle возвращает статью по ID.
// GET /api/v1/articles/{id}
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid article id")
		return
	}

	article, err := h.articles.GetByID(r.Context(), id)
	if HandleRepoError(w, r, err, "article not found") {
		return
	}

	Success(w, ArticleFromDomain(*article))
}

// ApproveArticle одобряет статью, ожидающую решения.
// POST /api/v1/articles/{id}/approve
//
// Статья не в draft/pending_approval — 422.
func (h *Handler) ApproveArticle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid article id")
		return
	}

	var req ApproveArticleRequest
	if err := decodeJSON(r, &req, true); err != nil {
		BadRequest(w, err.Error())
		return
	}

	article, err := h.articles.Approve(r.Context(), id, req.Publish)
	if HandleRepoError(w, r, err, "article not found") {
		return
	}

	h.logger.Info("article approved", "article_id", id, "status", article.Status)
	Success(w, ArticleFromDomain(*article))
}
