package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shaiso/seoagent/internal/domain"
	"github.com/shaiso/seoagent/internal/mq"
	"github.com/shaiso/seoagent/internal/repo"
	"github.com/shaiso/seoagent/internal/telemetry"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ListJobs возвращает список jobs с фильтрацией.
// GET /api/v1/jobs?status=...&limit=...&offset=...
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := parsePage(w, r)
	if !ok {
		return
	}

	filter := repo.JobFilter{
		Status: domain.JobStatus(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	}

	jobs, err := h.jobs.List(r.Context(), filter)
	if HandleRepoError(w, r, err, "") {
		return
	}

	result := make([]JobResponse, len(jobs))
	for i, j := range jobs {
		result[i] = JobFromDomain(j)
	}

	List(w, result)
}

// GetJob возвращает job по ID.
// GET /api/v1/jobs/{id}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid job id")
		return
	}

	job, err := h.jobs.GetByID(r.Context(), id)
	if HandleRepoError(w, r, err, "job not found") {
		return
	}

	Success(w, JobFromDomain(*job))
}

// RunDaily ставит ежедневный запуск в очередь.
// POST /api/v1/jobs/run_daily
//
// Job создаёт worker при обработке сообщения, поэтому ответ — 202
// без ID job.
func (h *Handler) RunDaily(w http.ResponseWriter, r *http.Request) {
	var req RunDailyRequest
	if err := decodeJSON(r, &req, true); err != nil {
		BadRequest(w, err.Error())
		return
	}

	dryRun := true
	if req.DryRun != nil {
		dryRun = *req.DryRun
	}

	if h.publisher == nil {
		ServiceUnavailable(w, "job queue is not configured")
		return
	}

	payload := mq.DailyRunPayload{DryRun: dryRun, TriggeredBy: "api"}
	if err := h.publisher.PublishDailyRun(r.Context(), payload); err != nil {
		telemetry.FromContext(r.Context()).Error("failed to enqueue daily run", "error", err)
		ServiceUnavailable(w, "failed to enqueue daily run")
		return
	}

	Accepted(w, RunDailyResponse{Queued: true, DryRun: dryRun})
}

// parsePage разбирает limit/offset. При ошибке отвечает 400 и возвращает ok=false.
func parsePage(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	limit = defaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > maxListLimit {
			BadRequest(w, "limit must be between 1 and 200")
			return 0, 0, false
		}
		limit = n
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			BadRequest(w, "offset must be a non-negative integer")
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}
