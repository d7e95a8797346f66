package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shaiso/Harvest/internal/domain"
	"github.com/shaiso/Harvest/internal/orchestrator"
	"github.com/shaiso/Harvest/internal/repo"
)

// RunJob выполняет job синхронно и возвращает отчёт.
// POST /api/v1/jobs
//
// 200 — отчёт (даже если часть items FAILED), 401 — сессия не авторизована
// (отчёт в теле), 502 — не удалось открыть сессию, 409 — уже идёт job.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		Unavailable(w, "job runner is not configured")
		return
	}

	var req RunJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	items, err := orchestrator.NormalizeItems(req.Items)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	job := domain.NewJob(items, "api")
	job.MarkRunning()

	// job доводится до конца даже после отключения клиента
	ctx := context.WithoutCancel(r.Context())

	rep, err := h.runner.RunJob(ctx, job.ID, items)
	if rep != nil {
		errMsg := ""
		if err != nil {
			errMsg = err.Error()
		}
		job.MarkFinished(rep, errMsg)
		h.saveHistory(ctx, job)
	}

	switch {
	case err == nil:
		Success(w, JobFromDomain(*job))
	case errors.Is(err, orchestrator.ErrNoItems), errors.Is(err, orchestrator.ErrInvalidItem):
		BadRequest(w, err.Error())
	case errors.Is(err, orchestrator.ErrJobInProgress):
		Error(w, http.StatusConflict, ErrCodeBusy, err.Error())
	case errors.Is(err, orchestrator.ErrAuthenticationFailed):
		JSON(w, http.StatusUnauthorized, ReportErrorResponse{
			Error:  ErrorDetail{Code: ErrCodeUnauthorized, Message: err.Error()},
			Report: rep,
		})
	case errors.Is(err, orchestrator.ErrSessionOpen):
		JSON(w, http.StatusBadGateway, ReportErrorResponse{
			Error:  ErrorDetail{Code: ErrCodeSessionError, Message: err.Error()},
			Report: rep,
		})
	default:
		InternalError(w, h.logger, err)
	}
}

// saveHistory записывает синхронный job в историю. Ошибки только логируются.
func (h *Handler) saveHistory(ctx context.Context, job *domain.Job) {
	if h.jobs == nil {
		return
	}
	if err := h.jobs.Create(ctx, job); err != nil {
		h.logger.Warn("failed to save job history", "job_id", job.ID, "error", err)
		return
	}
	if err := h.jobs.Update(ctx, job); err != nil {
		h.logger.Warn("failed to save job report", "job_id", job.ID, "error", err)
	}
}

// EnqueueJob создаёт job и ставит его в очередь воркеру.
// POST /api/v1/jobs/enqueue
func (h *Handler) EnqueueJob(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil || h.publisher == nil {
		Unavailable(w, "job queue is not configured")
		return
	}

	var req RunJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	items, err := orchestrator.NormalizeItems(req.Items)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	job := domain.NewJob(items, "api")
	if err := h.jobs.Create(r.Context(), job); HandleRepoError(w, h.logger, err, "") {
		return
	}

	// при ошибке публикации job подхватит polling воркера
	if err := h.publisher.PublishJobRequested(r.Context(), job.ID); err != nil {
		h.logger.Warn("failed to publish job.requested", "job_id", job.ID, "error", err)
	}

	Accepted(w, EnqueueResponse{ID: job.ID, Status: string(job.Status)})
}

// ListJobs возвращает историю jobs.
// GET /api/v1/jobs?status=...&limit=...&offset=...
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		Unavailable(w, "job store is not configured")
		return
	}

	q := r.URL.Query()
	filter := repo.JobFilter{
		Limit:  parseIntDefault(q.Get("limit"), 50),
		Offset: parseIntDefault(q.Get("offset"), 0),
	}
	if status := q.Get("status"); status != "" {
		filter.Status = domain.ParseJobStatus(status)
	}

	jobs, err := h.jobs.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]JobResponse, len(jobs))
	for i, job := range jobs {
		result[i] = JobFromDomain(job)
	}

	List(w, result, len(result))
}

// GetJob возвращает job по ID.
// GET /api/v1/jobs/{id}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		Unavailable(w, "job store is not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid job id")
		return
	}

	job, err := h.jobs.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "job not found") {
		return
	}

	Success(w, JobFromDomain(*job))
}

// Health — проверка живости.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
