package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shaiso/leadflow/internal/domain"
	"github.com/shaiso/leadflow/internal/repo"
)

// ListRuns возвращает список runs с фильтрацией.
// GET /api/v1/runs?workflow=...&status=...&limit=...&offset=...
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	filter := repo.RunFilter{
		WorkflowName: r.URL.Query().Get("workflow"),
		Status:       domain.RunStatus(r.URL.Query().Get("status")),
		Limit:        parseIntParam(r, "limit", 50),
		Offset:       parseIntParam(r, "offset", 0),
	}

	runs, err := h.runRepo.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]RunResponse, len(runs))
	for i, run := range runs {
		result[i] = RunFromDomain(run)
	}

	List(w, result, len(result))
}

// CreateRun создаёт новый run для workflow.
// POST /api/v1/workflows/{name}/runs
//
// Run создаётся в статусе pending; выполняет его runner, получив
// run.requested из очереди.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	// Проверяем, что workflow существует
	wf, err := h.workflowRepo.GetByName(r.Context(), name)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	run := domain.NewRun(wf.Name)
	if err := h.runRepo.Create(r.Context(), run); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	// Публикуем запрос на выполнение в очередь
	if h.publisher != nil {
		if err := h.publisher.PublishRunRequested(r.Context(), run.ID, run.WorkflowName); err != nil {
			h.logger.Warn("failed to publish run.requested", "run_id", run.ID, "error", err)
		}
	}

	Created(w, RunFromDomain(*run))
}

// GetRun возвращает run по ID.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.runRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	Success(w, RunFromDomain(*run))
}

// GetRunResult возвращает итоговый документ выполнения.
// GET /api/v1/runs/{id}/result
func (h *Handler) GetRunResult(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.runRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	if run.Result == nil {
		NotFound(w, "run has no result yet")
		return
	}

	Success(w, run.Result)
}

// parseIntParam парсит целочисленный query-параметр с дефолтом.
func parseIntParam(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
