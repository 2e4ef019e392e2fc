package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shaiso/leadflow/internal/domain"
	"github.com/shaiso/leadflow/internal/engine"
)

// ListWorkflows возвращает список workflows.
// GET /api/v1/workflows
func (h *Handler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	workflows, err := h.workflowRepo.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]WorkflowResponse, len(workflows))
	for i, wf := range workflows {
		result[i] = WorkflowFromDomain(wf)
	}

	List(w, result, len(result))
}

// CreateWorkflow создаёт новый workflow.
// POST /api/v1/workflows
//
// Спецификация валидируется полностью, включая шаблонный синтаксис:
// сломанная конфигурация отклоняется на записи, а не на выполнении.
func (h *Handler) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Spec.Name == "" {
		BadRequest(w, "workflow_name is required")
		return
	}
	if err := engine.Validate(&req.Spec, h.knownAgent()); err != nil {
		BadRequest(w, err.Error())
		return
	}

	now := time.Now()
	wf := &domain.Workflow{
		Name:      req.Spec.Name,
		Spec:      req.Spec,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.workflowRepo.Create(r.Context(), wf); HandleRepoError(w, h.logger, err, "") {
		return
	}

	Created(w, WorkflowFromDomain(*wf))
}

// GetWorkflow возвращает workflow по имени.
// GET /api/v1/workflows/{name}
func (h *Handler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	wf, err := h.workflowRepo.GetByName(r.Context(), name)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	Success(w, WorkflowFromDomain(*wf))
}

// UpdateWorkflow обновляет спецификацию workflow.
// PUT /api/v1/workflows/{name}
func (h *Handler) UpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req UpdateWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Spec.Name != "" && req.Spec.Name != name {
		BadRequest(w, "workflow_name in spec does not match URL")
		return
	}
	req.Spec.Name = name

	if err := engine.Validate(&req.Spec, h.knownAgent()); err != nil {
		BadRequest(w, err.Error())
		return
	}

	wf, err := h.workflowRepo.GetByName(r.Context(), name)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	wf.Spec = req.Spec
	if err := h.workflowRepo.Update(r.Context(), wf); HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	Success(w, WorkflowFromDomain(*wf))
}

// DeleteWorkflow удаляет workflow.
// DELETE /api/v1/workflows/{name}
func (h *Handler) DeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if err := h.workflowRepo.Delete(r.Context(), name); HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	NoContent(w)
}

// ValidateWorkflow валидирует спецификацию без сохранения.
// POST /api/v1/workflows/validate
func (h *Handler) ValidateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if err := engine.Validate(&req.Spec, h.knownAgent()); err != nil {
		Success(w, ValidateWorkflowResponse{Valid: false, Error: err.Error()})
		return
	}

	Success(w, ValidateWorkflowResponse{Valid: true})
}
