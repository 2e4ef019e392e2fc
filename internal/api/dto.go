package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/leadflow/internal/domain"
)

// Workflow DTOs

// CreateWorkflowRequest — запрос на создание workflow.
type CreateWorkflowRequest struct {
	Spec domain.WorkflowSpec `json:"spec"`
}

// UpdateWorkflowRequest — запрос на обновление workflow.
type UpdateWorkflowRequest struct {
	Spec domain.WorkflowSpec `json:"spec"`
}

// WorkflowResponse — ответ с workflow.
type WorkflowResponse struct {
	Name      string              `json:"name"`
	Spec      domain.WorkflowSpec `json:"spec"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// WorkflowFromDomain конвертирует domain.Workflow в WorkflowResponse.
func WorkflowFromDomain(wf domain.Workflow) WorkflowResponse {
	return WorkflowResponse{
		Name:      wf.Name,
		Spec:      wf.Spec,
		CreatedAt: wf.CreatedAt,
		UpdatedAt: wf.UpdatedAt,
	}
}

// ValidateWorkflowResponse — результат валидации спецификации.
type ValidateWorkflowResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Run DTOs

// RunResponse — ответ с run.
type RunResponse struct {
	ID           uuid.UUID  `json:"id"`
	WorkflowName string     `json:"workflow_name"`
	Status       string     `json:"status"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Error        string     `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// RunFromDomain конвертирует domain.Run в RunResponse.
func RunFromDomain(r domain.Run) RunResponse {
	return RunResponse{
		ID:           r.ID,
		WorkflowName: r.WorkflowName,
		Status:       string(r.Status),
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		Error:        r.Error,
		CreatedAt:    r.CreatedAt,
	}
}

// Schedule DTOs

// CreateScheduleRequest — запрос на создание schedule.
type CreateScheduleRequest struct {
	Name        string `json:"name"`
	CronExpr    string `json:"cron_expr,omitempty"`
	IntervalSec int    `json:"interval_sec,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// SetEnabledRequest — запрос на включение/выключение.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// ScheduleResponse — ответ с schedule.
type ScheduleResponse struct {
	ID           uuid.UUID  `json:"id"`
	WorkflowName string     `json:"workflow_name"`
	Name         string     `json:"name"`
	CronExpr     string     `json:"cron_expr,omitempty"`
	IntervalSec  int        `json:"interval_sec,omitempty"`
	Timezone     string     `json:"timezone"`
	Enabled      bool       `json:"enabled"`
	NextDueAt    *time.Time `json:"next_due_at,omitempty"`
	LastRunAt    *time.Time `json:"last_run_at,omitempty"`
	LastRunID    *uuid.UUID `json:"last_run_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ScheduleFromDomain конвертирует domain.Schedule в ScheduleResponse.
func ScheduleFromDomain(s *domain.Schedule) ScheduleResponse {
	if s == nil {
		return ScheduleResponse{}
	}
	return ScheduleResponse{
		ID:           s.ID,
		WorkflowName: s.WorkflowName,
		Name:         s.Name,
		CronExpr:     s.CronExpr,
		IntervalSec:  s.IntervalSec,
		Timezone:     s.Timezone,
		Enabled:      s.Enabled,
		NextDueAt:    s.NextDueAt,
		LastRunAt:    s.LastRunAt,
		LastRunID:    s.LastRunID,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}
