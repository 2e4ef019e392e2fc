package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run — экземпляр выполнения workflow.
//
// Run создаётся когда:
// - Пользователь запускает workflow вручную (через API/CLI)
// - Scheduler создаёт run по расписанию
//
// Run выполняется строго последовательно в одном процессе runner'а.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// WorkflowName — имя workflow, который выполняется.
	WorkflowName string `json:"workflow_name"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// StartedAt — время начала выполнения (когда статус стал running).
	// Nil, если run ещё не начался.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	// Nil, если run ещё выполняется.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки конфигурации, если run завершился failed.
	Error string `json:"error,omitempty"`

	// Result — итоговый документ выполнения.
	// Заполняется ровно один раз при завершении.
	Result *ExecutionResult `json:"result,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// NewRun создаёт pending run для workflow.
func NewRun(workflowName string) *Run {
	return &Run{
		ID:           uuid.New(),
		WorkflowName: workflowName,
		Status:       RunStatusPending,
		CreatedAt:    time.Now(),
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён.
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkRunning переводит run в статус running.
func (r *Run) MarkRunning() {
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
}

// MarkFinished записывает итоговый результат и финальный статус.
func (r *Run) MarkFinished(result *ExecutionResult) {
	now := time.Now()
	r.Status = result.Status
	r.Error = result.Error
	r.Result = result
	r.FinishedAt = &now
}

// ExecutionResult — итоговый документ одного run.
//
// Создаётся один раз, записывается один раз при завершении
// (или в точке фатальной ошибки валидации) и далее не изменяется —
// неизменяемая запись аудита. Даже failed run всегда порождает
// результат: частичный прогресс никогда не теряется.
type ExecutionResult struct {
	// WorkflowName — имя выполненного workflow.
	WorkflowName string `json:"workflow_name"`

	// Status — итоговый статус: completed или failed.
	Status RunStatus `json:"status"`

	// StartedAt — время начала выполнения.
	StartedAt time.Time `json:"start_time"`

	// FinishedAt — время завершения.
	FinishedAt time.Time `json:"end_time"`

	// DurationSeconds — продолжительность выполнения в секундах.
	DurationSeconds float64 `json:"duration_seconds"`

	// Error — ошибка конфигурации, из-за которой run завершился failed.
	// Пусто для completed.
	Error string `json:"error,omitempty"`

	// Steps — след выполнения: результат каждого шага в порядке
	// выполнения, независимо от исхода.
	Steps []StepResult `json:"steps"`

	// FinalState — сводка по итоговому состоянию для мониторинга:
	// для каждого спискового output'а шага — его размер
	// (leads_count, messages_count и т.д.).
	FinalState map[string]any `json:"final_state"`
}

// NewExecutionResult создаёт результат с зафиксированным временем старта.
func NewExecutionResult(workflowName string) *ExecutionResult {
	return &ExecutionResult{
		WorkflowName: workflowName,
		Status:       RunStatusRunning,
		StartedAt:    time.Now(),
		Steps:        []StepResult{},
		FinalState:   map[string]any{},
	}
}

// MarkCompleted финализирует результат со статусом completed.
func (r *ExecutionResult) MarkCompleted() {
	r.finish(RunStatusCompleted, "")
}

// MarkFailed финализирует результат со статусом failed.
func (r *ExecutionResult) MarkFailed(errMsg string) {
	r.finish(RunStatusFailed, errMsg)
}

// finish фиксирует время завершения и статус.
func (r *ExecutionResult) finish(status RunStatus, errMsg string) {
	r.FinishedAt = time.Now()
	r.DurationSeconds = r.FinishedAt.Sub(r.StartedAt).Seconds()
	r.Status = status
	r.Error = errMsg
}

// CountByStatus возвращает количество шагов в указанном статусе.
func (r *ExecutionResult) CountByStatus(status StepStatus) int {
	n := 0
	for i := range r.Steps {
		if r.Steps[i].Status == status {
			n++
		}
	}
	return n
}

// AllStepsCompleted возвращает true, если каждый шаг завершился completed.
func (r *ExecutionResult) AllStepsCompleted() bool {
	for i := range r.Steps {
		if r.Steps[i].Status != StepStatusCompleted {
			return false
		}
	}
	return true
}

// StepResult — результат выполнения одного шага.
//
// Попадает в след выполнения при любом исходе.
type StepResult struct {
	// StepID — идентификатор шага из спецификации.
	StepID string `json:"step_id"`

	// Agent — имя агента, привязанного к шагу.
	Agent string `json:"agent"`

	// Status — исход: completed, failed или skipped.
	Status StepStatus `json:"status"`

	// ErrorKind — категория ошибки (для failed).
	ErrorKind ErrorKind `json:"error_kind,omitempty"`

	// Error — сообщение об ошибке (для failed).
	Error string `json:"error,omitempty"`

	// Reason — причина пропуска (для skipped): какие ссылки
	// не разрешились.
	Reason string `json:"reason,omitempty"`

	// Output — результат агента, как он был записан в состояние.
	Output map[string]any `json:"output,omitempty"`

	// StartedAt — время начала шага.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt — время завершения шага.
	FinishedAt time.Time `json:"finished_at"`

	// DurationSeconds — продолжительность шага в секундах.
	DurationSeconds float64 `json:"duration_seconds"`
}
