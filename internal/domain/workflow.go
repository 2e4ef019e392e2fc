package domain

import "time"

// Workflow — сохранённое определение пайплайна.
//
// Workflow — это "рецепт" кампании: упорядоченный список шагов,
// каждый из которых привязан к агенту. Спецификация хранится в
// Postgres как JSONB и выполняется runner'ом.
type Workflow struct {
	// Name — уникальное имя workflow (например, "b2b_lead_generation").
	Name string `json:"name"`

	// Spec — спецификация пайплайна.
	Spec WorkflowSpec `json:"spec"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего обновления спецификации.
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkflowSpec — декларативная спецификация пайплайна.
//
// Это "программа" для leadflow: что выполнить и в каком порядке.
// Неизвестные поля при парсинге игнорируются (forward-compatible).
type WorkflowSpec struct {
	// Name — имя workflow, используется только в отчётах.
	Name string `json:"workflow_name"`

	// Description — описание назначения пайплайна.
	Description string `json:"description,omitempty"`

	// Steps — упорядоченный список шагов.
	// Порядок в списке — порядок выполнения, параллелизма нет.
	Steps []StepSpec `json:"steps"`
}

// StepSpec — определение одного шага пайплайна.
type StepSpec struct {
	// ID — уникальный идентификатор шага в рамках workflow.
	// Последующие шаги ссылаются на его результат через
	// {{ <id>.output.<field> }}.
	ID string `json:"id"`

	// Agent — имя реализации агента в реестре (например,
	// "ProspectSearchAgent"). Сопоставление точное, без нормализации.
	Agent string `json:"agent"`

	// Inputs — входные параметры шага.
	// Значение — литерал либо строка с шаблонными выражениями,
	// разрешаемыми по результатам предыдущих шагов.
	Inputs map[string]any `json:"inputs"`

	// Instructions — инструкции для агента (статическая конфигурация,
	// передаётся в конструктор, не в Run).
	Instructions string `json:"instructions,omitempty"`

	// Tools — список инструментов, доступных агенту.
	Tools []string `json:"tools,omitempty"`

	// OutputSchema — ожидаемая форма результата шага.
	// Движок её не проверяет, это контракт уровня агента.
	OutputSchema map[string]any `json:"output_schema,omitempty"`
}

// StepIDs возвращает список идентификаторов шагов в порядке выполнения.
func (s *WorkflowSpec) StepIDs() []string {
	ids := make([]string, 0, len(s.Steps))
	for i := range s.Steps {
		ids = append(ids, s.Steps[i].ID)
	}
	return ids
}
