package engine

import (
	"fmt"
	"time"
)

// MetaEntryID — зарезервированный ID записи с метаданными run.
//
// Метаданные доступны в шаблонах как обычный шаг:
//
//	{{ workflow.output.name }}
//	{{ workflow.output.started_at }}
const MetaEntryID = "workflow"

// State — накопленное разделяемое состояние одного run.
//
// Отображение stepID → {"output": {...}}. Растёт монотонно:
// запись появляется после завершения шага и не изменяется до конца
// run. Единственный писатель — оркестратор; резолвер и исполнитель
// шагов только читают. Выполнение строго однопоточное, поэтому
// блокировки не нужны.
type State struct {
	entries map[string]map[string]any
}

// NewState создаёт пустое состояние.
func NewState() *State {
	return &State{
		entries: make(map[string]map[string]any),
	}
}

// SetMeta записывает метаданные run в зарезервированную запись.
func (s *State) SetMeta(workflowName string, startedAt time.Time) {
	s.entries[MetaEntryID] = map[string]any{
		"output": map[string]any{
			"name":       workflowName,
			"started_at": startedAt.Format(time.RFC3339),
		},
	}
}

// AddOutput записывает результат завершённого шага.
// Повторная запись для того же stepID — ошибка: записи неизменяемы.
func (s *State) AddOutput(stepID string, output map[string]any) error {
	if _, exists := s.entries[stepID]; exists {
		return fmt.Errorf("%w: %s", ErrStateOverwrite, stepID)
	}
	if output == nil {
		output = make(map[string]any)
	}
	s.entries[stepID] = map[string]any{"output": output}
	return nil
}

// Output возвращает результат шага.
func (s *State) Output(stepID string) (map[string]any, bool) {
	entry, ok := s.entries[stepID]
	if !ok {
		return nil, false
	}
	output, ok := entry["output"].(map[string]any)
	return output, ok
}

// Has проверяет, есть ли запись для шага.
func (s *State) Has(stepID string) bool {
	_, ok := s.entries[stepID]
	return ok
}

// Len возвращает количество записей (включая метаданные).
func (s *State) Len() int {
	return len(s.entries)
}

// entry возвращает сырую запись шага для навигации резолвером.
func (s *State) entry(stepID string) (map[string]any, bool) {
	entry, ok := s.entries[stepID]
	return entry, ok
}
