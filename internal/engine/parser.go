package engine

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shaiso/leadflow/internal/domain"
)

// ParseWorkflow парсит JSON-документ workflow.
//
// Незнакомые поля игнорируются: спецификация может расширяться,
// старые runner'ы не должны падать на новых полях.
func ParseWorkflow(data []byte) (*domain.WorkflowSpec, error) {
	var spec domain.WorkflowSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	return &spec, nil
}

// ParseWorkflowFile читает и парсит workflow из файла.
func ParseWorkflowFile(path string) (*domain.WorkflowSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow file: %w", err)
	}
	return ParseWorkflow(data)
}

// Validate проверяет спецификацию workflow до начала выполнения.
//
// Проверки:
//   - список шагов не пуст;
//   - у каждого шага непустой уникальный ID;
//   - ID не совпадает с зарезервированным MetaEntryID;
//   - у каждого шага указан агент;
//   - агент известен реестру (если передан knownAgent);
//   - все строковые входы парсятся как шаблоны.
//
// Ошибки шаблонного синтаксиса ловятся здесь, а не в момент
// выполнения шага: сломанная конфигурация фатальна для всего run.
func Validate(spec *domain.WorkflowSpec, knownAgent func(name string) bool) error {
	if spec == nil {
		return NewValidationError("", "", "workflow spec is nil", ErrInvalidSpec)
	}
	if len(spec.Steps) == 0 {
		return NewValidationError("", "steps", "workflow has no steps", ErrNoSteps)
	}

	seen := make(map[string]struct{}, len(spec.Steps))
	for i := range spec.Steps {
		step := &spec.Steps[i]

		if step.ID == "" {
			return NewValidationError("", "id",
				fmt.Sprintf("step #%d has empty ID", i), ErrEmptyStepID)
		}
		if step.ID == MetaEntryID {
			return NewValidationError(step.ID, "id",
				fmt.Sprintf("step ID %q is reserved", MetaEntryID), ErrReservedStepID)
		}
		if _, dup := seen[step.ID]; dup {
			return NewValidationError(step.ID, "id",
				fmt.Sprintf("duplicate step ID %q", step.ID), ErrDuplicateStepID)
		}
		seen[step.ID] = struct{}{}

		if step.Agent == "" {
			return NewValidationError(step.ID, "agent",
				"step has empty agent name", ErrEmptyAgentName)
		}
		if knownAgent != nil && !knownAgent(step.Agent) {
			return NewValidationError(step.ID, "agent",
				fmt.Sprintf("unknown agent %q", step.Agent), ErrUnknownAgent)
		}

		if err := validateTemplates(step.ID, "inputs", step.Inputs); err != nil {
			return err
		}
	}
	return nil
}

// validateTemplates рекурсивно проверяет шаблонный синтаксис всех
// строковых значений.
func validateTemplates(stepID, field string, value any) error {
	switch v := value.(type) {
	case string:
		if _, err := ParseTemplate(v); err != nil {
			return NewValidationError(stepID, field, err.Error(), err)
		}
	case map[string]any:
		for key, val := range v {
			if err := validateTemplates(stepID, field+"."+key, val); err != nil {
				return err
			}
		}
	case []any:
		for i, val := range v {
			if err := validateTemplates(stepID, fmt.Sprintf("%s[%d]", field, i), val); err != nil {
				return err
			}
		}
	}
	return nil
}
