package engine

import "errors"

// Ошибки валидации WorkflowSpec.
var (
	// ErrInvalidSpec — документ workflow не парсится.
	ErrInvalidSpec = errors.New("invalid workflow spec")

	// ErrNoSteps — workflow не содержит шагов.
	ErrNoSteps = errors.New("workflow has no steps")

	// ErrEmptyStepID — шаг не имеет ID.
	ErrEmptyStepID = errors.New("step has empty ID")

	// ErrDuplicateStepID — несколько шагов с одинаковым ID.
	ErrDuplicateStepID = errors.New("duplicate step ID")

	// ErrEmptyAgentName — шаг не называет агента.
	ErrEmptyAgentName = errors.New("step has empty agent name")

	// ErrUnknownAgent — имя агента не зарегистрировано в реестре.
	ErrUnknownAgent = errors.New("unknown agent")

	// ErrReservedStepID — шаг использует зарезервированный ID.
	ErrReservedStepID = errors.New("reserved step ID")
)

// Ошибки шаблонных выражений.
var (
	// ErrUnbalancedMarkers — открывающий маркер без закрывающего
	// (или наоборот).
	ErrUnbalancedMarkers = errors.New("unbalanced template markers")

	// ErrBadExpression — тело плейсхолдера не соответствует грамматике
	// step_id.output.field[.field...].
	ErrBadExpression = errors.New("malformed template expression")
)

// Ошибки разделяемого состояния.
var (
	// ErrStateOverwrite — попытка перезаписать результат уже
	// завершённого шага. Записи состояния неизменяемы до конца run.
	ErrStateOverwrite = errors.New("step output already recorded")
)

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	StepID  string // ID шага, где произошла ошибка
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.StepID != "" {
		return "step " + e.StepID + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(stepID, field, message string, err error) *ValidationError {
	return &ValidationError{
		StepID:  stepID,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
