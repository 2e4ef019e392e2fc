package domain

// RunStatus — статус выполнения run.
//
// Жизненный цикл:
//
//	pending → running → completed
//	                  ↘ failed
//
// failed достигается только при ошибке конфигурации (невалидный
// workflow, неизвестный агент) либо по политике strict.
type RunStatus string

const (
	// RunStatusPending — run создан, но ещё не начал выполняться.
	RunStatusPending RunStatus = "pending"

	// RunStatusRunning — run в процессе выполнения.
	RunStatusRunning RunStatus = "running"

	// RunStatusCompleted — run дошёл до конца пайплайна.
	RunStatusCompleted RunStatus = "completed"

	// RunStatusFailed — run завершился с ошибкой конфигурации
	// (ни один шаг не выполнялся) либо не прошёл политику строгости.
	RunStatusFailed RunStatus = "failed"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed:
		return true
	default:
		return false
	}
}

// StepStatus — статус выполнения одного шага пайплайна.
//
// Все три статуса — терминальные: шаг выполняется ровно один раз,
// retry движком не предусмотрен.
type StepStatus string

const (
	// StepStatusCompleted — агент отработал, output записан в состояние.
	StepStatusCompleted StepStatus = "completed"

	// StepStatusFailed — агент вернул ошибку (или registry не нашёл агента).
	StepStatusFailed StepStatus = "failed"

	// StepStatusSkipped — входы шага ссылаются на результат шага,
	// который не завершился; агент не вызывался.
	StepStatusSkipped StepStatus = "skipped"
)

// ErrorKind — категория ошибки шага.
//
// Разделяет ошибки конфигурации (неизвестный агент) и ошибки
// выполнения (агент упал во время run).
type ErrorKind string

const (
	// ErrorKindConfiguration — шаг не мог быть запущен из-за конфигурации.
	ErrorKindConfiguration ErrorKind = "configuration"

	// ErrorKindExecution — агент запущен, но завершился с ошибкой.
	ErrorKindExecution ErrorKind = "execution"
)
