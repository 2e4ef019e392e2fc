package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/leadflow/internal/agents"
	"github.com/shaiso/leadflow/internal/domain"
	"github.com/shaiso/leadflow/internal/engine"
	"github.com/shaiso/leadflow/internal/telemetry"
)

// Policy — политика итогового статуса run.
type Policy string

const (
	// PolicyBestEffort — run считается completed, если выполнение
	// дошло до конца, даже при failed/skipped шагах. След выполнения
	// сохраняет все исходы. Политика по умолчанию.
	PolicyBestEffort Policy = "best_effort"

	// PolicyStrict — run считается completed только если каждый шаг
	// завершился completed.
	PolicyStrict Policy = "strict"
)

// ParsePolicy разбирает имя политики. Пустая строка — best_effort.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "":
		return PolicyBestEffort, nil
	case PolicyBestEffort, PolicyStrict:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("unknown failure policy %q", s)
	}
}

// Runner выполняет workflow: валидация, последовательное выполнение
// шагов, сборка итогового документа.
type Runner struct {
	registry *agents.Registry
	executor *StepExecutor
	logger   *slog.Logger
	policy   Policy
	metrics  *telemetry.Metrics
}

// Option настраивает Runner.
type Option func(*Runner)

// WithLogger задаёт логгер.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithPolicy задаёт политику итогового статуса.
func WithPolicy(policy Policy) Option {
	return func(r *Runner) { r.policy = policy }
}

// WithMetrics подключает Prometheus-метрики.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(r *Runner) { r.metrics = metrics }
}

// NewRunner создаёт Runner с политикой best_effort по умолчанию.
func NewRunner(registry *agents.Registry, opts ...Option) *Runner {
	r := &Runner{
		registry: registry,
		logger:   slog.Default(),
		policy:   PolicyBestEffort,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.executor = NewStepExecutor(registry, r.logger)
	return r
}

// Run выполняет workflow и возвращает итоговый документ.
//
// Run всегда возвращает результат, даже failed: частичный прогресс
// до фатальной ошибки не теряется. Ошибка конфигурации (невалидная
// спецификация) фатальна — run завершается failed с нулём шагов.
// Ошибка выполнения одного шага не прерывает run: следующий шаг
// получает шанс выполниться, если его входы разрешаются.
func (r *Runner) Run(ctx context.Context, spec *domain.WorkflowSpec) *domain.ExecutionResult {
	result := domain.NewExecutionResult(workflowName(spec))
	logger := telemetry.WithWorkflow(r.logger, result.WorkflowName)

	if err := engine.Validate(spec, r.registry.Has); err != nil {
		result.MarkFailed(err.Error())
		logger.Error("workflow validation failed", slog.String("error", err.Error()))
		r.observeRun(result)
		return result
	}

	logger.Info("run started", slog.Int("steps", len(spec.Steps)))

	state := engine.NewState()
	state.SetMeta(result.WorkflowName, result.StartedAt)

	for i := range spec.Steps {
		if err := ctx.Err(); err != nil {
			result.MarkFailed("run cancelled: " + err.Error())
			logger.Warn("run cancelled",
				slog.Int("completed_steps", len(result.Steps)),
			)
			r.observeRun(result)
			return result
		}

		step := spec.Steps[i]
		stepResult := r.executor.Execute(ctx, step, state)
		result.Steps = append(result.Steps, *stepResult)
		r.observeStep(stepResult)

		if stepResult.Status == domain.StepStatusCompleted {
			if err := state.AddOutput(step.ID, stepResult.Output); err != nil {
				// Невозможно после валидации уникальности ID.
				result.MarkFailed(err.Error())
				r.observeRun(result)
				return result
			}
		}
	}

	result.FinalState = buildSummary(spec, state)

	switch {
	case r.policy == PolicyStrict && !result.AllStepsCompleted():
		result.MarkFailed(fmt.Sprintf(
			"strict policy: %d of %d steps did not complete",
			len(result.Steps)-result.CountByStatus(domain.StepStatusCompleted),
			len(result.Steps),
		))
	default:
		result.MarkCompleted()
	}

	logger.Info("run finished",
		slog.String("status", string(result.Status)),
		slog.Float64("duration_seconds", result.DurationSeconds),
		slog.Int("completed", result.CountByStatus(domain.StepStatusCompleted)),
		slog.Int("failed", result.CountByStatus(domain.StepStatusFailed)),
		slog.Int("skipped", result.CountByStatus(domain.StepStatusSkipped)),
	)
	r.observeRun(result)
	return result
}

// buildSummary собирает сводку итогового состояния: для каждого
// спискового output'а шага — его размер под ключом <key>_count.
// Форма сводки выводится из данных, движок ничего не хардкодит.
func buildSummary(spec *domain.WorkflowSpec, state *engine.State) map[string]any {
	summary := make(map[string]any)
	for i := range spec.Steps {
		output, ok := state.Output(spec.Steps[i].ID)
		if !ok {
			continue
		}
		for key, value := range output {
			if list, ok := value.([]any); ok {
				summary[key+"_count"] = len(list)
			}
		}
	}
	return summary
}

func workflowName(spec *domain.WorkflowSpec) string {
	if spec == nil || spec.Name == "" {
		return "unnamed_workflow"
	}
	return spec.Name
}

func (r *Runner) observeRun(result *domain.ExecutionResult) {
	if r.metrics != nil {
		r.metrics.ObserveRun(result)
	}
}

func (r *Runner) observeStep(step *domain.StepResult) {
	if r.metrics != nil {
		r.metrics.ObserveStep(step)
	}
}
