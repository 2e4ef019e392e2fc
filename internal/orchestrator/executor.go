package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shaiso/leadflow/internal/agents"
	"github.com/shaiso/leadflow/internal/domain"
	"github.com/shaiso/leadflow/internal/engine"
	"github.com/shaiso/leadflow/internal/telemetry"
)

// StepExecutor выполняет один шаг workflow: разрешает входы по
// состоянию, создаёт агента и вызывает его.
//
// Execute никогда не возвращает ошибку — любой исход шага
// представляется StepResult. Паника агента перехватывается
// и превращается в failed с категорией execution.
type StepExecutor struct {
	registry *agents.Registry
	logger   *slog.Logger
}

// NewStepExecutor создаёт исполнитель шагов.
func NewStepExecutor(registry *agents.Registry, logger *slog.Logger) *StepExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &StepExecutor{registry: registry, logger: logger}
}

// Execute выполняет шаг по текущему состоянию run.
func (e *StepExecutor) Execute(ctx context.Context, step domain.StepSpec, state *engine.State) *domain.StepResult {
	result := &domain.StepResult{
		StepID:    step.ID,
		Agent:     step.Agent,
		StartedAt: time.Now(),
	}
	logger := telemetry.WithStepID(e.logger, step.ID).With(
		slog.String("agent", step.Agent),
	)

	resolved, err := engine.ResolveValue(step.Inputs, state)
	if err != nil {
		// Валидация ловит синтаксис раньше; сюда попадаем только
		// если шаг выполняется в обход валидации.
		e.fail(result, domain.ErrorKindConfiguration, fmt.Errorf("resolve inputs: %w", err))
		logger.Error("step inputs failed to resolve", slog.String("error", result.Error))
		return result
	}

	if refs := engine.CollectUnresolved(resolved); len(refs) > 0 {
		e.finish(result)
		result.Status = domain.StepStatusSkipped
		result.Reason = "unresolved references: " + strings.Join(refs, ", ")
		logger.Warn("step skipped", slog.String("reason", result.Reason))
		return result
	}

	inputs, _ := resolved.(map[string]any)
	if inputs == nil {
		inputs = map[string]any{}
	}

	agent, err := e.registry.New(step.Agent, step.ID, agents.Config{
		Instructions: step.Instructions,
		Tools:        step.Tools,
		OutputSchema: step.OutputSchema,
	})
	if err != nil {
		e.fail(result, domain.ErrorKindConfiguration, err)
		logger.Error("agent construction failed", slog.String("error", result.Error))
		return result
	}

	output, err := e.runAgent(ctx, agent, inputs)
	if err != nil {
		e.fail(result, domain.ErrorKindExecution, err)
		logger.Error("step failed", slog.String("error", result.Error))
		return result
	}

	e.finish(result)
	result.Status = domain.StepStatusCompleted
	result.Output = output
	logger.Info("step completed",
		slog.Float64("duration_seconds", result.DurationSeconds),
	)
	return result
}

// runAgent вызывает агента, перехватывая панику.
func (e *StepExecutor) runAgent(ctx context.Context, agent agents.Agent, inputs map[string]any) (output map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			output = nil
			err = fmt.Errorf("agent panicked: %v", r)
		}
	}()
	return agent.Run(ctx, inputs)
}

// fail финализирует результат шага как failed.
func (e *StepExecutor) fail(result *domain.StepResult, kind domain.ErrorKind, err error) {
	e.finish(result)
	result.Status = domain.StepStatusFailed
	result.ErrorKind = kind
	result.Error = err.Error()
}

// finish фиксирует время завершения шага.
func (e *StepExecutor) finish(result *domain.StepResult) {
	result.FinishedAt = time.Now()
	result.DurationSeconds = result.FinishedAt.Sub(result.StartedAt).Seconds()
}
