package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shaiso/leadflow/internal/domain"
)

// Metrics — Prometheus-метрики выполнения workflow.
type Metrics struct {
	// RunsTotal — количество завершённых run по статусу.
	RunsTotal *prometheus.CounterVec

	// RunDuration — гистограмма продолжительности run.
	RunDuration *prometheus.HistogramVec

	// StepsTotal — количество выполненных шагов по агенту и статусу.
	StepsTotal *prometheus.CounterVec

	// StepDuration — гистограмма продолжительности шага по агенту.
	StepDuration *prometheus.HistogramVec
}

// NewMetrics регистрирует метрики в реестре reg.
// Nil reg — реестр по умолчанию.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadflow",
			Name:      "runs_total",
			Help:      "Количество завершённых run по статусу.",
		}, []string{"status"}),

		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadflow",
			Name:      "run_duration_seconds",
			Help:      "Продолжительность run в секундах.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"workflow"}),

		StepsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadflow",
			Name:      "steps_total",
			Help:      "Количество выполненных шагов по агенту и статусу.",
		}, []string{"agent", "status"}),

		StepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadflow",
			Name:      "step_duration_seconds",
			Help:      "Продолжительность шага в секундах.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
		}, []string{"agent"}),
	}
}

// ObserveRun фиксирует метрики завершённого run.
func (m *Metrics) ObserveRun(result *domain.ExecutionResult) {
	if m == nil || result == nil {
		return
	}
	m.RunsTotal.WithLabelValues(string(result.Status)).Inc()
	m.RunDuration.WithLabelValues(result.WorkflowName).Observe(result.DurationSeconds)
}

// ObserveStep фиксирует метрики завершённого шага.
func (m *Metrics) ObserveStep(step *domain.StepResult) {
	if m == nil || step == nil {
		return
	}
	m.StepsTotal.WithLabelValues(step.Agent, string(step.Status)).Inc()
	m.StepDuration.WithLabelValues(step.Agent).Observe(step.DurationSeconds)
}
