// Package telemetry — структурированное логирование (slog, JSON)
// и Prometheus-метрики выполнения workflow.
package telemetry
