// Leadflow Runner — выполняет workflows.
//
// Два режима:
//
//   - One-shot: leadflow-runner --file workflow.json
//     выполняет workflow из файла и пишет итоговый документ
//     execution_result_<timestamp>.json в каталог результатов.
//     База данных и брокер не нужны.
//
//   - Service: без --file. Потребляет run.requested из RabbitMQ,
//     выполняет runs и сохраняет результаты в PostgreSQL.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/leadflow/internal/agents"
	"github.com/shaiso/leadflow/internal/config"
	"github.com/shaiso/leadflow/internal/domain"
	"github.com/shaiso/leadflow/internal/engine"
	"github.com/shaiso/leadflow/internal/mq"
	"github.com/shaiso/leadflow/internal/orchestrator"
	"github.com/shaiso/leadflow/internal/repo"
	"github.com/shaiso/leadflow/internal/salesapi"
	"github.com/shaiso/leadflow/internal/telemetry"
)

func main() {
	var (
		file   string
		policy string
	)
	flag.StringVar(&file, "file", "", "выполнить workflow из JSON-файла и выйти")
	flag.StringVar(&policy, "policy", "", "политика итогового статуса: best_effort или strict")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if policy != "" {
		cfg.FailurePolicy = policy
	}

	logger := telemetry.NewLogger(cfg.LogLevel)

	runnerPolicy, err := orchestrator.ParsePolicy(cfg.FailurePolicy)
	if err != nil {
		logger.Error("invalid failure policy", "error", err)
		os.Exit(1)
	}

	sales := salesapi.NewClient(salesapi.Config{
		ClayAPIKey:   cfg.ClayAPIKey,
		ApolloAPIKey: cfg.ApolloAPIKey,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
	}, logger)
	registry := agents.DefaultRegistry(agents.Deps{Sales: sales, Logger: logger})

	if file != "" {
		os.Exit(runOneShot(cfg, logger, registry, runnerPolicy, file))
	}

	runService(cfg, logger, registry, runnerPolicy)
}

// runOneShot выполняет workflow из файла и пишет итоговый документ
// в каталог результатов. Возвращает код выхода процесса.
func runOneShot(cfg *config.Config, logger *slog.Logger, registry *agents.Registry, policy orchestrator.Policy, file string) int {
	spec, err := engine.ParseWorkflowFile(file)
	if err != nil {
		logger.Error("failed to load workflow", "file", file, "error", err)
		return 1
	}

	runner := orchestrator.NewRunner(registry,
		orchestrator.WithLogger(logger),
		orchestrator.WithPolicy(policy),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result := runner.Run(ctx, spec)

	path := filepath.Join(cfg.ResultsDir, fmt.Sprintf("execution_result_%s.json", time.Now().Format("20060102_150405")))
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return 1
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Error("failed to write result", "path", path, "error", err)
		return 1
	}

	logger.Info("run finished",
		"workflow", result.WorkflowName,
		"status", result.Status,
		"duration_seconds", result.DurationSeconds,
		"result_file", path)

	if result.Status != domain.RunStatusCompleted {
		return 1
	}
	return 0
}

// runService запускает runner как сервис, потребляющий run.requested.
func runService(cfg *config.Config, logger *slog.Logger, registry *agents.Registry, policy orchestrator.Policy) {
	logger.Info("starting leadflow-runner")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := repo.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	workflowRepo := repo.NewWorkflowRepo(pool)
	runRepo := repo.NewRunRepo(pool)

	mqConn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Error("RabbitMQ not available", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Warn("failed to setup topology", "error", err)
	}
	publisher := mq.NewPublisher(mqConn, logger)

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	runner := orchestrator.NewRunner(registry,
		orchestrator.WithLogger(logger),
		orchestrator.WithPolicy(policy),
		orchestrator.WithMetrics(metrics),
	)

	svc := &service{
		workflowRepo: workflowRepo,
		runRepo:      runRepo,
		publisher:    publisher,
		runner:       runner,
		logger:       logger,
	}

	consumer := mq.NewConsumer(mqConn, logger, mq.ConsumerConfig{
		Queue:    mq.QueueRunsRequested,
		Handler:  svc.handleRunRequested,
		Prefetch: 1,
	})

	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("consumer stopped", "error", err)
			cancel()
		}
	}()

	// healthz + metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8082"
	if v := os.Getenv("LEADFLOW_RUNNER_ADDR"); v != "" {
		port = v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	consumer.Stop()
	logger.Info("leadflow-runner stopped")
}

// service связывает consumer с репозиториями и runner'ом.
type service struct {
	workflowRepo *repo.WorkflowRepo
	runRepo      *repo.RunRepo
	publisher    *mq.Publisher
	runner       *orchestrator.Runner
	logger       *slog.Logger
}

// handleRunRequested обрабатывает одно сообщение run.requested:
// загружает run и workflow, выполняет и сохраняет результат.
func (s *service) handleRunRequested(ctx context.Context, msg *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.RunRequestedPayload](&msg.Message)
	if err != nil {
		return fmt.Errorf("bad run.requested payload: %w", err)
	}

	logger := telemetry.WithRunID(s.logger, payload.RunID)

	run, err := s.runRepo.GetByID(ctx, payload.RunID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Warn("run not found, dropping message")
			return nil
		}
		return fmt.Errorf("load run: %w", err)
	}

	if run.IsFinished() {
		logger.Info("run already finished, dropping duplicate", "status", run.Status)
		return nil
	}

	wf, err := s.workflowRepo.GetByName(ctx, run.WorkflowName)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Warn("workflow deleted, dropping run", "workflow", run.WorkflowName)
			return nil
		}
		return fmt.Errorf("load workflow: %w", err)
	}

	run.MarkRunning()
	if err := s.runRepo.MarkRunning(ctx, run); err != nil {
		return fmt.Errorf("mark running: %w", err)
	}

	result := s.runner.Run(ctx, &wf.Spec)

	run.MarkFinished(result)
	if err := s.runRepo.MarkFinished(ctx, run); err != nil {
		return fmt.Errorf("mark finished: %w", err)
	}

	if err := s.publisher.PublishRunFinished(ctx, mq.RunFinishedPayload{
		RunID:           run.ID,
		WorkflowName:    run.WorkflowName,
		Status:          string(run.Status),
		DurationSeconds: result.DurationSeconds,
		Error:           run.Error,
	}); err != nil {
		logger.Warn("failed to publish run.finished", "error", err)
	}

	logger.Info("run finished", "workflow", run.WorkflowName, "status", run.Status)
	return nil
}
