// Leadflow API — HTTP API управления workflows, runs и schedules.
//
// API не выполняет workflows: run создаётся в статусе pending и
// публикуется в очередь run.requested, откуда его забирает runner.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/leadflow/internal/agents"
	"github.com/shaiso/leadflow/internal/api"
	"github.com/shaiso/leadflow/internal/config"
	"github.com/shaiso/leadflow/internal/mq"
	"github.com/shaiso/leadflow/internal/repo"
	"github.com/shaiso/leadflow/internal/salesapi"
	"github.com/shaiso/leadflow/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := telemetry.NewLogger(cfg.LogLevel)
	logger.Info("starting leadflow-api")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Подключаемся к базе данных
	pool, err := repo.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// Репозитории
	workflowRepo := repo.NewWorkflowRepo(pool)
	runRepo := repo.NewRunRepo(pool)
	scheduleRepo := repo.NewScheduleRepo(pool)

	// Registry нужен API только для валидации имён агентов
	sales := salesapi.NewClient(salesapi.Config{
		ClayAPIKey:   cfg.ClayAPIKey,
		ApolloAPIKey: cfg.ApolloAPIKey,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
	}, logger)
	registry := agents.DefaultRegistry(agents.Deps{Sales: sales, Logger: logger})

	// RabbitMQ: без брокера API работает, но runs остаются pending
	var publisher *mq.Publisher
	mqConn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, runs will stay pending until a runner polls", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		publisher = mq.NewPublisher(mqConn, logger)
	}

	handler := api.NewHandler(api.Config{
		WorkflowRepo: workflowRepo,
		RunRepo:      runRepo,
		ScheduleRepo: scheduleRepo,
		Registry:     registry,
		Publisher:    publisher,
		Logger:       logger,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:    cfg.APIAddr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", cfg.APIAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
